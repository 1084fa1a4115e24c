package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/navigator"
	"github.com/campusmind/console-api/utils/apperr"
)

// DeleteNotifier receives post-commit notifications about removed catalog
// nodes so navigator sessions can drop stale selections.
type DeleteNotifier interface {
	NotifyDeleted(universityID uint, level navigator.Level, id uint)
}

// CatalogService manages the Branch -> Semester -> Subject hierarchy for a
// university. Deletes cascade over the full subtree inside one transaction
// and are single-flight per target: a second delete of the same node while
// one is running gets a conflict instead of racing it.
type CatalogService struct {
	db       *gorm.DB
	notifier DeleteNotifier

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewCatalogService(db *gorm.DB, notifier DeleteNotifier) *CatalogService {
	return &CatalogService{
		db:       db,
		notifier: notifier,
		inflight: make(map[string]struct{}),
	}
}

// acquire claims a single-flight slot for a delete target
func (s *CatalogService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *CatalogService) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

// --- Branches ---

func (s *CatalogService) ListBranches(ctx context.Context, universityID uint) ([]model.Branch, error) {
	var branches []model.Branch
	err := s.db.WithContext(ctx).
		Where("university_id = ?", universityID).
		Order("name ASC").
		Find(&branches).Error
	if err != nil {
		return nil, apperr.Unavailable("failed to list branches", err)
	}
	return branches, nil
}

func (s *CatalogService) CreateBranch(ctx context.Context, universityID uint, name string) (*model.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("branch name is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.University{}).
		Where("id = ?", universityID).Count(&count).Error; err != nil {
		return nil, apperr.Unavailable("failed to verify university", err)
	}
	if count == 0 {
		return nil, apperr.NotFoundf("university not found")
	}

	if err := s.db.WithContext(ctx).Model(&model.Branch{}).
		Where("university_id = ? AND LOWER(name) = LOWER(?)", universityID, name).
		Count(&count).Error; err != nil {
		return nil, apperr.Unavailable("failed to check branch name", err)
	}
	if count > 0 {
		return nil, apperr.Conflictf("branch %q already exists in this university", name)
	}

	branch := model.Branch{UniversityID: universityID, Name: name}
	if err := s.db.WithContext(ctx).Create(&branch).Error; err != nil {
		return nil, apperr.Unavailable("failed to create branch", err)
	}
	return &branch, nil
}

// DeleteBranch removes a branch and its entire subtree: semesters, subjects,
// documents, chats and chat messages. Students keep their accounts; their
// branch assignment is cleared.
func (s *CatalogService) DeleteBranch(ctx context.Context, universityID, branchID uint) error {
	branch, err := s.findBranch(ctx, universityID, branchID)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("branch:%d", branchID)
	if !s.acquire(key) {
		return apperr.Conflictf("a delete of this branch is already in progress")
	}
	defer s.release(key)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		semesterQ := tx.Model(&model.Semester{}).Select("id").Where("branch_id = ?", branchID)
		subjectQ := tx.Model(&model.Subject{}).Select("id").Where("semester_id IN (?)", semesterQ)
		chatQ := tx.Model(&model.Chat{}).Select("id").Where("subject_id IN (?)", subjectQ)

		// Bottom-up so no delete ever strands children.
		if err := tx.Where("chat_id IN (?)", chatQ).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id IN (?)", subjectQ).Delete(&model.Chat{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id IN (?)", subjectQ).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("semester_id IN (?)", semesterQ).Delete(&model.Subject{}).Error; err != nil {
			return err
		}
		if err := tx.Where("branch_id = ?", branchID).Delete(&model.Semester{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Student{}).Where("branch_id = ?", branchID).
			Update("branch_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Branch{}, branch.ID).Error
	})
	if err != nil {
		return apperr.Unavailable("failed to delete branch", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyDeleted(universityID, navigator.LevelBranch, branchID)
	}
	return nil
}

// --- Semesters ---

func (s *CatalogService) ListSemesters(ctx context.Context, universityID, branchID uint) ([]model.Semester, error) {
	if _, err := s.findBranch(ctx, universityID, branchID); err != nil {
		return nil, err
	}

	var semesters []model.Semester
	err := s.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("semester_number ASC").
		Find(&semesters).Error
	if err != nil {
		return nil, apperr.Unavailable("failed to list semesters", err)
	}
	return semesters, nil
}

func (s *CatalogService) CreateSemester(ctx context.Context, universityID, branchID uint, number int, name string) (*model.Semester, error) {
	if number < 1 {
		return nil, apperr.Validationf("semester number must be positive")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Semester %d", number)
	}

	if _, err := s.findBranch(ctx, universityID, branchID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Semester{}).
		Where("branch_id = ? AND semester_number = ?", branchID, number).
		Count(&count).Error; err != nil {
		return nil, apperr.Unavailable("failed to check semester number", err)
	}
	if count > 0 {
		return nil, apperr.Conflictf("semester %d already exists in this branch", number)
	}

	semester := model.Semester{BranchID: branchID, SemesterNumber: number, Name: name}
	if err := s.db.WithContext(ctx).Create(&semester).Error; err != nil {
		return nil, apperr.Unavailable("failed to create semester", err)
	}
	return &semester, nil
}

func (s *CatalogService) DeleteSemester(ctx context.Context, universityID, semesterID uint) error {
	semester, err := s.findSemester(ctx, universityID, semesterID)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("semester:%d", semesterID)
	if !s.acquire(key) {
		return apperr.Conflictf("a delete of this semester is already in progress")
	}
	defer s.release(key)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subjectQ := tx.Model(&model.Subject{}).Select("id").Where("semester_id = ?", semesterID)
		chatQ := tx.Model(&model.Chat{}).Select("id").Where("subject_id IN (?)", subjectQ)

		if err := tx.Where("chat_id IN (?)", chatQ).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id IN (?)", subjectQ).Delete(&model.Chat{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id IN (?)", subjectQ).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("semester_id = ?", semesterID).Delete(&model.Subject{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Semester{}, semester.ID).Error
	})
	if err != nil {
		return apperr.Unavailable("failed to delete semester", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyDeleted(universityID, navigator.LevelSemester, semesterID)
	}
	return nil
}

// --- Subjects ---

func (s *CatalogService) ListSubjects(ctx context.Context, universityID, semesterID uint) ([]model.Subject, error) {
	if _, err := s.findSemester(ctx, universityID, semesterID); err != nil {
		return nil, err
	}

	var subjects []model.Subject
	err := s.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Order("name ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, apperr.Unavailable("failed to list subjects", err)
	}
	return subjects, nil
}

func (s *CatalogService) CreateSubject(ctx context.Context, universityID, semesterID uint, name string) (*model.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("subject name is required")
	}

	if _, err := s.findSemester(ctx, universityID, semesterID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Subject{}).
		Where("semester_id = ? AND LOWER(name) = LOWER(?)", semesterID, name).
		Count(&count).Error; err != nil {
		return nil, apperr.Unavailable("failed to check subject name", err)
	}
	if count > 0 {
		return nil, apperr.Conflictf("subject %q already exists in this semester", name)
	}

	subject := model.Subject{SemesterID: semesterID, Name: name}
	if err := s.db.WithContext(ctx).Create(&subject).Error; err != nil {
		return nil, apperr.Unavailable("failed to create subject", err)
	}
	return &subject, nil
}

func (s *CatalogService) DeleteSubject(ctx context.Context, universityID, subjectID uint) error {
	subject, err := s.findSubject(ctx, universityID, subjectID)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("subject:%d", subjectID)
	if !s.acquire(key) {
		return apperr.Conflictf("a delete of this subject is already in progress")
	}
	defer s.release(key)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chatQ := tx.Model(&model.Chat{}).Select("id").Where("subject_id = ?", subjectID)

		if err := tx.Where("chat_id IN (?)", chatQ).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id = ?", subjectID).Delete(&model.Chat{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id = ?", subjectID).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Subject{}, subject.ID).Error
	})
	if err != nil {
		return apperr.Unavailable("failed to delete subject", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyDeleted(universityID, navigator.LevelSubject, subjectID)
	}
	return nil
}

// --- Ownership lookups ---

func (s *CatalogService) findBranch(ctx context.Context, universityID, branchID uint) (*model.Branch, error) {
	var branch model.Branch
	err := s.db.WithContext(ctx).
		Where("id = ? AND university_id = ?", branchID, universityID).
		First(&branch).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundf("branch not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to load branch", err)
	}
	return &branch, nil
}

func (s *CatalogService) findSemester(ctx context.Context, universityID, semesterID uint) (*model.Semester, error) {
	var semester model.Semester
	err := s.db.WithContext(ctx).
		Joins("JOIN branches ON branches.id = semesters.branch_id").
		Where("semesters.id = ? AND branches.university_id = ?", semesterID, universityID).
		First(&semester).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundf("semester not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to load semester", err)
	}
	return &semester, nil
}

func (s *CatalogService) findSubject(ctx context.Context, universityID, subjectID uint) (*model.Subject, error) {
	var subject model.Subject
	err := s.db.WithContext(ctx).
		Joins("JOIN semesters ON semesters.id = subjects.semester_id").
		Joins("JOIN branches ON branches.id = semesters.branch_id").
		Where("subjects.id = ? AND branches.university_id = ?", subjectID, universityID).
		First(&subject).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundf("subject not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to load subject", err)
	}
	return &subject, nil
}
