package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/apperr"
)

// RosterFilter narrows a roster query. Zero values mean "no constraint";
// all present filters are combined.
type RosterFilter struct {
	BranchID  uint
	BatchYear int
	Status    string // "active", "inactive" or "" for all
	Query     string // case-insensitive match on name or email
	Page      int
	Limit     int
}

// RosterService answers roster queries and manages student lifecycle for a
// university's admins.
type RosterService struct {
	db *gorm.DB
}

func NewRosterService(db *gorm.DB) *RosterService {
	return &RosterService{db: db}
}

// ListStudents returns one page of the filtered roster plus the total count
// of matches.
func (s *RosterService) ListStudents(ctx context.Context, universityID uint, filter RosterFilter) ([]model.Student, int64, error) {
	if filter.Status != "" && filter.Status != "active" && filter.Status != "inactive" {
		return nil, 0, apperr.Validationf("status must be 'active' or 'inactive'")
	}

	query := s.db.WithContext(ctx).Model(&model.Student{}).
		Where("university_id = ?", universityID)

	if filter.BranchID != 0 {
		query = query.Where("branch_id = ?", filter.BranchID)
	}
	if filter.BatchYear != 0 {
		query = query.Where("batch_year = ?", filter.BatchYear)
	}
	switch filter.Status {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Unavailable("failed to count students", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var students []model.Student
	err := query.Preload("Branch").
		Order("name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&students).Error
	if err != nil {
		return nil, 0, apperr.Unavailable("failed to list students", err)
	}
	return students, total, nil
}

// GetStudent loads one student scoped to the university
func (s *RosterService) GetStudent(ctx context.Context, universityID, studentID uint) (*model.Student, error) {
	var student model.Student
	err := s.db.WithContext(ctx).Preload("Branch").
		Where("id = ? AND university_id = ?", studentID, universityID).
		First(&student).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundf("student not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to load student", err)
	}
	return &student, nil
}

// SetActive flips a student's active flag. Deactivation is non-destructive:
// the account, its chats and its history all survive; only sign-in stops.
func (s *RosterService) SetActive(ctx context.Context, universityID, studentID uint, active bool) (*model.Student, error) {
	student, err := s.GetStudent(ctx, universityID, studentID)
	if err != nil {
		return nil, err
	}
	if student.IsActive == active {
		return student, nil
	}

	if err := s.db.WithContext(ctx).Model(student).
		Update("is_active", active).Error; err != nil {
		return nil, apperr.Unavailable("failed to update student", err)
	}
	student.IsActive = active
	return student, nil
}

// DeleteStudent removes the account for good, including its chats and chat
// messages, inside one transaction.
func (s *RosterService) DeleteStudent(ctx context.Context, universityID, studentID uint) error {
	student, err := s.GetStudent(ctx, universityID, studentID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chatQ := tx.Model(&model.Chat{}).Select("id").Where("student_id = ?", student.ID)

		if err := tx.Where("chat_id IN (?)", chatQ).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", student.ID).Delete(&model.Chat{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Student{}, student.ID).Error
	})
	if err != nil {
		return apperr.Unavailable("failed to delete student", err)
	}
	return nil
}
