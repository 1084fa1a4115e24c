package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/navigator"
	"github.com/campusmind/console-api/utils/apperr"
)

// CatalogLoader feeds navigator sessions from the catalog tables
type CatalogLoader struct {
	db *gorm.DB
}

func NewCatalogLoader(db *gorm.DB) *CatalogLoader {
	return &CatalogLoader{db: db}
}

func (l *CatalogLoader) Load(ctx context.Context, universityID uint, level navigator.Level, parentID uint) ([]navigator.Entry, error) {
	switch level {
	case navigator.LevelBranch:
		return l.loadBranches(ctx, universityID)
	case navigator.LevelSemester:
		return l.loadSemesters(ctx, universityID, parentID)
	case navigator.LevelSubject:
		return l.loadSubjects(ctx, universityID, parentID)
	}
	return nil, apperr.Validationf("unknown hierarchy level %d", level)
}

func (l *CatalogLoader) loadBranches(ctx context.Context, universityID uint) ([]navigator.Entry, error) {
	var branches []model.Branch
	err := l.db.WithContext(ctx).
		Where("university_id = ?", universityID).
		Order("name ASC").
		Find(&branches).Error
	if err != nil {
		return nil, apperr.Unavailable("failed to load branches", err)
	}

	entries := make([]navigator.Entry, 0, len(branches))
	for _, b := range branches {
		entries = append(entries, navigator.Entry{ID: b.ID, Label: b.Name})
	}
	return entries, nil
}

func (l *CatalogLoader) loadSemesters(ctx context.Context, universityID, branchID uint) ([]navigator.Entry, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&model.Branch{}).
		Where("id = ? AND university_id = ?", branchID, universityID).
		Count(&count).Error
	if err != nil {
		return nil, apperr.Unavailable("failed to verify branch", err)
	}
	if count == 0 {
		return nil, apperr.NotFoundf("branch not found")
	}

	var semesters []model.Semester
	err = l.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("semester_number ASC").
		Find(&semesters).Error
	if err != nil {
		return nil, apperr.Unavailable("failed to load semesters", err)
	}

	entries := make([]navigator.Entry, 0, len(semesters))
	for _, s := range semesters {
		entries = append(entries, navigator.Entry{ID: s.ID, Label: s.Name})
	}
	return entries, nil
}

func (l *CatalogLoader) loadSubjects(ctx context.Context, universityID, semesterID uint) ([]navigator.Entry, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&model.Semester{}).
		Joins("JOIN branches ON branches.id = semesters.branch_id").
		Where("semesters.id = ? AND branches.university_id = ?", semesterID, universityID).
		Count(&count).Error
	if err != nil {
		return nil, apperr.Unavailable("failed to verify semester", err)
	}
	if count == 0 {
		return nil, apperr.NotFoundf("semester not found")
	}

	var subjects []model.Subject
	err = l.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Order("name ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, apperr.Unavailable("failed to load subjects", err)
	}

	entries := make([]navigator.Entry, 0, len(subjects))
	for _, s := range subjects {
		entries = append(entries, navigator.Entry{ID: s.ID, Label: s.Name})
	}
	return entries, nil
}
