package services

import (
	"context"
	"io"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/apperr"
	"github.com/campusmind/console-api/utils/pdfvalidation"
)

// BlobStore is the slice of the blob client the document service needs
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignedURL(key string, expiration time.Duration) (string, error)
}

// DocumentService manages course materials attached to subjects. A document
// row is created before its file lands in the blob store, so a crash between
// the two leaves a visible pending record instead of an orphaned blob.
// blob may be nil when no bucket is configured; file operations then fail
// with a dependency error while manual materials keep working.
type DocumentService struct {
	db   *gorm.DB
	blob BlobStore
}

func NewDocumentService(db *gorm.DB, blob BlobStore) *DocumentService {
	return &DocumentService{db: db, blob: blob}
}

// ListDocuments returns a subject's materials, pending ones first
func (s *DocumentService) ListDocuments(ctx context.Context, universityID, subjectID uint) ([]model.Document, error) {
	if err := s.verifySubject(ctx, universityID, subjectID); err != nil {
		return nil, err
	}

	var documents []model.Document
	err := s.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("CASE WHEN blob_key = '' THEN 0 ELSE 1 END, created_at DESC").
		Find(&documents).Error
	if err != nil {
		return nil, apperr.Unavailable("failed to list documents", err)
	}
	return documents, nil
}

// CreateManual records a manually entered material with no backing file
func (s *DocumentService) CreateManual(ctx context.Context, universityID, subjectID uint, title string) (*model.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validationf("document title is required")
	}
	if err := s.verifySubject(ctx, universityID, subjectID); err != nil {
		return nil, err
	}

	document := model.Document{
		SubjectID:  subjectID,
		Title:      title,
		SourceType: model.SourceTypeManual,
	}
	if err := s.db.WithContext(ctx).Create(&document).Error; err != nil {
		return nil, apperr.Unavailable("failed to create document", err)
	}
	return &document, nil
}

// UploadPDF validates and stores a PDF material. The record is written
// pending first; the blob key is set only after the upload succeeds.
func (s *DocumentService) UploadPDF(ctx context.Context, universityID, subjectID uint, title string, file *multipart.FileHeader, blobKey string) (*model.Document, error) {
	if s.blob == nil {
		return nil, apperr.Unavailable("blob store not configured", nil)
	}
	if err := s.verifySubject(ctx, universityID, subjectID); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = file.Filename
	}

	result, err := pdfvalidation.ValidatePDFFile(file, pdfvalidation.MaterialLimits)
	if err != nil {
		return nil, apperr.Unavailable("failed to validate PDF", err)
	}
	if !result.Valid {
		return nil, apperr.Validationf("%s", result.Error)
	}

	document := model.Document{
		SubjectID:  subjectID,
		Title:      title,
		SourceType: model.SourceTypePDF,
		FileSize:   result.FileSize,
		PageCount:  result.PageCount,
	}
	if err := s.db.WithContext(ctx).Create(&document).Error; err != nil {
		return nil, apperr.Unavailable("failed to create document", err)
	}

	content, err := readMultipart(file)
	if err != nil {
		return nil, apperr.Unavailable("failed to read uploaded file", err)
	}

	if err := s.blob.Upload(ctx, blobKey, content, "application/pdf"); err != nil {
		// Record stays pending; a retry or the orphan scan picks it up.
		return nil, apperr.Unavailable("failed to store uploaded file", err)
	}

	if err := s.db.WithContext(ctx).Model(&document).
		Update("blob_key", blobKey).Error; err != nil {
		return nil, apperr.Unavailable("failed to finalize document", err)
	}
	document.BlobKey = blobKey
	return &document, nil
}

// DownloadURL returns a short-lived link to an indexed material
func (s *DocumentService) DownloadURL(ctx context.Context, universityID, documentID uint) (string, error) {
	document, err := s.findDocument(ctx, universityID, documentID)
	if err != nil {
		return "", err
	}
	if document.Status() != model.DocumentStatusIndexed {
		return "", apperr.Conflictf("document is still pending")
	}
	if s.blob == nil {
		return "", apperr.Unavailable("blob store not configured", nil)
	}

	url, err := s.blob.PresignedURL(document.BlobKey, 15*time.Minute)
	if err != nil {
		return "", apperr.Unavailable("failed to generate download URL", err)
	}
	return url, nil
}

// DeleteDocument removes the record and, best-effort, its blob
func (s *DocumentService) DeleteDocument(ctx context.Context, universityID, documentID uint) error {
	document, err := s.findDocument(ctx, universityID, documentID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&model.Document{}, document.ID).Error; err != nil {
		return apperr.Unavailable("failed to delete document", err)
	}

	if document.BlobKey != "" {
		if s.blob == nil {
			log.Printf("Blob store not configured; leaving blob %s behind", document.BlobKey)
		} else if err := s.blob.Delete(ctx, document.BlobKey); err != nil {
			log.Printf("Failed to delete blob %s: %v", document.BlobKey, err)
		}
	}
	return nil
}

func (s *DocumentService) verifySubject(ctx context.Context, universityID, subjectID uint) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Subject{}).
		Joins("JOIN semesters ON semesters.id = subjects.semester_id").
		Joins("JOIN branches ON branches.id = semesters.branch_id").
		Where("subjects.id = ? AND branches.university_id = ?", subjectID, universityID).
		Count(&count).Error
	if err != nil {
		return apperr.Unavailable("failed to verify subject", err)
	}
	if count == 0 {
		return apperr.NotFoundf("subject not found")
	}
	return nil
}

func (s *DocumentService) findDocument(ctx context.Context, universityID, documentID uint) (*model.Document, error) {
	var document model.Document
	err := s.db.WithContext(ctx).
		Joins("JOIN subjects ON subjects.id = documents.subject_id").
		Joins("JOIN semesters ON semesters.id = subjects.semester_id").
		Joins("JOIN branches ON branches.id = semesters.branch_id").
		Where("documents.id = ? AND branches.university_id = ?", documentID, universityID).
		First(&document).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundf("document not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to load document", err)
	}
	return &document, nil
}

func readMultipart(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
