package services

import (
	"context"
	"testing"
	"time"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/apperr"
)

// fakeBlobStore records calls without touching a real bucket
type fakeBlobStore struct {
	uploads map[string][]byte
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: make(map[string][]byte)}
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	f.uploads[key] = data
	return nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobStore) PresignedURL(key string, expiration time.Duration) (string, error) {
	return "https://blob.example.com/" + key, nil
}

func TestCreateManualDocumentIsPending(t *testing.T) {
	db := newTestDB(t)
	university, _, _, subject, _ := seedCatalog(t, db)

	svc := NewDocumentService(db, newFakeBlobStore())
	document, err := svc.CreateManual(context.Background(), university.ID, subject.ID, "Unit 1 notes")
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}
	if document.Status() != model.DocumentStatusPending {
		t.Errorf("status = %s, want pending", document.Status())
	}

	_, err = svc.CreateManual(context.Background(), university.ID, subject.ID, "   ")
	if !apperr.IsValidation(err) {
		t.Errorf("blank title error = %v, want validation", err)
	}

	_, err = svc.CreateManual(context.Background(), university.ID, 9999, "x")
	if !apperr.IsNotFound(err) {
		t.Errorf("unknown subject error = %v, want not found", err)
	}
}

func TestListDocumentsPendingFirst(t *testing.T) {
	db := newTestDB(t)
	university, _, _, subject, _ := seedCatalog(t, db)

	indexed := model.Document{SubjectID: subject.ID, Title: "Indexed", SourceType: model.SourceTypePDF, BlobKey: "materials/1/x.pdf"}
	if err := db.Create(&indexed).Error; err != nil {
		t.Fatalf("seed indexed document: %v", err)
	}

	svc := NewDocumentService(db, newFakeBlobStore())
	documents, err := svc.ListDocuments(context.Background(), university.ID, subject.ID)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(documents))
	}
	if documents[0].Status() != model.DocumentStatusPending {
		t.Errorf("first document status = %s, want pending first", documents[0].Status())
	}
}

func TestDownloadURLRequiresIndexedDocument(t *testing.T) {
	db := newTestDB(t)
	university, _, _, subject, _ := seedCatalog(t, db)

	pending := model.Document{SubjectID: subject.ID, Title: "Pending", SourceType: model.SourceTypePDF}
	indexed := model.Document{SubjectID: subject.ID, Title: "Indexed", SourceType: model.SourceTypePDF, BlobKey: "materials/1/y.pdf"}
	if err := db.Create(&pending).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&indexed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := NewDocumentService(db, newFakeBlobStore())

	_, err := svc.DownloadURL(context.Background(), university.ID, pending.ID)
	if !apperr.IsConflict(err) {
		t.Errorf("pending download error = %v, want conflict", err)
	}

	url, err := svc.DownloadURL(context.Background(), university.ID, indexed.ID)
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if url != "https://blob.example.com/materials/1/y.pdf" {
		t.Errorf("url = %q", url)
	}
}

func TestDocumentServiceWithoutBlobStore(t *testing.T) {
	db := newTestDB(t)
	university, _, _, subject, _ := seedCatalog(t, db)

	// No bucket configured: the service runs with a nil store
	svc := NewDocumentService(db, nil)

	// Manual materials are unaffected
	manual, err := svc.CreateManual(context.Background(), university.ID, subject.ID, "Reading list")
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}

	indexed := model.Document{SubjectID: subject.ID, Title: "Indexed", SourceType: model.SourceTypePDF, BlobKey: "materials/1/w.pdf"}
	if err := db.Create(&indexed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	// File operations report the missing dependency instead of panicking
	if _, err := svc.DownloadURL(context.Background(), university.ID, indexed.ID); !apperr.IsUnavailable(err) {
		t.Errorf("download error = %v, want unavailable", err)
	}
	if _, err := svc.UploadPDF(context.Background(), university.ID, subject.ID, "x", nil, "k"); !apperr.IsUnavailable(err) {
		t.Errorf("upload error = %v, want unavailable", err)
	}

	// Deletion still removes rows; the orphaned blob is only logged
	if err := svc.DeleteDocument(context.Background(), university.ID, manual.ID); err != nil {
		t.Fatalf("delete manual document: %v", err)
	}
	if err := svc.DeleteDocument(context.Background(), university.ID, indexed.ID); err != nil {
		t.Fatalf("delete indexed document: %v", err)
	}
	if got := countRows(t, db, &model.Document{}); got != 1 { // only the seeded one
		t.Errorf("documents remaining = %d, want 1", got)
	}
}

func TestDeleteDocumentRemovesBlob(t *testing.T) {
	db := newTestDB(t)
	university, _, _, subject, _ := seedCatalog(t, db)

	blob := newFakeBlobStore()
	indexed := model.Document{SubjectID: subject.ID, Title: "Indexed", SourceType: model.SourceTypePDF, BlobKey: "materials/1/z.pdf"}
	if err := db.Create(&indexed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := NewDocumentService(db, blob)
	if err := svc.DeleteDocument(context.Background(), university.ID, indexed.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	var gone model.Document
	if err := db.First(&gone, indexed.ID).Error; err == nil {
		t.Error("document row should be deleted")
	}
	if len(blob.deleted) != 1 || blob.deleted[0] != "materials/1/z.pdf" {
		t.Errorf("blob deletes = %v, want the document's key", blob.deleted)
	}
}
