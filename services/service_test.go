package services

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campusmind/console-api/database"
	"github.com/campusmind/console-api/model"
)

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// seedCatalog builds a university with one full branch subtree and returns
// the created records:
//
//	CSE branch -> Semester 1 -> Algorithms -> one document, one chat with
//	two messages (chat owned by the seeded student)
func seedCatalog(t *testing.T, db *gorm.DB) (model.University, model.Branch, model.Semester, model.Subject, model.Student) {
	t.Helper()

	code := "TU"
	university := model.University{Name: "Test University", Code: &code, IsActive: true}
	if err := db.Create(&university).Error; err != nil {
		t.Fatalf("seed university: %v", err)
	}

	branch := model.Branch{UniversityID: university.ID, Name: "CSE"}
	if err := db.Create(&branch).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}

	semester := model.Semester{BranchID: branch.ID, SemesterNumber: 1, Name: "Semester 1"}
	if err := db.Create(&semester).Error; err != nil {
		t.Fatalf("seed semester: %v", err)
	}

	subject := model.Subject{SemesterID: semester.ID, Name: "Algorithms"}
	if err := db.Create(&subject).Error; err != nil {
		t.Fatalf("seed subject: %v", err)
	}

	document := model.Document{SubjectID: subject.ID, Title: "Notes", SourceType: model.SourceTypeManual}
	if err := db.Create(&document).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}

	branchID := branch.ID
	year := 2024
	student := model.Student{
		Name:         "Asha Verma",
		Email:        "asha@example.com",
		PasswordHash: "x",
		UniversityID: university.ID,
		BranchID:     &branchID,
		BatchYear:    &year,
		IsActive:     true,
	}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}

	subjectID := subject.ID
	chat := model.Chat{StudentID: student.ID, SubjectID: &subjectID, Title: "Exam prep"}
	if err := db.Create(&chat).Error; err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	messages := []model.ChatMessage{
		{ChatID: chat.ID, Sender: model.ChatSenderUser, Message: "What is quicksort?"},
		{ChatID: chat.ID, Sender: model.ChatSenderBot, Message: "A divide and conquer sort."},
	}
	if err := db.Create(&messages).Error; err != nil {
		t.Fatalf("seed messages: %v", err)
	}

	return university, branch, semester, subject, student
}

func countRows(t *testing.T, db *gorm.DB, value interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(value).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
