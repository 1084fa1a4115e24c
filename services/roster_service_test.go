package services

import (
	"context"
	"testing"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/apperr"
)

func TestListStudentsFiltersCombine(t *testing.T) {
	db := newTestDB(t)
	university, branchA, _, _, _ := seedCatalog(t, db)

	branchB := model.Branch{UniversityID: university.ID, Name: "ME"}
	if err := db.Create(&branchB).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}

	year24, year25 := 2024, 2025
	aID, bID := branchA.ID, branchB.ID
	students := []model.Student{
		{Name: "Beena Rao", Email: "beena@example.com", PasswordHash: "x", UniversityID: university.ID, BranchID: &aID, BatchYear: &year25, IsActive: true},
		{Name: "Chetan Shah", Email: "chetan@example.com", PasswordHash: "x", UniversityID: university.ID, BranchID: &aID, BatchYear: &year25, IsActive: false},
		{Name: "Deepa Menon", Email: "deepa@example.com", PasswordHash: "x", UniversityID: university.ID, BranchID: &bID, BatchYear: &year25, IsActive: true},
		{Name: "Eshan Gupta", Email: "eshan@example.com", PasswordHash: "x", UniversityID: university.ID, BranchID: &aID, BatchYear: &year24, IsActive: true},
	}
	if err := db.Create(&students).Error; err != nil {
		t.Fatalf("seed students: %v", err)
	}

	svc := NewRosterService(db)

	// Branch + batch year + status combine with AND
	got, total, err := svc.ListStudents(context.Background(), university.ID, RosterFilter{
		BranchID:  branchA.ID,
		BatchYear: 2025,
		Status:    "active",
	})
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].Email != "beena@example.com" {
		t.Errorf("filtered roster = %v (total %d), want only beena", got, total)
	}

	// Inactive filter
	_, total, err = svc.ListStudents(context.Background(), university.ID, RosterFilter{
		Status: "inactive",
	})
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if total != 1 {
		t.Errorf("inactive total = %d, want 1", total)
	}

	// Case-insensitive text match on name or email
	got, _, err = svc.ListStudents(context.Background(), university.ID, RosterFilter{
		Query: "DEEPA",
	})
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Deepa Menon" {
		t.Errorf("query match = %v, want Deepa", got)
	}

	// Unknown status is rejected
	_, _, err = svc.ListStudents(context.Background(), university.ID, RosterFilter{Status: "archived"})
	if !apperr.IsValidation(err) {
		t.Errorf("bad status error = %v, want validation", err)
	}
}

func TestListStudentsPagination(t *testing.T) {
	db := newTestDB(t)
	university, branch, _, _, _ := seedCatalog(t, db)

	year := 2025
	id := branch.ID
	for i := 0; i < 5; i++ {
		s := model.Student{
			Name:         "Student " + string(rune('A'+i)),
			Email:        "s" + string(rune('a'+i)) + "@example.com",
			PasswordHash: "x",
			UniversityID: university.ID,
			BranchID:     &id,
			BatchYear:    &year,
			IsActive:     true,
		}
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed student: %v", err)
		}
	}

	svc := NewRosterService(db)
	page1, total, err := svc.ListStudents(context.Background(), university.ID, RosterFilter{Page: 1, Limit: 3})
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if total != 6 { // 5 + seeded
		t.Errorf("total = %d, want 6", total)
	}
	if len(page1) != 3 {
		t.Errorf("page 1 size = %d, want 3", len(page1))
	}

	page2, _, err := svc.ListStudents(context.Background(), university.ID, RosterFilter{Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("ListStudents page 2: %v", err)
	}
	if len(page2) != 3 {
		t.Errorf("page 2 size = %d, want 3", len(page2))
	}
	if page1[0].ID == page2[0].ID {
		t.Error("pages overlap")
	}
}

func TestSetActiveIsNonDestructive(t *testing.T) {
	db := newTestDB(t)
	university, _, _, _, student := seedCatalog(t, db)

	svc := NewRosterService(db)
	updated, err := svc.SetActive(context.Background(), university.ID, student.ID, false)
	if err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if updated.IsActive {
		t.Error("student should be inactive")
	}

	// Chats and history survive deactivation
	if got := countRows(t, db, &model.Chat{}); got != 1 {
		t.Errorf("chats after deactivation = %d, want 1", got)
	}
	if got := countRows(t, db, &model.ChatMessage{}); got != 2 {
		t.Errorf("messages after deactivation = %d, want 2", got)
	}

	// Reactivation restores sign-in
	updated, err = svc.SetActive(context.Background(), university.ID, student.ID, true)
	if err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if !updated.IsActive {
		t.Error("student should be active again")
	}
}

func TestDeleteStudentCascadesOwnChats(t *testing.T) {
	db := newTestDB(t)
	university, _, _, subject, student := seedCatalog(t, db)

	// Another student's chat must survive
	other := model.Student{Name: "Other", Email: "other@example.com", PasswordHash: "x",
		UniversityID: university.ID, IsActive: true}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed other student: %v", err)
	}
	subjectID := subject.ID
	otherChat := model.Chat{StudentID: other.ID, SubjectID: &subjectID, Title: "Other chat"}
	if err := db.Create(&otherChat).Error; err != nil {
		t.Fatalf("seed other chat: %v", err)
	}

	svc := NewRosterService(db)
	if err := svc.DeleteStudent(context.Background(), university.ID, student.ID); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}

	var gone model.Student
	if err := db.First(&gone, student.ID).Error; err == nil {
		t.Error("student should be deleted")
	}
	if got := countRows(t, db, &model.Chat{}); got != 1 {
		t.Errorf("chats remaining = %d, want only the other student's", got)
	}
	if got := countRows(t, db, &model.ChatMessage{}); got != 0 {
		t.Errorf("deleted student's messages remaining = %d, want 0", got)
	}

	// Deleting again reports not found
	if err := svc.DeleteStudent(context.Background(), university.ID, student.ID); !apperr.IsNotFound(err) {
		t.Errorf("second delete error = %v, want not found", err)
	}
}
