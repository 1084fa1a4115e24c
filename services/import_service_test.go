package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/apperr"
	"github.com/campusmind/console-api/utils/crypto"
)

func TestImportCSVProvisionsAccounts(t *testing.T) {
	db := newTestDB(t)
	university, branch, _, _, _ := seedCatalog(t, db)

	csv := "name,email\n" +
		"Ravi Kumar,ravi@example.com\n" +
		"Meera Iyer,meera@example.com\n"

	svc := NewImportService(db, nil)
	report, err := svc.ImportStudents(context.Background(), university.ID, branch.ID,
		2025, "roster.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportStudents: %v", err)
	}

	if report.Success != 2 {
		t.Errorf("success = %d, want 2", report.Success)
	}
	if len(report.Errors) != 0 {
		t.Errorf("errors = %v, want none", report.Errors)
	}

	// Source-row order is preserved in the report
	if report.Students[0].Email != "ravi@example.com" || report.Students[1].Email != "meera@example.com" {
		t.Errorf("report order = %v, want source-row order", report.Students)
	}

	for _, st := range report.Students {
		if len(st.Password) != crypto.GeneratedPasswordLength {
			t.Errorf("password length = %d, want %d", len(st.Password), crypto.GeneratedPasswordLength)
		}
	}

	var created model.Student
	if err := db.Where("email = ?", "ravi@example.com").First(&created).Error; err != nil {
		t.Fatalf("student not persisted: %v", err)
	}
	if created.PasswordHash == report.Students[0].Password {
		t.Error("plaintext password must not be stored")
	}
	if created.BranchID == nil || *created.BranchID != branch.ID {
		t.Errorf("student branch = %v, want %d", created.BranchID, branch.ID)
	}
	if created.BatchYear == nil || *created.BatchYear != 2025 {
		t.Errorf("student batch year = %v, want 2025", created.BatchYear)
	}
	if !created.IsActive {
		t.Error("imported student should be active")
	}
}

func TestImportIsolatesBadRows(t *testing.T) {
	db := newTestDB(t)
	university, branch, _, _, _ := seedCatalog(t, db)

	csv := "name,email\n" +
		"Good One,good1@example.com\n" +
		",missing-name@example.com\n" +
		"Bad Email,not-an-email\n" +
		"Dup In File,good1@example.com\n" +
		"Existing,asha@example.com\n" + // seeded student email
		"Good Two,good2@example.com\n"

	svc := NewImportService(db, nil)
	report, err := svc.ImportStudents(context.Background(), university.ID, branch.ID,
		2025, "roster.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportStudents: %v", err)
	}

	if report.Success != 2 {
		t.Errorf("success = %d, want 2; errors: %v", report.Success, report.Errors)
	}
	if len(report.Errors) != 4 {
		t.Fatalf("errors = %v, want 4 entries", report.Errors)
	}

	// Errors carry the spreadsheet row number (header is row 1)
	wantPrefixes := []string{"Row 3:", "Row 4:", "Row 5:", "Row 6:"}
	for i, want := range wantPrefixes {
		if !strings.HasPrefix(report.Errors[i], want) {
			t.Errorf("error %d = %q, want prefix %q", i, report.Errors[i], want)
		}
	}

	if got := countRows(t, db, &model.Student{}); got != 3 { // 1 seeded + 2 imported
		t.Errorf("students in db = %d, want 3", got)
	}
}

func TestImportRejectsWholeBatch(t *testing.T) {
	db := newTestDB(t)
	university, branch, _, _, _ := seedCatalog(t, db)
	svc := NewImportService(db, nil)

	cases := []struct {
		name     string
		batch    int
		fileName string
		content  string
	}{
		{"bad batch year", 2019, "roster.csv", "name,email\nA,a@example.com\n"},
		{"unsupported extension", 2025, "roster.txt", "name,email\nA,a@example.com\n"},
		{"missing columns", 2025, "roster.csv", "fullname,contact\nA,a@example.com\n"},
		{"empty file", 2025, "roster.csv", "name,email\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ImportStudents(context.Background(), university.ID, branch.ID,
				tc.batch, tc.fileName, strings.NewReader(tc.content))
			if !apperr.IsValidation(err) {
				t.Fatalf("error = %v, want validation", err)
			}
		})
	}

	if got := countRows(t, db, &model.Student{}); got != 1 { // only the seeded one
		t.Errorf("students in db = %d, want 1", got)
	}
}

func TestImportUnknownBranch(t *testing.T) {
	db := newTestDB(t)
	university, _, _, _, _ := seedCatalog(t, db)

	svc := NewImportService(db, nil)
	_, err := svc.ImportStudents(context.Background(), university.ID, 9999,
		2025, "roster.csv", strings.NewReader("name,email\nA,a@example.com\n"))
	if !apperr.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestImportSingleFlightPerBranchAndYear(t *testing.T) {
	db := newTestDB(t)
	university, branch, _, _, _ := seedCatalog(t, db)

	svc := NewImportService(db, nil)
	key := fmt.Sprintf("import:%d:%d", branch.ID, 2025)
	if !svc.acquire(key) {
		t.Fatal("first acquire should succeed")
	}

	_, err := svc.ImportStudents(context.Background(), university.ID, branch.ID,
		2025, "roster.csv", strings.NewReader("name,email\nA,a@example.com\n"))
	if !apperr.IsConflict(err) {
		t.Fatalf("concurrent import error = %v, want conflict", err)
	}

	// A different batch year is an independent target
	report, err := svc.ImportStudents(context.Background(), university.ID, branch.ID,
		2026, "roster.csv", strings.NewReader("name,email\nB,b@example.com\n"))
	if err != nil {
		t.Fatalf("other-year import: %v", err)
	}
	if report.Success != 1 {
		t.Errorf("other-year success = %d, want 1", report.Success)
	}
}

func TestImportXLSXRoster(t *testing.T) {
	db := newTestDB(t)
	university, branch, _, _, _ := seedCatalog(t, db)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Name", "Email"},
		{"Sana Shaikh", "sana@example.com"},
		{"Vikram Rao", "vikram@example.com"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("build xlsx: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	svc := NewImportService(db, nil)
	report, err := svc.ImportStudents(context.Background(), university.ID, branch.ID,
		2025, "roster.xlsx", &buf)
	if err != nil {
		t.Fatalf("ImportStudents: %v", err)
	}
	if report.Success != 2 {
		t.Errorf("success = %d, want 2; errors: %v", report.Success, report.Errors)
	}
	if report.Students[0].Name != "Sana Shaikh" {
		t.Errorf("first student = %q, want source order", report.Students[0].Name)
	}
}

func TestImportHeaderAliases(t *testing.T) {
	db := newTestDB(t)
	university, branch, _, _, _ := seedCatalog(t, db)

	csv := "Student Name,Email Address\nPriya Nair,priya@example.com\n"

	svc := NewImportService(db, nil)
	report, err := svc.ImportStudents(context.Background(), university.ID, branch.ID,
		2025, "roster.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportStudents: %v", err)
	}
	if report.Success != 1 {
		t.Errorf("success = %d, want 1; errors: %v", report.Success, report.Errors)
	}
}

func TestImportNormalizesEmailCase(t *testing.T) {
	db := newTestDB(t)
	university, branch, _, _, _ := seedCatalog(t, db)

	csv := "name,email\nRohit Jain,ROHIT@Example.COM\n"

	svc := NewImportService(db, nil)
	report, err := svc.ImportStudents(context.Background(), university.ID, branch.ID,
		2025, "roster.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportStudents: %v", err)
	}
	if report.Success != 1 {
		t.Fatalf("success = %d, want 1; errors: %v", report.Success, report.Errors)
	}
	if report.Students[0].Email != "rohit@example.com" {
		t.Errorf("email = %q, want lowercased", report.Students[0].Email)
	}
}
