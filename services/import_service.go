package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/apperr"
	"github.com/campusmind/console-api/utils/auth"
	"github.com/campusmind/console-api/utils/crypto"
	"github.com/campusmind/console-api/utils/validation"
)

// importRow is one parsed data row; Line is the spreadsheet row number
// (header is row 1), used to correlate errors back to the source file.
type importRow struct {
	Name  string
	Email string
	Line  int
}

// ImportedStudent is one provisioned account in the report. The generated
// password appears here once and is never retrievable again.
type ImportedStudent struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ImportReport summarizes a partially successful import. Students are listed
// in source-row order.
type ImportReport struct {
	Success  int               `json:"success"`
	Errors   []string          `json:"errors"`
	Students []ImportedStudent `json:"students"`
}

// ImportService provisions student accounts in bulk from CSV/XLSX rosters.
// Whole-batch problems (bad file, bad batch year, missing branch) reject the
// import outright; per-row problems only skip the offending rows.
type ImportService struct {
	db    *gorm.DB
	email *EmailService

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewImportService(db *gorm.DB, email *EmailService) *ImportService {
	return &ImportService{
		db:       db,
		email:    email,
		inflight: make(map[string]struct{}),
	}
}

// ImportStudents runs the full pipeline: parse, validate, provision, report.
// Only one import per (branch, batch year) runs at a time.
func (s *ImportService) ImportStudents(ctx context.Context, universityID, branchID uint, batchYear int, fileName string, file io.Reader) (*ImportReport, error) {
	if !validation.ValidateBatchYear(batchYear) {
		return nil, apperr.Validationf("batch year must be between %d and %d",
			validation.MinBatchYear, validation.MaxBatchYear)
	}

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

	rows, err := parseRoster(fileName, file)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.Validationf("file contains no student rows")
	}

	key := fmt.Sprintf("import:%d:%d", branchID, batchYear)
	if !s.acquire(key) {
		return nil, apperr.Conflictf("an import for this branch and batch year is already in progress")
	}
	defer s.release(key)

	report := &ImportReport{
		Errors:   []string{},
		Students: []ImportedStudent{},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.registeredEmails(tx, rows)
		if err != nil {
			return err
		}

		seen := make(map[string]bool)
		for _, row := range rows {
			name := strings.TrimSpace(row.Name)
			email := strings.ToLower(strings.TrimSpace(row.Email))

			if name == "" {
				report.Errors = append(report.Errors, fmt.Sprintf("Row %d: name is required", row.Line))
				continue
			}
			if email == "" {
				report.Errors = append(report.Errors, fmt.Sprintf("Row %d: email is required", row.Line))
				continue
			}
			if !validation.ValidateEmail(email) {
				report.Errors = append(report.Errors, fmt.Sprintf("Row %d: invalid email address %q", row.Line, email))
				continue
			}
			if seen[email] {
				report.Errors = append(report.Errors, fmt.Sprintf("Row %d: %s appears more than once in the file", row.Line, email))
				continue
			}
			if existing[email] {
				report.Errors = append(report.Errors, fmt.Sprintf("Row %d: %s is already registered", row.Line, email))
				continue
			}
			seen[email] = true

			password, err := crypto.GeneratePassword(crypto.GeneratedPasswordLength)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			year := batchYear
			bid := branchID
			student := model.Student{
				Name:         name,
				Email:        email,
				PasswordHash: hash,
				UniversityID: universityID,
				BranchID:     &bid,
				BatchYear:    &year,
				IsActive:     true,
			}
			if err := tx.Create(&student).Error; err != nil {
				return err
			}

			report.Students = append(report.Students, ImportedStudent{
				Name:     name,
				Email:    email,
				Password: password,
			})
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Unavailable("failed to provision students", err)
	}

	report.Success = len(report.Students)

	// Credential mails go out after the commit; a mail failure never undoes
	// an account, it only adds a warning to the report.
	if s.email != nil && s.email.IsConfigured() {
		report.Errors = append(report.Errors, s.sendCredentialMails(universityID, report.Students)...)
	}

	return report, nil
}

// registeredEmails collects roster emails that already belong to a principal
// of any role.
func (s *ImportService) registeredEmails(tx *gorm.DB, rows []importRow) (map[string]bool, error) {
	emails := make([]string, 0, len(rows))
	for _, row := range rows {
		email := strings.ToLower(strings.TrimSpace(row.Email))
		if email != "" {
			emails = append(emails, email)
		}
	}

	existing := make(map[string]bool)
	if len(emails) == 0 {
		return existing, nil
	}

	var found []string
	if err := tx.Model(&model.Student{}).Where("email IN ?", emails).
		Pluck("email", &found).Error; err != nil {
		return nil, err
	}
	for _, e := range found {
		existing[strings.ToLower(e)] = true
	}

	found = found[:0]
	if err := tx.Model(&model.UniversityAdmin{}).Where("email IN ?", emails).
		Pluck("email", &found).Error; err != nil {
		return nil, err
	}
	for _, e := range found {
		existing[strings.ToLower(e)] = true
	}

	found = found[:0]
	if err := tx.Model(&model.MasterAdmin{}).Where("email IN ?", emails).
		Pluck("email", &found).Error; err != nil {
		return nil, err
	}
	for _, e := range found {
		existing[strings.ToLower(e)] = true
	}

	return existing, nil
}

func (s *ImportService) sendCredentialMails(universityID uint, students []ImportedStudent) []string {
	var university model.University
	universityName := "your university"
	if err := s.db.First(&university, universityID).Error; err == nil {
		universityName = university.Name
	}

	var warnings []string
	for _, st := range students {
		if err := s.email.SendCredentials(st.Email, st.Name, universityName, st.Password); err != nil {
			log.Printf("Failed to send credential mail to %s: %v", st.Email, err)
			warnings = append(warnings, fmt.Sprintf("Warning: failed to email credentials to %s", st.Email))
		}
	}
	return warnings
}

func (s *ImportService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *ImportService) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

// --- Roster parsing ---

// parseRoster dispatches on the file extension. Anything that stops the whole
// file from being read is a validation error rejecting the batch.
func parseRoster(fileName string, file io.Reader) ([]importRow, error) {
	lower := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return parseCSVRoster(file)
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return parseXLSXRoster(file)
	}
	return nil, apperr.Validationf("unsupported file type: only .csv, .xlsx and .xls files are accepted")
}

func parseCSVRoster(file io.Reader) ([]importRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Validationf("failed to parse CSV file: %v", err)
	}
	return rowsFromRecords(records)
}

func parseXLSXRoster(file io.Reader) ([]importRow, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, apperr.Validationf("failed to parse spreadsheet: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validationf("spreadsheet contains no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Validationf("failed to read spreadsheet rows: %v", err)
	}
	return rowsFromRecords(records)
}

// rowsFromRecords discovers the name/email columns from the header row and
// extracts the data rows, preserving source order.
func rowsFromRecords(records [][]string) ([]importRow, error) {
	if len(records) == 0 {
		return nil, apperr.Validationf("file contains no rows")
	}

	nameCol, emailCol := -1, -1
	for i, header := range records[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case "name", "student name", "full name":
			if nameCol == -1 {
				nameCol = i
			}
		case "email", "email address", "e-mail":
			if emailCol == -1 {
				emailCol = i
			}
		}
	}
	if nameCol == -1 || emailCol == -1 {
		return nil, apperr.Validationf("file must contain 'name' and 'email' columns")
	}

	rows := make([]importRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row := importRow{Line: i + 2}
		if nameCol < len(record) {
			row.Name = record[nameCol]
		}
		if emailCol < len(record) {
			row.Email = record[emailCol]
		}
		if strings.TrimSpace(row.Name) == "" && strings.TrimSpace(row.Email) == "" {
			continue // skip fully blank rows
		}
		rows = append(rows, row)
	}
	return rows, nil
}
