package branch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campusmind/console-api/database"
	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/services"
)

// newTestApp mounts the branch routes behind a stub auth context
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, model.University) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	university := model.University{Name: "Test University", IsActive: true}
	if err := db.Create(&university).Error; err != nil {
		t.Fatalf("seed university: %v", err)
	}

	handler := NewBranchHandler(db, services.NewCatalogService(db, nil))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("principal_id", uint(1))
		c.Locals("university_id", university.ID)
		c.Locals("principal_role", model.RoleUniversityAdmin)
		return c.Next()
	})
	app.Get("/branches", handler.ListBranches)
	app.Post("/branches", handler.CreateBranch)
	app.Delete("/branches/:id", handler.DeleteBranch)

	return app, db, university
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestCreateAndListBranches(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := postJSON(t, app, "/branches", fiber.Map{"name": "Computer Science"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	// Duplicate name is a conflict
	resp = postJSON(t, app, "/branches", fiber.Map{"name": "computer science"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, "/branches", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Success bool           `json:"success"`
		Data    []model.Branch `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if !body.Success || len(body.Data) != 1 {
		t.Errorf("list body = %+v, want one branch", body)
	}
}

func TestCreateBranchValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := postJSON(t, app, "/branches", fiber.Map{"name": ""})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("blank name status = %d, want 422", resp.StatusCode)
	}
}

func TestDeleteBranchOverHTTP(t *testing.T) {
	app, db, university := newTestApp(t)

	branch := model.Branch{UniversityID: university.ID, Name: "CSE"}
	if err := db.Create(&branch).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}
	semester := model.Semester{BranchID: branch.ID, SemesterNumber: 1, Name: "Semester 1"}
	if err := db.Create(&semester).Error; err != nil {
		t.Fatalf("seed semester: %v", err)
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("/branches/%d", branch.ID), nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}

	var count int64
	db.Model(&model.Semester{}).Count(&count)
	if count != 0 {
		t.Errorf("semesters remaining = %d, want 0", count)
	}

	// Deleting a missing branch is a 404
	req, _ = http.NewRequest(http.MethodDelete, fmt.Sprintf("/branches/%d", branch.ID), nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing delete status = %d, want 404", resp.StatusCode)
	}
}
