package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campusmind/console-api/database"
	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/auth"
)

// newTestApp mounts the change-password route behind a stub auth context
// carrying the given claims
func newTestApp(t *testing.T, claims *auth.Claims) (*fiber.App, *gorm.DB) {
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

	jwtManager := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "test"})
	handler := NewAuthHandler(db, jwtManager, nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("claims", claims)
		return c.Next()
	})
	app.Post("/change-password", handler.ChangePassword)

	return app, db
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

func TestChangePassword(t *testing.T) {
	hash, err := auth.HashPassword("generated-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	claims := &auth.Claims{PrincipalID: 1, Role: model.RoleStudent, UniversityID: 1}
	app, db := newTestApp(t, claims)

	university := model.University{Name: "Test University", IsActive: true}
	if err := db.Create(&university).Error; err != nil {
		t.Fatalf("seed university: %v", err)
	}
	student := model.Student{
		Name: "Asha Verma", Email: "asha@example.com",
		PasswordHash: hash, UniversityID: university.ID, IsActive: true,
	}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}

	// Wrong current password is rejected and leaves the hash alone
	resp := postJSON(t, app, "/change-password", fiber.Map{
		"current_password": "not-the-password",
		"new_password":     "my-new-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong current status = %d, want 401", resp.StatusCode)
	}

	// Too-short replacements fail validation
	resp = postJSON(t, app, "/change-password", fiber.Map{
		"current_password": "generated-pass",
		"new_password":     "short",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("short password status = %d, want 422", resp.StatusCode)
	}

	resp = postJSON(t, app, "/change-password", fiber.Map{
		"current_password": "generated-pass",
		"new_password":     "my-new-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change status = %d, want 200", resp.StatusCode)
	}

	var updated model.Student
	if err := db.First(&updated, student.ID).Error; err != nil {
		t.Fatalf("reload student: %v", err)
	}
	if err := auth.VerifyPassword(updated.PasswordHash, "my-new-password"); err != nil {
		t.Errorf("new password should verify: %v", err)
	}
	if err := auth.VerifyPassword(updated.PasswordHash, "generated-pass"); err == nil {
		t.Error("old password should no longer verify")
	}
}

func TestChangePasswordForAdmin(t *testing.T) {
	hash, err := auth.HashPassword("admin-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	claims := &auth.Claims{PrincipalID: 1, Role: model.RoleUniversityAdmin, UniversityID: 1}
	app, db := newTestApp(t, claims)

	university := model.University{Name: "Test University", IsActive: true}
	if err := db.Create(&university).Error; err != nil {
		t.Fatalf("seed university: %v", err)
	}
	admin := model.UniversityAdmin{
		Name: "Ravi Gupta", Email: "ravi@example.com",
		PasswordHash: hash, UniversityID: university.ID, IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	resp := postJSON(t, app, "/change-password", fiber.Map{
		"current_password": "admin-password",
		"new_password":     "rotated-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change status = %d, want 200", resp.StatusCode)
	}

	var updated model.UniversityAdmin
	if err := db.First(&updated, admin.ID).Error; err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if err := auth.VerifyPassword(updated.PasswordHash, "rotated-password"); err != nil {
		t.Errorf("new password should verify: %v", err)
	}
}
