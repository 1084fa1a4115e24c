package auth

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/auth"
	"github.com/campusmind/console-api/utils/middleware"
	"github.com/campusmind/console-api/utils/response"
	"github.com/campusmind/console-api/utils/validation"
)

// AuthHandler handles sign-in, sign-out and token refresh for all three
// principal types
type AuthHandler struct {
	db         *gorm.DB
	validator  *validation.Validator
	jwtManager *auth.JWTManager
	blacklist  *auth.BlacklistService
	bruteForce *middleware.BruteForceProtection
}

// NewAuthHandler creates a new auth handler. bruteForce may be nil when
// Redis is not configured.
func NewAuthHandler(db *gorm.DB, jwtManager *auth.JWTManager, bruteForce *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		db:         db,
		validator:  validation.NewValidator(),
		jwtManager: jwtManager,
		blacklist:  auth.NewBlacklistService(db),
		bruteForce: bruteForce,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the request body for token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type principalInfo struct {
	id           uint
	name         string
	email        string
	role         string
	universityID uint
	passwordHash string
	isActive     bool
}

// Login handles POST /api/v1/auth/login. The email decides the principal
// type: emails are unique across master admins, university admins and
// students.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	principal, found := h.findPrincipal(req.Email)
	if !found {
		h.recordFailure(c)
		return response.Unauthorized(c, "Invalid email or password")
	}
	if !principal.isActive {
		h.recordFailure(c)
		return response.Unauthorized(c, "Account is deactivated")
	}

	if err := auth.VerifyPassword(principal.passwordHash, req.Password); err != nil {
		h.recordFailure(c)
		return response.Unauthorized(c, "Invalid email or password")
	}

	accessToken, _, err := h.jwtManager.GenerateAccessToken(
		principal.id, principal.email, principal.role, principal.universityID)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate token")
	}

	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(
		principal.id, principal.email, principal.role, principal.universityID)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate token")
	}

	if h.bruteForce != nil {
		h.bruteForce.RecordSuccessfulAttempt(c, c.IP())
	}

	return response.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"role":          principal.role,
		"principal": fiber.Map{
			"id":            principal.id,
			"name":          principal.name,
			"email":         principal.email,
			"university_id": principal.universityID,
		},
	})
}

// Logout handles POST /api/v1/auth/logout. The access token's JTI lands on
// the blacklist until its natural expiry.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "")
	}
	jti, _ := middleware.GetTokenJTI(c)

	if err := h.blacklist.RevokeToken(c.Context(), jti, claims.PrincipalID,
		claims.Role, claims.ExpiresAt.Time, "logout"); err != nil {
		return response.InternalServerError(c, "Failed to revoke token")
	}

	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid refresh token")
	}
	if claims.TokenType != "refresh" {
		return response.Unauthorized(c, "Invalid token type")
	}

	revoked, err := h.blacklist.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if revoked {
		return response.Unauthorized(c, "Refresh token has been revoked")
	}

	accessToken, _, err := h.jwtManager.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Failed to refresh token")
	}

	return response.Success(c, fiber.Map{
		"access_token": accessToken,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	return response.Success(c, fiber.Map{
		"id":            claims.PrincipalID,
		"email":         claims.Email,
		"role":          claims.Role,
		"university_id": claims.UniversityID,
	})
}

// ChangePassword handles POST /api/v1/auth/change-password. Any signed-in
// principal can rotate their own password, including students replacing the
// generated one from their credential mail.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	table, currentHash, err := h.principalTable(claims.Role, claims.PrincipalID)
	if err != nil {
		return response.Unauthorized(c, "Account not found")
	}

	if err := auth.VerifyPassword(currentHash, req.CurrentPassword); err != nil {
		return response.Unauthorized(c, "Current password is incorrect")
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to hash password")
	}

	if err := h.db.Model(table).Where("id = ?", claims.PrincipalID).
		Update("password_hash", newHash).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	return response.SuccessWithMessage(c, "Password changed successfully", nil)
}

// principalTable maps a role to its table and loads the stored hash
func (h *AuthHandler) principalTable(role string, id uint) (interface{}, string, error) {
	switch role {
	case model.RoleMasterAdmin:
		var master model.MasterAdmin
		if err := h.db.First(&master, id).Error; err != nil {
			return nil, "", err
		}
		return &model.MasterAdmin{}, master.PasswordHash, nil
	case model.RoleUniversityAdmin:
		var admin model.UniversityAdmin
		if err := h.db.First(&admin, id).Error; err != nil {
			return nil, "", err
		}
		return &model.UniversityAdmin{}, admin.PasswordHash, nil
	default:
		var student model.Student
		if err := h.db.First(&student, id).Error; err != nil {
			return nil, "", err
		}
		return &model.Student{}, student.PasswordHash, nil
	}
}

// findPrincipal resolves an email to a principal, checking the three
// principal tables in privilege order
func (h *AuthHandler) findPrincipal(email string) (*principalInfo, bool) {
	var master model.MasterAdmin
	if err := h.db.Where("email = ?", email).First(&master).Error; err == nil {
		return &principalInfo{
			id: master.ID, name: master.Name, email: master.Email,
			role: model.RoleMasterAdmin, passwordHash: master.PasswordHash,
			isActive: master.IsActive,
		}, true
	}

	var admin model.UniversityAdmin
	if err := h.db.Where("email = ?", email).First(&admin).Error; err == nil {
		return &principalInfo{
			id: admin.ID, name: admin.Name, email: admin.Email,
			role: model.RoleUniversityAdmin, universityID: admin.UniversityID,
			passwordHash: admin.PasswordHash, isActive: admin.IsActive,
		}, true
	}

	var student model.Student
	if err := h.db.Where("email = ?", email).First(&student).Error; err == nil {
		return &principalInfo{
			id: student.ID, name: student.Name, email: student.Email,
			role: model.RoleStudent, universityID: student.UniversityID,
			passwordHash: student.PasswordHash, isActive: student.IsActive,
		}, true
	}

	return nil, false
}

func (h *AuthHandler) recordFailure(c *fiber.Ctx) {
	if h.bruteForce != nil {
		h.bruteForce.RecordFailedAttempt(c, c.IP())
	}
}
