package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/auth"
	"github.com/campusmind/console-api/utils/response"
)

// AuthMiddleware handles JWT authentication for all three principal types
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// authenticate validates the bearer token and loads the principal into the
// request context. On failure it writes the error response itself and
// returns ok=false; callers must stop without calling Next.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*auth.Claims, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		response.Unauthorized(c, "Missing authorization token")
		return nil, false
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		response.Unauthorized(c, "Invalid authorization format")
		return nil, false
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if err == auth.ErrExpiredToken {
			response.Unauthorized(c, "Token has expired")
		} else {
			response.Unauthorized(c, "Invalid token")
		}
		return nil, false
	}

	if claims.TokenType != "access" {
		response.Unauthorized(c, "Invalid token type")
		return nil, false
	}

	// Check if token is revoked (blacklisted)
	isRevoked, err := m.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		response.InternalServerError(c, "Failed to check token status")
		return nil, false
	}
	if isRevoked {
		response.Unauthorized(c, "Token has been revoked")
		return nil, false
	}

	// Verify the principal still exists and is active
	switch claims.Role {
	case model.RoleMasterAdmin:
		var admin model.MasterAdmin
		if err := m.db.First(&admin, claims.PrincipalID).Error; err != nil || !admin.IsActive {
			response.Unauthorized(c, "Account not found or inactive")
			return nil, false
		}
	case model.RoleUniversityAdmin:
		var admin model.UniversityAdmin
		if err := m.db.First(&admin, claims.PrincipalID).Error; err != nil || !admin.IsActive {
			response.Unauthorized(c, "Account not found or inactive")
			return nil, false
		}
	case model.RoleStudent:
		var student model.Student
		if err := m.db.First(&student, claims.PrincipalID).Error; err != nil || !student.IsActive {
			response.Unauthorized(c, "Account not found or inactive")
			return nil, false
		}
	default:
		response.Unauthorized(c, "Unknown role")
		return nil, false
	}

	c.Locals("principal_id", claims.PrincipalID)
	c.Locals("principal_email", claims.Email)
	c.Locals("principal_role", claims.Role)
	c.Locals("university_id", claims.UniversityID)
	c.Locals("claims", claims)
	c.Locals("token_jti", claims.ID)

	return claims, true
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := m.authenticate(c); !ok {
			return nil
		}
		return c.Next()
	}
}

// RequireMaster requires a master admin token
func (m *AuthMiddleware) RequireMaster() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := m.authenticate(c)
		if !ok {
			return nil
		}
		if claims.Role != model.RoleMasterAdmin {
			return response.Forbidden(c, "Master admin access required")
		}
		return c.Next()
	}
}

// RequireUniversityAdmin requires a university admin token bound to a university
func (m *AuthMiddleware) RequireUniversityAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := m.authenticate(c)
		if !ok {
			return nil
		}
		if claims.Role != model.RoleUniversityAdmin {
			return response.Forbidden(c, "University admin access required")
		}
		if claims.UniversityID == 0 {
			return response.BadRequest(c, "University admin is not assigned to any university")
		}
		return c.Next()
	}
}

// RequireStudent requires a student token
func (m *AuthMiddleware) RequireStudent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := m.authenticate(c)
		if !ok {
			return nil
		}
		if claims.Role != model.RoleStudent {
			return response.Forbidden(c, "Student access required")
		}
		return c.Next()
	}
}

// GetPrincipalID extracts the authenticated principal id from context
func GetPrincipalID(c *fiber.Ctx) (uint, bool) {
	id := c.Locals("principal_id")
	if id == nil {
		return 0, false
	}
	v, ok := id.(uint)
	return v, ok
}

// GetUniversityID extracts the university scope from context. For master
// admins this is 0 (no scope).
func GetUniversityID(c *fiber.Ctx) (uint, bool) {
	id := c.Locals("university_id")
	if id == nil {
		return 0, false
	}
	v, ok := id.(uint)
	return v, ok
}

// GetRole extracts the principal role from context
func GetRole(c *fiber.Ctx) (string, bool) {
	role := c.Locals("principal_role")
	if role == nil {
		return "", false
	}
	r, ok := role.(string)
	return r, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims := c.Locals("claims")
	if claims == nil {
		return nil, false
	}
	claimsData, ok := claims.(*auth.Claims)
	return claimsData, ok
}

// GetTokenJTI extracts the token JTI from context
func GetTokenJTI(c *fiber.Ctx) (string, bool) {
	jti := c.Locals("token_jti")
	if jti == nil {
		return "", false
	}
	j, ok := jti.(string)
	return j, ok
}
