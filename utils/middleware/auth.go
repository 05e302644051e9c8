package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/auth"
	"github.com/opencampus/campus-api/utils/response"
	"gorm.io/gorm"
)

// AuthMiddleware is the session boundary: it validates the JWT, checks
// revocation and token version, loads the user and attaches a fully resolved
// Principal to the request. Requests whose principal lacks an institution or
// role never reach a handler.
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

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, claims, user, errMsg := m.authenticate(c)
		if errMsg != "" {
			return response.Unauthorized(c, errMsg)
		}

		storeSession(c, principal, claims, user)
		return c.Next()
	}
}

// Optional is middleware that allows requests with or without a token
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, claims, user, errMsg := m.authenticate(c)
		if errMsg == "" {
			storeSession(c, principal, claims, user)
		}
		return c.Next()
	}
}

// RequireRole requires one of the given roles on top of Required
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := GetPrincipal(c)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}
		for _, r := range roles {
			if principal.Role == r {
				return c.Next()
			}
		}
		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireAdmin validates the token inline and requires an admin-tier role
// (super_admin, admin, principal or staff).
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, claims, user, errMsg := m.authenticate(c)
		if errMsg != "" {
			return response.Unauthorized(c, errMsg)
		}
		if !model.IsAdminTier(principal.Role) {
			return response.Forbidden(c, "Admin access required")
		}

		storeSession(c, principal, claims, user)
		return c.Next()
	}
}

// authenticate performs the full token-to-principal resolution. A non-empty
// message means the request must be rejected with 401.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (auth.Principal, *auth.Claims, *model.User, string) {
	var none auth.Principal

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return none, nil, nil, "Missing authorization token"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return none, nil, nil, "Invalid authorization format"
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if err == auth.ErrExpiredToken {
			return none, nil, nil, "Token has expired"
		}
		return none, nil, nil, "Invalid token"
	}
	if claims.TokenType != "access" {
		return none, nil, nil, "Invalid token type"
	}

	isRevoked, err := m.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return none, nil, nil, "Failed to check token status"
	}
	if isRevoked {
		return none, nil, nil, "Token has been revoked"
	}

	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return none, nil, nil, "User not found"
		}
		return none, nil, nil, "Failed to load user"
	}
	if !user.Active || user.ApprovalStatus != model.ApprovalApproved {
		return none, nil, nil, "Account is not active"
	}
	if user.TokenVersion != claims.TokenVersion {
		return none, nil, nil, "Token has been invalidated"
	}

	principal := claims.Principal()

	// Tokens minted before the user's tenant assignment carry no institution.
	// Re-resolve from the user record rather than trusting a stale claim.
	if principal.InstitutionID == 0 || principal.InstitutionID != user.InstitutionID {
		var institution model.Institution
		if err := m.db.First(&institution, user.InstitutionID).Error; err != nil {
			return none, nil, nil, "Failed to resolve institution"
		}
		principal.InstitutionID = institution.ID
		principal.InstitutionName = institution.Name
		principal.InstitutionSlug = institution.Slug
	}
	principal.Role = user.Role
	principal.Email = user.Email
	principal.Phone = user.Phone

	if !principal.Valid() {
		return none, nil, nil, "Invalid session"
	}

	return principal, claims, &user, ""
}

func storeSession(c *fiber.Ctx, principal auth.Principal, claims *auth.Claims, user *model.User) {
	c.Locals("principal", principal)
	c.Locals("claims", claims)
	c.Locals("user", user)
	c.Locals("token_jti", claims.ID)
}

// GetPrincipal extracts the resolved principal from context
func GetPrincipal(c *fiber.Ctx) (auth.Principal, bool) {
	principal := c.Locals("principal")
	if principal == nil {
		return auth.Principal{}, false
	}
	p, ok := principal.(auth.Principal)
	return p, ok
}

// GetCurrentUser extracts the full user object from context
func GetCurrentUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
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
