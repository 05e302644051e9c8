package auth

import (
	"time"

	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/services"
	authutil "github.com/opencampus/campus-api/utils/auth"
	"github.com/opencampus/campus-api/utils/middleware"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	authService          *services.AuthService
	accessRequests       *services.AccessRequestService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	db *gorm.DB,
	jwtManager *authutil.JWTManager,
	bruteForceProtection *middleware.BruteForceProtection,
	authService *services.AuthService,
	accessRequests *services.AccessRequestService,
) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		blacklistService:     authutil.NewBlacklistService(db),
		bruteForceProtection: bruteForceProtection,
		authService:          authService,
		accessRequests:       accessRequests,
	}
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID              uint       `json:"id"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	InstitutionID   uint       `json:"institution_id"`
	InstitutionSlug string     `json:"institution_slug"`
	InstitutionName string     `json:"institution_name"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TokenResponse carries a freshly issued session
type TokenResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func userResponse(user *model.User, institution *model.Institution) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		Phone:           user.Phone,
		Name:            user.Name,
		Role:            user.Role,
		InstitutionID:   institution.ID,
		InstitutionSlug: institution.Slug,
		InstitutionName: institution.Name,
		LastLoginAt:     user.LastLoginAt,
		CreatedAt:       user.CreatedAt,
	}
}

// issueTokens builds the session principal and signs the token pair.
func (h *AuthHandler) issueTokens(user *model.User, institution *model.Institution) (*TokenResponse, error) {
	principal := authutil.Principal{
		UserID:          user.ID,
		Email:           user.Email,
		Phone:           user.Phone,
		Role:            user.Role,
		InstitutionID:   institution.ID,
		InstitutionName: institution.Name,
		InstitutionSlug: institution.Slug,
	}

	accessToken, _, err := h.jwtManager.GenerateAccessToken(principal, user.TokenVersion)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(principal, user.TokenVersion)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		User:         userResponse(user, institution),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.jwtManager.AccessExpiry().Seconds()),
	}, nil
}
