package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	Expiry        time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// Claims represents JWT claims. Institution fields scope every downstream
// query; a token without an institution id must be re-resolved at the session
// boundary before it is trusted.
type Claims struct {
	UserID          uint   `json:"user_id"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Role            string `json:"role"`
	InstitutionID   uint   `json:"institution_id"`
	InstitutionName string `json:"institution_name,omitempty"`
	InstitutionSlug string `json:"institution_slug,omitempty"`
	TokenType       string `json:"token_type"`    // "access" or "refresh"
	TokenVersion    int    `json:"token_version"` // For invalidating all tokens
	jwt.RegisteredClaims
}

// Principal is the authenticated caller attached to each request after the
// session boundary has validated the token. Absence of InstitutionID or Role
// means the request is unauthenticated.
type Principal struct {
	UserID          uint   `json:"user_id"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Role            string `json:"role"`
	InstitutionID   uint   `json:"institution_id"`
	InstitutionName string `json:"institution_name"`
	InstitutionSlug string `json:"institution_slug"`
}

// Valid reports whether the principal carries the fields every scoped query
// depends on.
func (p Principal) Valid() bool {
	return p.UserID != 0 && p.Role != "" && p.InstitutionID != 0
}

// Principal rebuilds the request principal carried by a set of claims.
func (c *Claims) Principal() Principal {
	return Principal{
		UserID:          c.UserID,
		Email:           c.Email,
		Phone:           c.Phone,
		Role:            c.Role,
		InstitutionID:   c.InstitutionID,
		InstitutionName: c.InstitutionName,
		InstitutionSlug: c.InstitutionSlug,
	}
}

// JWTManager handles JWT token operations
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		config: config,
	}
}

// AccessExpiry returns the configured access-token lifetime.
func (j *JWTManager) AccessExpiry() time.Duration {
	return j.config.Expiry
}

// GenerateAccessToken generates a new access token with JTI
func (j *JWTManager) GenerateAccessToken(p Principal, tokenVersion int) (string, string, error) {
	return j.generate(p, tokenVersion, "access", j.config.Expiry)
}

// GenerateRefreshToken generates a new refresh token with JTI
func (j *JWTManager) GenerateRefreshToken(p Principal, tokenVersion int) (string, string, error) {
	return j.generate(p, tokenVersion, "refresh", j.config.RefreshExpiry)
}

func (j *JWTManager) generate(p Principal, tokenVersion int, tokenType string, expiry time.Duration) (string, string, error) {
	now := time.Now()
	jti := uuid.New().String()

	claims := Claims{
		UserID:          p.UserID,
		Email:           p.Email,
		Phone:           p.Phone,
		Role:            p.Role,
		InstitutionID:   p.InstitutionID,
		InstitutionName: p.InstitutionName,
		InstitutionSlug: p.InstitutionSlug,
		TokenType:       tokenType,
		TokenVersion:    tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
			Subject:   p.Email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(j.config.Secret))
	return signedToken, jti, err
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(j.config.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// ExtractClaims extracts claims from token without validation (for debugging)
func (j *JWTManager) ExtractClaims(tokenString string) (*Claims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// RefreshAccessToken generates a new access token from a valid refresh token
func (j *JWTManager) RefreshAccessToken(refreshToken string, tokenVersion int) (string, string, error) {
	claims, err := j.ValidateToken(refreshToken)
	if err != nil {
		return "", "", err
	}

	if claims.TokenType != "refresh" {
		return "", "", ErrInvalidToken
	}

	return j.GenerateAccessToken(claims.Principal(), tokenVersion)
}

// GetTokenExpiry returns the expiry time of a token
func (j *JWTManager) GetTokenExpiry(tokenString string) (time.Time, error) {
	claims, err := j.ExtractClaims(tokenString)
	if err != nil {
		return time.Time{}, err
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry")
	}

	return claims.ExpiresAt.Time, nil
}

// GetJTI extracts the JTI (token ID) from a token
func (j *JWTManager) GetJTI(tokenString string) (string, error) {
	claims, err := j.ExtractClaims(tokenString)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}
