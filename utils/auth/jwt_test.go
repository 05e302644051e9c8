package auth

import (
	"testing"
	"time"
)

func testManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "campus-api-test",
	})
}

func testPrincipal() Principal {
	return Principal{
		UserID:          42,
		Email:           "t@example.edu",
		Phone:           "01712345678",
		Role:            "teacher",
		InstitutionID:   7,
		InstitutionName: "Demo School",
		InstitutionSlug: "demo-school",
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := testManager()
	p := testPrincipal()

	token, jti, err := m.GenerateAccessToken(p, 3)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if jti == "" {
		t.Fatal("expected non-empty JTI")
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != "access" {
		t.Errorf("token type = %q, want access", claims.TokenType)
	}
	if claims.TokenVersion != 3 {
		t.Errorf("token version = %d, want 3", claims.TokenVersion)
	}
	got := claims.Principal()
	if got != p {
		t.Errorf("principal round-trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := testManager()
	token, _, err := m.GenerateAccessToken(testPrincipal(), 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	other := NewJWTManager(JWTConfig{Secret: "different", Expiry: time.Hour, RefreshExpiry: time.Hour, Issuer: "x"})
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        -time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "campus-api-test",
	})
	token, _, err := m.GenerateAccessToken(testPrincipal(), 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := m.ValidateToken(token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestRefreshAccessToken(t *testing.T) {
	m := testManager()
	p := testPrincipal()

	refresh, _, err := m.GenerateRefreshToken(p, 1)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	access, _, err := m.RefreshAccessToken(refresh, 1)
	if err != nil {
		t.Fatalf("RefreshAccessToken: %v", err)
	}
	claims, err := m.ValidateToken(access)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != "access" {
		t.Errorf("token type = %q, want access", claims.TokenType)
	}
	if claims.InstitutionSlug != p.InstitutionSlug {
		t.Errorf("institution slug lost across refresh: %q", claims.InstitutionSlug)
	}
}

func TestRefreshWithAccessTokenRejected(t *testing.T) {
	m := testManager()
	access, _, err := m.GenerateAccessToken(testPrincipal(), 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, _, err := m.RefreshAccessToken(access, 0); err == nil {
		t.Fatal("expected refresh with an access token to fail")
	}
}

func TestPrincipalValid(t *testing.T) {
	if !testPrincipal().Valid() {
		t.Error("expected full principal to be valid")
	}
	if (Principal{UserID: 1, Role: "teacher"}).Valid() {
		t.Error("principal without institution must be invalid")
	}
	if (Principal{UserID: 1, InstitutionID: 2}).Valid() {
		t.Error("principal without role must be invalid")
	}
}
