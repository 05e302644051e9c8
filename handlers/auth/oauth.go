package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/opencampus/campus-api/services"
	"github.com/opencampus/campus-api/utils/cache"
	"github.com/opencampus/campus-api/utils/crypto"
	"github.com/opencampus/campus-api/utils/response"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateKeyPrefix = "oauth:state:"
	oauthStateTTL       = 10 * time.Minute
	googleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// OAuthHandler drives the Google sign-in flow. The state parameter is stored
// in Redis with a short TTL and consumed exactly once on callback.
type OAuthHandler struct {
	authService *services.AuthService
	authHandler *AuthHandler
	stateCache  *cache.RedisCache
	config      *oauth2.Config
}

// NewOAuthHandler creates a new Google OAuth handler
func NewOAuthHandler(
	authService *services.AuthService,
	authHandler *AuthHandler,
	stateCache *cache.RedisCache,
	clientID, clientSecret, baseURL string,
) *OAuthHandler {
	return &OAuthHandler{
		authService: authService,
		authHandler: authHandler,
		stateCache:  stateCache,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  baseURL + "/auth/google/callback",
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// IsConfigured returns true if Google OAuth credentials are set.
func (h *OAuthHandler) IsConfigured() bool {
	return h.config.ClientID != "" && h.config.ClientSecret != ""
}

// BeginLogin redirects the browser to Google's consent screen.
func (h *OAuthHandler) BeginLogin(c *fiber.Ctx) error {
	if !h.IsConfigured() {
		return response.ServiceUnavailable(c, "Google sign-in is not configured")
	}

	state, err := crypto.RandomStateToken()
	if err != nil {
		return response.InternalServerError(c, "Failed to start sign-in")
	}
	if err := h.stateCache.Set(c.Context(), oauthStateKeyPrefix+state, "1", oauthStateTTL); err != nil {
		return response.InternalServerError(c, "Failed to start sign-in")
	}

	return c.Redirect(h.config.AuthCodeURL(state, oauth2.AccessTypeOffline), fiber.StatusTemporaryRedirect)
}

// Callback exchanges the authorization code, fetches the Google profile and
// resolves it to a session. A previously unseen email provisions a fresh
// institution with its owner account.
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	if errParam := c.Query("error"); errParam != "" {
		return response.Unauthorized(c, "Google sign-in was denied")
	}

	state := c.Query("state")
	if state == "" {
		return response.BadRequest(c, "Missing state parameter")
	}
	if err := h.consumeState(c.Context(), state); err != nil {
		return response.Unauthorized(c, "Invalid or expired sign-in state")
	}

	code := c.Query("code")
	if code == "" {
		return response.BadRequest(c, "Missing authorization code")
	}

	token, err := h.config.Exchange(c.Context(), code)
	if err != nil {
		return response.Unauthorized(c, "Failed to exchange authorization code")
	}

	profile, err := fetchGoogleProfile(c.Context(), token)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch Google profile")
	}

	user, institution, err := h.authService.OAuthLogin(c.Context(), services.OAuthProfile{
		Email:  profile.Email,
		Name:   profile.Name,
		Avatar: profile.Picture,
	})
	if err != nil {
		return response.Unauthorized(c, "Invalid credentials")
	}

	res, err := h.authHandler.issueTokens(user, institution)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}
	return response.Success(c, res)
}

// consumeState validates the state token and deletes it so a replayed
// callback fails.
func (h *OAuthHandler) consumeState(ctx context.Context, state string) error {
	key := oauthStateKeyPrefix + state
	if _, err := h.stateCache.Get(ctx, key); err != nil {
		return fmt.Errorf("unknown oauth state: %w", err)
	}
	return h.stateCache.Delete(ctx, key)
}

type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &profile, nil
}
