package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/opencampus/campus-api/config"
	"github.com/opencampus/campus-api/database"
	"github.com/opencampus/campus-api/handlers"
	admin_handlers "github.com/opencampus/campus-api/handlers/admin"
	auth_handlers "github.com/opencampus/campus-api/handlers/auth"
	roster_handlers "github.com/opencampus/campus-api/handlers/roster"
	"github.com/opencampus/campus-api/services"
	"github.com/opencampus/campus-api/utils/auth"
	"github.com/opencampus/campus-api/utils/cache"
	"github.com/opencampus/campus-api/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage, getEnv *config.EnvironmentVariable) {
	if getEnv.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "campus-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        getEnv.JWT_SECRET,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	db := store.DB()

	// Redis backs brute force protection, OTP verification and OAuth state.
	redisURL := getEnv.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and OTP login will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Domain services
	registryService := services.NewRegistryService(db)
	auditService := services.NewAuditService(db)
	provisionService := services.NewProvisionService(db)
	accessRequestService := services.NewAccessRequestService(db, registryService, auditService)
	scopeService := services.NewScopeService(db)

	var otpVerifier services.OTPVerifier
	if redisCache != nil {
		otpVerifier = services.NewRedisOTPVerifier(redisCache)
	}

	// The demo fallback is only composed into the service outside production.
	var devLogin services.DevLoginProvider
	if getEnv.DEMO_LOGIN_ENABLED {
		devLogin = services.NewDemoLoginProvider(db, database.DemoInstitutionSlug)
	}

	authService := services.NewAuthService(db, otpVerifier, devLogin)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, authService, accessRequestService)
	adminHandler := admin_handlers.NewAdminHandler(db, accessRequestService, provisionService)
	rosterHandler := roster_handlers.NewRosterHandler(db, scopeService)

	var oauthHandler *auth_handlers.OAuthHandler
	if redisCache != nil {
		oauthHandler = auth_handlers.NewOAuthHandler(
			authService, authHandler, redisCache,
			getEnv.GOOGLE_CLIENT_ID, getEnv.GOOGLE_CLIENT_SECRET, getEnv.OAUTH_BASE_URL,
		)
	}

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error { return handlers.HandleCheckHealth(c, store) })

	// Google OAuth (public, browser-driven)
	if oauthHandler != nil {
		app.Get("/auth/google", oauthHandler.BeginLogin)
		app.Get("/auth/google/callback", oauthHandler.Callback)
	}

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/access-requests", authHandler.SubmitAccessRequest)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/logout-all", authMiddleware.Required(), authHandler.LogoutAll)

	// Roster reads (any authenticated role; visibility is resolved per role)
	roster := api.Group("/roster", authMiddleware.Required())
	roster.Get("/students", rosterHandler.ListVisibleStudents)

	// Admin routes (admin tier only)
	admin := api.Group("/admin", authMiddleware.RequireAdmin())

	admin.Get("/access-requests", adminHandler.ListAccessRequests)
	admin.Post("/access-requests/:id/approve", adminHandler.ApproveAccessRequest)
	admin.Post("/access-requests/:id/reject", adminHandler.RejectAccessRequest)

	admin.Get("/teachers", adminHandler.ListTeachers)
	admin.Post("/teachers", adminHandler.CreateTeacher)
	admin.Get("/students", adminHandler.ListStudents)
	admin.Post("/students", adminHandler.CreateStudent)

	admin.Get("/audit-logs", adminHandler.ListAuditLogs)
	admin.Get("/audit-logs/:id", adminHandler.GetAuditLog)
}
