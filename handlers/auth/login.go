package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/opencampus/campus-api/services"
	"github.com/opencampus/campus-api/utils/response"
)

// LoginRequest is the strategy-router shape. Mode selects the strategy;
// password is the default when omitted.
type LoginRequest struct {
	Mode            string `json:"mode,omitempty"` // password (default) or phone_otp
	InstitutionSlug string `json:"institution_slug,omitempty"`
	Scope           string `json:"scope,omitempty"` // TEACHER, STUDENT, PARENT; empty means admin tier
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Password        string `json:"password,omitempty"`
	Phone           string `json:"phone,omitempty"`
	OTPCode         string `json:"otp_code,omitempty"`
	OTPChallengeID  string `json:"otp_challenge_id,omitempty"`
}

// Login routes the request to the matching authentication strategy. Every
// failed precondition produces the same 401 so callers cannot probe which
// one failed.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	mode := req.Mode
	if mode == "" {
		// OTP fields present without an explicit mode still select the
		// phone strategy.
		if req.OTPCode != "" && req.OTPChallengeID != "" {
			mode = services.LoginModePhoneOTP
		} else {
			mode = services.LoginModePassword
		}
	}

	ip := c.IP()

	switch mode {
	case services.LoginModePassword:
		user, institution, err := h.authService.PasswordLogin(c.Context(), services.PasswordLoginInput{
			InstitutionSlug: req.InstitutionSlug,
			Scope:           req.Scope,
			Email:           req.Email,
			Password:        req.Password,
		})
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				if h.bruteForceProtection != nil {
					h.bruteForceProtection.RecordFailedAttempt(c, ip, req.Email)
				}
				return response.Unauthorized(c, "Invalid credentials")
			}
			return response.InternalServerError(c, "Login failed")
		}
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordSuccessfulAttempt(c, ip)
		}
		res, err := h.issueTokens(user, institution)
		if err != nil {
			return response.InternalServerError(c, "Failed to generate tokens")
		}
		return response.Success(c, res)

	case services.LoginModePhoneOTP:
		user, institution, err := h.authService.PhoneOTPLogin(c.Context(), services.PhoneOTPLoginInput{
			InstitutionSlug: req.InstitutionSlug,
			Scope:           req.Scope,
			Phone:           req.Phone,
			Code:            req.OTPCode,
			ChallengeID:     req.OTPChallengeID,
		})
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				if h.bruteForceProtection != nil {
					h.bruteForceProtection.RecordFailedAttempt(c, ip, req.Phone)
				}
				return response.Unauthorized(c, "Invalid credentials")
			}
			return response.InternalServerError(c, "Login failed")
		}
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordSuccessfulAttempt(c, ip)
		}
		res, err := h.issueTokens(user, institution)
		if err != nil {
			return response.InternalServerError(c, "Failed to generate tokens")
		}
		return response.Success(c, res)

	default:
		return response.BadRequest(c, "Unsupported login mode")
	}
}
