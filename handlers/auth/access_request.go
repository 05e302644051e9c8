package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/opencampus/campus-api/services"
	"github.com/opencampus/campus-api/utils/response"
)

// AccessRequestSubmission is a self-service signup payload
type AccessRequestSubmission struct {
	InstitutionSlug string                 `json:"institution_slug" validate:"required"`
	Scope           string                 `json:"scope" validate:"required"`
	FullName        string                 `json:"full_name" validate:"required,min=2"`
	Email           string                 `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string                 `json:"phone,omitempty"`
	Password        string                 `json:"password" validate:"required,min=8"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// AccessRequestResponse is the submission acknowledgement
type AccessRequestResponse struct {
	ID          uint   `json:"id"`
	Status      string `json:"status"`
	Scope       string `json:"scope"`
	RequestedAt string `json:"requested_at"`
}

// SubmitAccessRequest accepts a self-service signup for administrator review.
// Trust-boundary rejections return specific messages so the caller can
// self-correct.
func (h *AuthHandler) SubmitAccessRequest(c *fiber.Ctx) error {
	var req AccessRequestSubmission
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	request, err := h.accessRequests.Create(c.Context(), services.CreateAccessRequestInput{
		InstitutionSlug: req.InstitutionSlug,
		Scope:           req.Scope,
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		Metadata:        req.Metadata,
	})
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			return response.ValidationError(c, verr)
		case errors.Is(err, services.ErrInstitutionNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, services.ErrNotRegistered):
			return response.Forbidden(c, err.Error())
		case errors.Is(err, services.ErrDuplicatePending),
			errors.Is(err, services.ErrAccountExists),
			errors.Is(err, services.ErrIdentityConflict):
			return response.Conflict(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to submit access request")
		}
	}

	return response.Created(c, AccessRequestResponse{
		ID:          request.ID,
		Status:      request.Status,
		Scope:       request.Scope,
		RequestedAt: request.RequestedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
