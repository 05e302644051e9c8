package admin

import (
	"github.com/opencampus/campus-api/services"
	"gorm.io/gorm"
)

// AdminHandler handles administrator review and roster management endpoints.
// Every query is scoped to the caller's institution.
type AdminHandler struct {
	db             *gorm.DB
	accessRequests *services.AccessRequestService
	provision      *services.ProvisionService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	db *gorm.DB,
	accessRequests *services.AccessRequestService,
	provision *services.ProvisionService,
) *AdminHandler {
	return &AdminHandler{
		db:             db,
		accessRequests: accessRequests,
		provision:      provision,
	}
}
