package services

import (
	"context"

	"github.com/opencampus/campus-api/model"
	"gorm.io/gorm"
)

// DemoLoginProvider is the development-only fallback for admin-tier password
// logins. It resolves exactly one hard-coded slug and nothing else, and is
// only composed into the auth service when the demo toggle is set in a
// non-production build.
type DemoLoginProvider struct {
	db       *gorm.DB
	demoSlug string
}

// NewDemoLoginProvider creates the provider for the fixed demo slug.
func NewDemoLoginProvider(db *gorm.DB, demoSlug string) *DemoLoginProvider {
	return &DemoLoginProvider{db: db, demoSlug: demoSlug}
}

// ResolveDemoInstitution returns the demo tenant only for the fixed slug,
// creating it on first use so a fresh development database works without a
// seed step. Any other slug yields nil: this path must never widen beyond
// the demo tenant.
func (p *DemoLoginProvider) ResolveDemoInstitution(ctx context.Context, slug string) (*model.Institution, error) {
	if slug != p.demoSlug {
		return nil, nil
	}

	institution := model.Institution{
		Slug:     p.demoSlug,
		Name:     "Demo School",
		Locale:   "en",
		Currency: "USD",
		Timezone: "UTC",
		Active:   true,
	}
	err := p.db.WithContext(ctx).
		Where("slug = ?", p.demoSlug).
		FirstOrCreate(&institution).Error
	if err != nil {
		return nil, err
	}
	if !institution.Active {
		return nil, nil
	}
	return &institution, nil
}
