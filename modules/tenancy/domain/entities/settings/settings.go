package settings

import "time"

const (
	DefaultPrimaryColor   = "#1F2937"
	DefaultSecondaryColor = "#F59E0B"
)

// Settings holds display defaults for a tenant. Missing settings fall back to Default.
type Settings struct {
	TenantSlug     string
	BusinessName   string
	Email          string
	Phone          string
	PrimaryColor   string
	SecondaryColor string
	UpdatedAt      time.Time
}

func Default(slug, businessName, email, phone string) *Settings {
	return &Settings{
		TenantSlug:     slug,
		BusinessName:   businessName,
		Email:          email,
		Phone:          phone,
		PrimaryColor:   DefaultPrimaryColor,
		SecondaryColor: DefaultSecondaryColor,
		UpdatedAt:      time.Now(),
	}
}
