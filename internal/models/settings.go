package models

import (
	"time"

	"github.com/google/uuid"
)

// CompanySettings is the per-tenant policy singleton: shipping pricing,
// retention sweeps, abandoned-cart reminders. A nil ShippingPrice means
// shipping cannot be auto-computed and checkout records a "Pending" total.
type CompanySettings struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"not null;uniqueIndex:idx_company_settings_tenant"`

	ShippingPrice         *float64 `json:"shippingPrice,omitempty" gorm:"type:decimal(10,2)"`
	FreeShippingThreshold *float64 `json:"freeShippingThreshold,omitempty" gorm:"type:decimal(10,2)"`

	OrderRetentionDays int `json:"orderRetentionDays" gorm:"default:365"`
	CartReminderHours  int `json:"cartReminderHours" gorm:"default:24"`

	SupportEmail *string `json:"supportEmail,omitempty"`
	SupportPhone *string `json:"supportPhone,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy *string   `json:"updatedBy,omitempty"`
}

// TableName returns the table name for the CompanySettings model
func (CompanySettings) TableName() string {
	return "company_settings"
}

// ShippingFor returns the shipping price for an order subtotal, and false
// when shipping cannot be computed from settings.
func (s *CompanySettings) ShippingFor(subtotal float64) (float64, bool) {
	if s == nil || s.ShippingPrice == nil {
		return 0, false
	}
	if s.FreeShippingThreshold != nil && subtotal >= *s.FreeShippingThreshold {
		return 0, true
	}
	return *s.ShippingPrice, true
}

// UpdateCompanySettingsRequest updates the tenant settings singleton
type UpdateCompanySettingsRequest struct {
	ShippingPrice         *float64 `json:"shippingPrice,omitempty"`
	FreeShippingThreshold *float64 `json:"freeShippingThreshold,omitempty"`
	OrderRetentionDays    *int     `json:"orderRetentionDays,omitempty"`
	CartReminderHours     *int     `json:"cartReminderHours,omitempty"`
	SupportEmail          *string  `json:"supportEmail,omitempty"`
	SupportPhone          *string  `json:"supportPhone,omitempty"`
}

// PolicyPageStatus represents the status of a policy page
type PolicyPageStatus string

const (
	PolicyPageStatusDraft     PolicyPageStatus = "DRAFT"
	PolicyPageStatusPublished PolicyPageStatus = "PUBLISHED"
)

// PolicyPage is a company-settings-driven content page (shipping policy,
// returns, terms, privacy) rendered by the storefront.
type PolicyPage struct {
	ID       uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string           `json:"tenantId" gorm:"not null;index;uniqueIndex:idx_policy_pages_tenant_slug"`
	Slug     string           `json:"slug" gorm:"not null;uniqueIndex:idx_policy_pages_tenant_slug"`
	Title    string           `json:"title" gorm:"not null"`
	Content  string           `json:"content" gorm:"type:text;not null"`
	Status   PolicyPageStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT'"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy *string   `json:"updatedBy,omitempty"`
}

// TableName returns the table name for the PolicyPage model
func (PolicyPage) TableName() string {
	return "policy_pages"
}

// UpsertPolicyPageRequest creates or replaces a policy page by slug
type UpsertPolicyPageRequest struct {
	Slug    string           `json:"slug" binding:"required"`
	Title   string           `json:"title" binding:"required"`
	Content string           `json:"content" binding:"required"`
	Status  PolicyPageStatus `json:"status,omitempty"`
}
