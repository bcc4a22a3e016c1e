package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the tenant's company settings, creating the default row on
// first access so callers never deal with a missing singleton.
func (r *SettingsRepository) Get(ctx context.Context, tenantID string) (*models.CompanySettings, error) {
	var settings models.CompanySettings
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings = models.CompanySettings{
		TenantID:           tenantID,
		OrderRetentionDays: 365,
		CartReminderHours:  24,
	}
	if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update writes back the settings singleton
func (r *SettingsRepository) Update(ctx context.Context, tenantID string, settings *models.CompanySettings) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Select("*").
		Omit("id", "tenant_id", "created_at").
		Updates(settings)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.Error{Kind: catalog.ErrNotFound, Message: "Company settings not found"}
	}
	return nil
}

// UpsertPolicyPage creates or replaces a policy page by slug
func (r *SettingsRepository) UpsertPolicyPage(ctx context.Context, page *models.PolicyPage) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "content", "status", "updated_at", "updated_by",
			}),
		}).
		Create(page).Error
}

// GetPolicyPage retrieves one page by slug
func (r *SettingsRepository) GetPolicyPage(ctx context.Context, tenantID, slug string) (*models.PolicyPage, error) {
	var page models.PolicyPage
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND slug = ?", tenantID, slug).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Policy page not found: %s", slug)}
		}
		return nil, err
	}
	return &page, nil
}

// ListPolicyPages lists a tenant's pages. publishedOnly restricts to
// pages the storefront may render.
func (r *SettingsRepository) ListPolicyPages(ctx context.Context, tenantID string, publishedOnly bool) ([]models.PolicyPage, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if publishedOnly {
		query = query.Where("status = ?", models.PolicyPageStatusPublished)
	}

	var pages []models.PolicyPage
	err := query.Order("slug ASC").Find(&pages).Error
	return pages, err
}

// DeletePolicyPage removes one page by slug
func (r *SettingsRepository) DeletePolicyPage(ctx context.Context, tenantID, slug string) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND slug = ?", tenantID, slug).
		Delete(&models.PolicyPage{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.Error{Kind: catalog.ErrNotFound, Message: fmt.Sprintf("Policy page not found: %s", slug)}
	}
	return nil
}
