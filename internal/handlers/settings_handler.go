package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

type SettingsHandler struct {
	settings *repository.SettingsRepository
	logger   *logrus.Logger
}

func NewSettingsHandler(settings *repository.SettingsRepository, logger *logrus.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// GetSettings returns the tenant settings singleton, creating defaults on
// first access
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	tenantID := tenantFromContext(c)

	settings, err := h.settings.Get(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to load company settings")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: settings})
}

// UpdateSettings applies a partial update to the tenant settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)
	ctx := c.Request.Context()

	var req models.UpdateCompanySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	settings, err := h.settings.Get(ctx, tenantID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to load company settings")
		return
	}

	if req.ShippingPrice != nil {
		settings.ShippingPrice = req.ShippingPrice
	}
	if req.FreeShippingThreshold != nil {
		settings.FreeShippingThreshold = req.FreeShippingThreshold
	}
	if req.OrderRetentionDays != nil {
		if *req.OrderRetentionDays < 1 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "orderRetentionDays must be positive")
			return
		}
		settings.OrderRetentionDays = *req.OrderRetentionDays
	}
	if req.CartReminderHours != nil {
		if *req.CartReminderHours < 1 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "cartReminderHours must be positive")
			return
		}
		settings.CartReminderHours = *req.CartReminderHours
	}
	if req.SupportEmail != nil {
		settings.SupportEmail = req.SupportEmail
	}
	if req.SupportPhone != nil {
		settings.SupportPhone = req.SupportPhone
	}
	settings.UpdatedBy = &userID

	if err := h.settings.Update(ctx, tenantID, settings); err != nil {
		respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update company settings")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: settings})
}

// UpsertPolicyPage creates or replaces a policy page by slug
func (h *SettingsHandler) UpsertPolicyPage(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)

	var req models.UpsertPolicyPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = models.PolicyPageStatusDraft
	}

	page := &models.PolicyPage{
		TenantID:  tenantID,
		Slug:      req.Slug,
		Title:     req.Title,
		Content:   req.Content,
		Status:    status,
		UpdatedBy: &userID,
	}
	if err := h.settings.UpsertPolicyPage(c.Request.Context(), page); err != nil {
		respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to save policy page")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: page})
}

// GetPolicyPages lists policy pages; storefront callers see published only
func (h *SettingsHandler) GetPolicyPages(c *gin.Context) {
	tenantID := tenantFromContext(c)
	publishedOnly := c.Query("published") == "true"

	pages, err := h.settings.ListPolicyPages(c.Request.Context(), tenantID, publishedOnly)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list policy pages")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: pages})
}

// GetPolicyPage fetches one policy page by slug
func (h *SettingsHandler) GetPolicyPage(c *gin.Context) {
	tenantID := tenantFromContext(c)

	page, err := h.settings.GetPolicyPage(c.Request.Context(), tenantID, c.Param("slug"))
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: page})
}

// GetPublishedPolicyPage is the storefront variant: drafts answer 404
func (h *SettingsHandler) GetPublishedPolicyPage(c *gin.Context) {
	tenantID := tenantFromContext(c)

	page, err := h.settings.GetPolicyPage(c.Request.Context(), tenantID, c.Param("slug"))
	if err != nil || page.Status != models.PolicyPageStatusPublished {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Policy page not found")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: page})
}

// DeletePolicyPage removes a policy page by slug
func (h *SettingsHandler) DeletePolicyPage(c *gin.Context) {
	tenantID := tenantFromContext(c)

	if err := h.settings.DeletePolicyPage(c.Request.Context(), tenantID, c.Param("slug")); err != nil {
		respondCatalogError(c, err)
		return
	}

	msg := "Policy page deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}
