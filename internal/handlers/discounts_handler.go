package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

type DiscountsHandler struct {
	discounts  *repository.DiscountRepository
	categories *repository.CategoryRepository
	logger     *logrus.Logger
}

func NewDiscountsHandler(discounts *repository.DiscountRepository, categories *repository.CategoryRepository, logger *logrus.Logger) *DiscountsHandler {
	return &DiscountsHandler{discounts: discounts, categories: categories, logger: logger}
}

// CreateDiscount creates a category-wide percentage discount. Overlapping
// windows for the same scope are rejected.
func (h *DiscountsHandler) CreateDiscount(c *gin.Context) {
	tenantID := tenantFromContext(c)
	actorID := userFromContext(c)
	ctx := c.Request.Context()

	var req models.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if !req.EndDate.After(req.StartDate) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "endDate must be after startDate")
		return
	}

	discount := &models.Discount{
		TenantID:   tenantID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Percentage: req.Percentage,
		IsActive:   true,
		CreatedBy:  &actorID,
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid categoryId")
			return
		}
		if _, err := h.categories.ByID(ctx, tenantID, id); err != nil {
			respondCatalogError(c, err)
			return
		}
		discount.CategoryID = &id
	}
	if req.SubCategoryID != nil && *req.SubCategoryID != "" {
		if discount.CategoryID == nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "subCategoryId requires categoryId")
			return
		}
		id, err := uuid.Parse(*req.SubCategoryID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid subCategoryId")
			return
		}
		discount.SubCategoryID = &id
	}

	if err := h.discounts.Create(ctx, discount); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.DiscountResponse{Success: true, Data: discount})
}

// GetDiscounts lists every discount of the tenant
func (h *DiscountsHandler) GetDiscounts(c *gin.Context) {
	tenantID := tenantFromContext(c)

	if c.Query("active") == "true" {
		discounts, err := h.discounts.ListActiveAt(c.Request.Context(), tenantID, time.Now().UTC())
		if err != nil {
			respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve discounts")
			return
		}
		c.JSON(http.StatusOK, models.DiscountListResponse{Success: true, Data: discounts})
		return
	}

	discounts, err := h.discounts.List(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve discounts")
		return
	}

	c.JSON(http.StatusOK, models.DiscountListResponse{Success: true, Data: discounts})
}

// GetDiscount retrieves a single discount by ID
func (h *DiscountsHandler) GetDiscount(c *gin.Context) {
	tenantID := tenantFromContext(c)

	discountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid discount ID format")
		return
	}

	discount, err := h.discounts.GetByID(c.Request.Context(), tenantID, discountID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DiscountResponse{Success: true, Data: discount})
}

// DeactivateDiscount ends a discount early
func (h *DiscountsHandler) DeactivateDiscount(c *gin.Context) {
	tenantID := tenantFromContext(c)

	discountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid discount ID format")
		return
	}

	if err := h.discounts.Deactivate(c.Request.Context(), tenantID, discountID); err != nil {
		respondCatalogError(c, err)
		return
	}

	msg := "Discount deactivated"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// DeleteDiscount removes a discount
func (h *DiscountsHandler) DeleteDiscount(c *gin.Context) {
	tenantID := tenantFromContext(c)

	discountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid discount ID format")
		return
	}

	if err := h.discounts.Delete(c.Request.Context(), tenantID, discountID); err != nil {
		respondCatalogError(c, err)
		return
	}

	msg := "Discount deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}
