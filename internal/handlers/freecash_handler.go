package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

type FreeCashHandler struct {
	freeCash   *repository.FreeCashRepository
	categories *repository.CategoryRepository
	logger     *logrus.Logger
}

func NewFreeCashHandler(freeCash *repository.FreeCashRepository, categories *repository.CategoryRepository, logger *logrus.Logger) *FreeCashHandler {
	return &FreeCashHandler{freeCash: freeCash, categories: categories, logger: logger}
}

// CreateFreeCash grants free cash to a batch of users
// @Summary Grant free cash
// @Tags freecash
// @Accept json
// @Produce json
// @Success 201 {object} models.SuccessResponse
// @Router /free-cash [post]
func (h *FreeCashHandler) CreateFreeCash(c *gin.Context) {
	tenantID := tenantFromContext(c)
	actorID := userFromContext(c)
	ctx := c.Request.Context()

	var req models.CreateFreeCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if !req.EndDate.After(req.StartDate) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "endDate must be after startDate")
		return
	}

	var categoryID, subCategoryID *uuid.UUID
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
		categoryID = &id
	}
	if req.SubCategoryID != nil && *req.SubCategoryID != "" {
		if categoryID == nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "subCategoryId requires categoryId")
			return
		}
		id, err := uuid.Parse(*req.SubCategoryID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid subCategoryId")
			return
		}
		subCategoryID = &id
	}

	grants := make([]models.FreeCash, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		userID, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_ID", fmt.Sprintf("Invalid user ID: %s", raw))
			return
		}
		grants = append(grants, models.FreeCash{
			TenantID:      tenantID,
			UserID:        userID,
			Amount:        req.Amount,
			MinimumAmount: req.MinimumAmount,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			CategoryID:    categoryID,
			SubCategoryID: subCategoryID,
			CreatedBy:     &actorID,
		})
	}

	if err := h.freeCash.CreateBatch(ctx, grants); err != nil {
		respondError(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create free cash grants")
		return
	}

	msg := fmt.Sprintf("Granted free cash to %d users", len(grants))
	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    grants,
		Message: &msg,
	})
}

// GetFreeCash lists grants for the tenant
func (h *FreeCashHandler) GetFreeCash(c *gin.Context) {
	tenantID := tenantFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	grants, total, err := h.freeCash.List(c.Request.Context(), tenantID, limit, (page-1)*limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve free cash grants")
		return
	}

	c.JSON(http.StatusOK, models.FreeCashListResponse{
		Success:    true,
		Data:       grants,
		Pagination: paginationFor(page, limit, total),
	})
}

// GetUserFreeCash lists the usable grants of one user (storefront "my credit")
func (h *FreeCashHandler) GetUserFreeCash(c *gin.Context) {
	tenantID := tenantFromContext(c)

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID format")
		return
	}

	grants, err := h.freeCash.ListUsableByUser(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve free cash grants")
		return
	}

	c.JSON(http.StatusOK, models.FreeCashListResponse{Success: true, Data: grants})
}

// DeleteFreeCash removes an unused grant
func (h *FreeCashHandler) DeleteFreeCash(c *gin.Context) {
	tenantID := tenantFromContext(c)

	grantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid grant ID format")
		return
	}

	if err := h.freeCash.Delete(c.Request.Context(), tenantID, grantID); err != nil {
		respondCatalogError(c, err)
		return
	}

	msg := "Free cash grant deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// SweepExpired flags every grant whose window has closed
// POST /api/v1/free-cash/sweep
func (h *FreeCashHandler) SweepExpired(c *gin.Context) {
	swept, err := h.freeCash.SweepExpired(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SWEEP_FAILED", "Failed to sweep expired grants")
		return
	}

	h.logger.WithField("expired", swept).Info("Free cash expiry sweep completed")

	msg := fmt.Sprintf("Marked %d grants expired", swept)
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"expired": swept},
		Message: &msg,
	})
}
