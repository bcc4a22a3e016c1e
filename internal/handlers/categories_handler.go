package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

type CategoriesHandler struct {
	categories *repository.CategoryRepository
	products   *repository.ProductRepository
	tree       *catalog.TreeService
	logger     *logrus.Logger
}

func NewCategoriesHandler(
	categories *repository.CategoryRepository,
	products *repository.ProductRepository,
	tree *catalog.TreeService,
	logger *logrus.Logger,
) *CategoriesHandler {
	return &CategoriesHandler{
		categories: categories,
		products:   products,
		tree:       tree,
		logger:     logger,
	}
}

// GetCategories lists every category of the tenant as a flat list
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} models.CategoryListResponse
// @Router /categories [get]
func (h *CategoriesHandler) GetCategories(c *gin.Context) {
	tenantID := tenantFromContext(c)

	categories, err := h.categories.GetAll(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve categories")
		return
	}

	c.JSON(http.StatusOK, models.CategoryListResponse{Success: true, Data: categories})
}

// GetCategoryTree returns the category hierarchy with resolved paths.
// Orphaned nodes are promoted to roots rather than dropped.
func (h *CategoriesHandler) GetCategoryTree(c *gin.Context) {
	tenantID := tenantFromContext(c)

	categories, err := h.categories.GetAll(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve categories")
		return
	}

	roots := h.tree.BuildTree(categories)
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: roots})
}

// GetCategory retrieves a single category by ID
func (h *CategoriesHandler) GetCategory(c *gin.Context) {
	tenantID := tenantFromContext(c)

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID format")
		return
	}

	category, err := h.categories.ByID(c.Request.Context(), tenantID, categoryID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CategoryResponse{Success: true, Data: category})
}

// CreateCategory creates a category. Sibling names must be unique under the
// same parent (case-insensitive).
func (h *CategoriesHandler) CreateCategory(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)
	ctx := c.Request.Context()

	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != nil && *req.ParentID != "" {
		id, err := uuid.Parse(*req.ParentID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid parentId")
			return
		}
		if _, err := h.categories.ByID(ctx, tenantID, id); err != nil {
			respondCatalogError(c, err)
			return
		}
		parentID = &id
	}

	exists, err := h.categories.NameExistsUnder(ctx, tenantID, req.Name, parentID, nil)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create category")
		return
	}
	if exists {
		respondError(c, http.StatusConflict, "ALREADY_EXISTS", "A category with this name already exists under the same parent")
		return
	}

	category := &models.Category{
		TenantID:  tenantID,
		Name:      req.Name,
		ParentID:  parentID,
		ImageURL:  req.ImageURL,
		IsActive:  true,
		CreatedBy: &userID,
	}
	if err := h.categories.Create(ctx, category); err != nil {
		respondError(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, models.CategoryResponse{Success: true, Data: category})
}

// UpdateCategory updates name, image or active flag. A rename rebuilds the
// denormalized category path of every product in the subtree.
func (h *CategoriesHandler) UpdateCategory(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)
	ctx := c.Request.Context()

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID format")
		return
	}

	category, err := h.categories.ByID(ctx, tenantID, categoryID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	renamed := false
	if req.Name != nil && *req.Name != category.Name {
		exists, err := h.categories.NameExistsUnder(ctx, tenantID, *req.Name, category.ParentID, &categoryID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update category")
			return
		}
		if exists {
			respondError(c, http.StatusConflict, "ALREADY_EXISTS", "A category with this name already exists under the same parent")
			return
		}
		category.Name = *req.Name
		renamed = true
	}
	if req.ImageURL != nil {
		category.ImageURL = req.ImageURL
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.UpdatedBy = &userID

	if err := h.categories.Update(ctx, tenantID, category); err != nil {
		respondCatalogError(c, err)
		return
	}

	if renamed {
		if err := h.rebuildPaths(c, tenantID, categoryID); err != nil {
			h.logger.WithFields(logrus.Fields{
				"tenant_id":   tenantID,
				"category_id": categoryID,
				"error":       err,
			}).Warn("Failed to rebuild product category paths after rename")
		}
	}

	c.JSON(http.StatusOK, models.CategoryResponse{Success: true, Data: category})
}

// rebuildPaths recomputes the denormalized path of every product whose main
// or sub category lives in the renamed subtree.
func (h *CategoriesHandler) rebuildPaths(c *gin.Context, tenantID string, rootID uuid.UUID) error {
	ctx := c.Request.Context()
	ids, err := h.tree.CollectDescendantIDs(ctx, tenantID, rootID)
	if err != nil {
		return err
	}
	products, err := h.products.ListByCategoryIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	for i := range products {
		owner := products[i].MainCategoryID
		if products[i].SubCategoryID != nil {
			owner = *products[i].SubCategoryID
		}
		path, err := h.tree.BuildPath(ctx, tenantID, owner)
		if err != nil {
			continue
		}
		if path != products[i].CategoryPath {
			if err := h.products.UpdateCategoryPath(ctx, tenantID, products[i].ID, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteCategory removes the category, its whole subtree, and every product
// and image under it.
func (h *CategoriesHandler) DeleteCategory(c *gin.Context) {
	tenantID := tenantFromContext(c)

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID format")
		return
	}

	result, err := h.tree.DeleteCascade(c.Request.Context(), tenantID, categoryID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: gin.H{
			"categoriesDeleted": result.CategoriesDeleted,
			"productsDeleted":   result.ProductsDeleted,
			"imagesRemoved":     result.ImagesRemoved,
		},
	})
}
