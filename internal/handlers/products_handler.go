package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/catalog"
	"storefront-service/internal/events"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

type ProductsHandler struct {
	products   *repository.ProductRepository
	categories *repository.CategoryRepository
	tree       *catalog.TreeService
	assets     *catalog.Resolver
	publisher  *events.Publisher
	logger     *logrus.Logger
}

func NewProductsHandler(
	products *repository.ProductRepository,
	categories *repository.CategoryRepository,
	tree *catalog.TreeService,
	assets *catalog.Resolver,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *ProductsHandler {
	return &ProductsHandler{
		products:   products,
		categories: categories,
		tree:       tree,
		assets:     assets,
		publisher:  publisher,
		logger:     logger,
	}
}

// GetProducts lists products with search/category/active filters
// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {object} models.ProductListResponse
// @Router /products [get]
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	tenantID := tenantFromContext(c)

	var req models.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	products, total, err := h.products.List(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve products")
		return
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success:    true,
		Data:       products,
		Pagination: paginationFor(page, req.Limit(), total),
	})
}

// GetProduct retrieves a single product by ID
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	tenantID := tenantFromContext(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format")
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), tenantID, productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// CreateProduct creates a single product through the same category and
// dimension validation the bulk pipeline uses.
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)
	ctx := c.Request.Context()

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	mainID, err := uuid.Parse(req.MainCategoryID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid mainCategoryId")
		return
	}
	main, err := h.categories.ByID(ctx, tenantID, mainID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	if main.ParentID != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "mainCategoryId must be a root category")
		return
	}

	var subID *uuid.UUID
	pathOwner := mainID
	if req.SubCategoryID != nil && *req.SubCategoryID != "" {
		id, err := uuid.Parse(*req.SubCategoryID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid subCategoryId")
			return
		}
		under, err := h.tree.IsDescendantOf(ctx, tenantID, id, mainID)
		if err != nil {
			respondCatalogError(c, err)
			return
		}
		if !under {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "subCategoryId is not under mainCategoryId")
			return
		}
		subID = &id
		pathOwner = id
	}

	if existing, err := h.products.FindByName(ctx, tenantID, req.Name); err == nil && existing != nil {
		respondError(c, http.StatusConflict, "ALREADY_EXISTS", fmt.Sprintf("Product %q already exists", req.Name))
		return
	}

	path, err := h.tree.BuildPath(ctx, tenantID, pathOwner)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	product := &models.Product{
		TenantID:       tenantID,
		Name:           req.Name,
		Description:    req.Description,
		MainCategoryID: mainID,
		SubCategoryID:  subID,
		CategoryPath:   path,
		MainImage:      req.MainImage,
		IsActive:       true,
		HasVariants:    req.HasVariants,
		PricingType:    models.PricingTypeNormal,
		CreatedBy:      &userID,
	}
	for _, img := range req.AdditionalImages {
		product.AdditionalImages = append(product.AdditionalImages, img)
	}

	if req.HasVariants {
		if req.Dimensions != "" && req.Dimensions != "[]" {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Variant products cannot carry dimension pricing")
			return
		}
		if len(req.Variants) == 0 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "hasVariants requires at least one variant")
			return
		}
		defaults := 0
		for _, v := range req.Variants {
			if v.IsDefault {
				defaults++
			}
		}
		if defaults > 1 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Multiple default variants")
			return
		}
		if defaults == 0 {
			req.Variants[0].IsDefault = true
		}
		product.Variants = req.Variants
	} else {
		dims, err := catalog.ParseDimensions(req.Dimensions)
		if err != nil {
			respondCatalogError(c, err)
			return
		}
		if dims.HasDimensions {
			product.HasDimensions = true
			product.PricingType = dims.PricingType
			product.Dimensions = dims.Dimensions
			product.StaticDimensions = dims.StaticDimensions
		} else {
			if req.Price == nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing or invalid price")
				return
			}
			product.Price = req.Price
			product.Stock = req.Stock
			product.BulkPricing = req.BulkPricing
		}
	}

	if err := h.products.Create(ctx, tenantID, product); err != nil {
		respondError(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create product")
		return
	}

	if h.publisher != nil {
		h.publisher.PublishProductCreated(ctx, product, tenantID, userID)
	}

	c.JSON(http.StatusCreated, models.ProductResponse{Success: true, Data: product})
}

// UpdateProduct applies a partial update. Category changes rebuild the
// denormalized path.
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)
	ctx := c.Request.Context()

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format")
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	product, err := h.products.GetByID(ctx, tenantID, productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	var changed []string
	if req.Name != nil && *req.Name != product.Name {
		product.Name = *req.Name
		changed = append(changed, "name")
	}
	if req.Description != nil {
		product.Description = req.Description
		changed = append(changed, "description")
	}
	if req.MainImage != nil {
		product.MainImage = req.MainImage
		changed = append(changed, "mainImage")
	}
	if req.AdditionalImages != nil {
		product.AdditionalImages = models.StringList(req.AdditionalImages)
		changed = append(changed, "additionalImages")
	}

	categoryChanged := false
	if req.MainCategoryID != nil {
		id, err := uuid.Parse(*req.MainCategoryID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid mainCategoryId")
			return
		}
		main, err := h.categories.ByID(ctx, tenantID, id)
		if err != nil {
			respondCatalogError(c, err)
			return
		}
		if main.ParentID != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "mainCategoryId must be a root category")
			return
		}
		product.MainCategoryID = id
		product.SubCategoryID = nil
		categoryChanged = true
	}
	if req.SubCategoryID != nil {
		if *req.SubCategoryID == "" {
			product.SubCategoryID = nil
		} else {
			id, err := uuid.Parse(*req.SubCategoryID)
			if err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid subCategoryId")
				return
			}
			under, err := h.tree.IsDescendantOf(ctx, tenantID, id, product.MainCategoryID)
			if err != nil {
				respondCatalogError(c, err)
				return
			}
			if !under {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "subCategoryId is not under mainCategoryId")
				return
			}
			product.SubCategoryID = &id
		}
		categoryChanged = true
	}
	if categoryChanged {
		owner := product.MainCategoryID
		if product.SubCategoryID != nil {
			owner = *product.SubCategoryID
		}
		path, err := h.tree.BuildPath(ctx, tenantID, owner)
		if err != nil {
			respondCatalogError(c, err)
			return
		}
		product.CategoryPath = path
		changed = append(changed, "category")
	}

	if !product.HasVariants && !product.HasDimensions {
		if req.Price != nil {
			product.Price = req.Price
			changed = append(changed, "price")
		}
		if req.Stock != nil {
			product.Stock = req.Stock
			changed = append(changed, "stock")
		}
		if req.BulkPricing != nil {
			product.BulkPricing = req.BulkPricing
			changed = append(changed, "bulkPricing")
		}
	}
	if product.HasVariants && req.Variants != nil {
		product.Variants = req.Variants
		changed = append(changed, "variants")
	}

	product.UpdatedBy = &userID
	if err := h.products.Save(ctx, tenantID, product); err != nil {
		respondCatalogError(c, err)
		return
	}

	if h.publisher != nil && len(changed) > 0 {
		h.publisher.PublishProductUpdated(ctx, product, tenantID, userID, changed)
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// ReviseRate adjusts price and discount fields of a flat product or of one
// variant size. Unlike bulk import, the discount price is validated against
// the base price here.
func (h *ProductsHandler) ReviseRate(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)
	ctx := c.Request.Context()

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format")
		return
	}

	var req models.ReviseRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	product, err := h.products.GetByID(ctx, tenantID, productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	if req.VariantName != nil {
		size, ok := findSize(product, *req.VariantName, req.SizeIndex)
		if !ok {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Variant size not found")
			return
		}
		if req.Price != nil {
			size.Price = *req.Price
		}
		if req.DiscountPrice != nil {
			if *req.DiscountPrice >= size.Price {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "discountPrice must be lower than price")
				return
			}
			size.DiscountPrice = req.DiscountPrice
			size.DiscountStartDate = req.DiscountStartDate
			size.DiscountEndDate = req.DiscountEndDate
			size.DiscountBulkPricing = req.DiscountBulkPricing
		}
		if req.ComeBackToOriginalPrice != nil {
			size.ComeBackToOriginalPrice = *req.ComeBackToOriginalPrice
		}
	} else {
		if product.HasVariants || product.HasDimensions {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "variantName is required for variant products")
			return
		}
		if req.Price != nil {
			product.Price = req.Price
		}
		if req.DiscountPrice != nil {
			if product.Price == nil || *req.DiscountPrice >= *product.Price {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "discountPrice must be lower than price")
				return
			}
			product.DiscountPrice = req.DiscountPrice
			product.DiscountStartDate = req.DiscountStartDate
			product.DiscountEndDate = req.DiscountEndDate
			product.DiscountBulkPricing = req.DiscountBulkPricing
		}
		if req.ComeBackToOriginalPrice != nil {
			product.ComeBackToOriginalPrice = *req.ComeBackToOriginalPrice
		}
	}

	product.UpdatedBy = &userID
	if err := h.products.Save(ctx, tenantID, product); err != nil {
		respondCatalogError(c, err)
		return
	}

	if h.publisher != nil {
		h.publisher.PublishProductUpdated(ctx, product, tenantID, userID, []string{"price"})
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// ToggleActive switches the active flag at product, variant or size
// granularity. Activation is gated on the owning categories being active.
func (h *ProductsHandler) ToggleActive(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)
	ctx := c.Request.Context()

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format")
		return
	}

	var req models.ToggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	product, err := h.products.GetByID(ctx, tenantID, productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	if req.IsActive {
		if ok, msg := h.categoriesActive(c, tenantID, product); !ok {
			respondError(c, http.StatusConflict, "CATEGORY_INACTIVE", msg)
			return
		}
	}

	switch {
	case req.VariantName == nil:
		product.IsActive = req.IsActive
	case req.SizeIndex == nil:
		variant := findVariant(product, *req.VariantName)
		if variant == nil {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Variant not found")
			return
		}
		variant.IsActive = req.IsActive
	default:
		size, ok := findSize(product, *req.VariantName, req.SizeIndex)
		if !ok {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Variant size not found")
			return
		}
		size.IsActive = req.IsActive
	}

	product.UpdatedBy = &userID
	if err := h.products.Save(ctx, tenantID, product); err != nil {
		respondCatalogError(c, err)
		return
	}

	if h.publisher != nil && req.VariantName == nil {
		h.publisher.PublishProductStatusChanged(ctx, product, tenantID, userID, req.IsActive)
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// BulkUpdateStatus activates or deactivates a set of products at once
func (h *ProductsHandler) BulkUpdateStatus(c *gin.Context) {
	tenantID := tenantFromContext(c)
	ctx := c.Request.Context()

	var req struct {
		ProductIDs []string `json:"productIds" binding:"required,min=1"`
		IsActive   bool     `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_ID", fmt.Sprintf("Invalid product ID: %s", raw))
			return
		}
		ids = append(ids, id)
	}

	updated, err := h.products.BulkUpdateStatus(ctx, tenantID, ids, req.IsActive)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update product status")
		return
	}

	msg := fmt.Sprintf("Updated %d products", updated)
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"updated": updated},
		Message: &msg,
	})
}

// DuplicateProduct deep-copies a product, including its remote images, under
// the next free "name (N)" copy name.
func (h *ProductsHandler) DuplicateProduct(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)
	ctx := c.Request.Context()

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format")
		return
	}

	source, err := h.products.GetByID(ctx, tenantID, productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	copyName, err := h.products.NextCopyName(ctx, tenantID, source.Name)
	if err != nil {
		respondError(c, http.StatusConflict, "DUPLICATE_FAILED", err.Error())
		return
	}

	clone := *source
	clone.ID = uuid.Nil
	clone.Name = copyName
	clone.CreatedBy = &userID
	clone.UpdatedBy = nil

	if source.MainImage != nil && *source.MainImage != "" {
		url := h.assets.Duplicate(ctx, *source.MainImage, "products")
		clone.MainImage = &url
	}
	clone.AdditionalImages = h.duplicateAll(ctx, source.AdditionalImages)
	if source.HasVariants {
		clone.Variants = make(models.VariantList, len(source.Variants))
		copy(clone.Variants, source.Variants)
		for i := range clone.Variants {
			if clone.Variants[i].Image != "" {
				clone.Variants[i].Image = h.assets.Duplicate(ctx, clone.Variants[i].Image, "products")
			}
			sizes := make([]models.SizeDetail, len(source.Variants[i].MoreDetails))
			copy(sizes, source.Variants[i].MoreDetails)
			for j := range sizes {
				sizes[j].AdditionalImages = h.duplicateAll(ctx, sizes[j].AdditionalImages)
			}
			clone.Variants[i].MoreDetails = sizes
		}
	}

	if err := h.products.Create(ctx, tenantID, &clone); err != nil {
		respondError(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to duplicate product")
		return
	}

	if h.publisher != nil {
		h.publisher.PublishProductCreated(ctx, &clone, tenantID, userID)
	}

	c.JSON(http.StatusCreated, models.ProductResponse{Success: true, Data: &clone})
}

// DeleteProduct removes a product and its remote images
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	tenantID := tenantFromContext(c)
	userID := userFromContext(c)
	ctx := c.Request.Context()

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format")
		return
	}

	product, err := h.products.Delete(ctx, tenantID, productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	for _, url := range product.ImageURLs() {
		h.assets.Remove(ctx, url)
	}

	if h.publisher != nil {
		h.publisher.PublishProductDeleted(ctx, product, tenantID, userID)
	}

	msg := "Product deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

func (h *ProductsHandler) duplicateAll(ctx context.Context, urls models.StringList) models.StringList {
	if len(urls) == 0 {
		return nil
	}
	out := make(models.StringList, 0, len(urls))
	for _, url := range urls {
		if url == "" {
			continue
		}
		out = append(out, h.assets.Duplicate(ctx, url, "products"))
	}
	return out
}

func (h *ProductsHandler) categoriesActive(c *gin.Context, tenantID string, product *models.Product) (bool, string) {
	ctx := c.Request.Context()
	main, err := h.categories.ByID(ctx, tenantID, product.MainCategoryID)
	if err != nil || !main.IsActive {
		return false, "Main category is inactive"
	}
	if product.SubCategoryID != nil {
		sub, err := h.categories.ByID(ctx, tenantID, *product.SubCategoryID)
		if err != nil || !sub.IsActive {
			return false, "Sub category is inactive"
		}
	}
	return true, ""
}

func findVariant(product *models.Product, name string) *models.Variant {
	for i := range product.Variants {
		if product.Variants[i].Name == name {
			return &product.Variants[i]
		}
	}
	return nil
}

func findSize(product *models.Product, variantName string, sizeIndex *int) (*models.SizeDetail, bool) {
	variant := findVariant(product, variantName)
	if variant == nil {
		return nil, false
	}
	idx := 0
	if sizeIndex != nil {
		idx = *sizeIndex
	}
	if idx < 0 || idx >= len(variant.MoreDetails) {
		return nil, false
	}
	return &variant.MoreDetails[idx], true
}
