package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/clients"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

type CartHandler struct {
	carts         *repository.CartRepository
	products      *repository.ProductRepository
	settings      *repository.SettingsRepository
	notifications *clients.NotificationClient
	logger        *logrus.Logger
}

func NewCartHandler(
	carts *repository.CartRepository,
	products *repository.ProductRepository,
	settings *repository.SettingsRepository,
	notifications *clients.NotificationClient,
	logger *logrus.Logger,
) *CartHandler {
	return &CartHandler{
		carts:         carts,
		products:      products,
		settings:      settings,
		notifications: notifications,
		logger:        logger,
	}
}

// GetCart returns the user's cart, creating an empty one on first access
func (h *CartHandler) GetCart(c *gin.Context) {
	tenantID := tenantFromContext(c)

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID format")
		return
	}

	cart, err := h.carts.GetOrCreate(c.Request.Context(), tenantID, userID, c.Query("email"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to load cart")
		return
	}

	c.JSON(http.StatusOK, models.CartResponse{Success: true, Data: cart})
}

// AddLine adds a product to the cart or replaces the quantity of an existing
// line. Prices are resolved server-side from the current catalog.
func (h *CartHandler) AddLine(c *gin.Context) {
	tenantID := tenantFromContext(c)
	ctx := c.Request.Context()

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID format")
		return
	}

	var req models.AddCartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format")
		return
	}
	product, err := h.products.GetByID(ctx, tenantID, productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	if !product.IsActive {
		respondError(c, http.StatusConflict, "PRODUCT_INACTIVE", "Product is not available")
		return
	}

	unitPrice, image, err := resolveUnitPrice(product, req.VariantName, req.Size)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	cart, err := h.carts.GetOrCreate(ctx, tenantID, userID, "")
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to load cart")
		return
	}

	line := models.CartLine{
		ProductID:       req.ProductID,
		Name:            product.Name,
		Image:           image,
		VariantName:     req.VariantName,
		Size:            req.Size,
		UnitPrice:       unitPrice,
		Quantity:        req.Quantity,
		FreeCashApplied: req.FreeCash,
	}

	replaced := false
	for i := range cart.Items {
		if sameLine(cart.Items[i], line) {
			cart.Items[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		cart.Items = append(cart.Items, line)
	}
	cart.Status = models.CartStatusActive

	if err := h.carts.Save(ctx, tenantID, cart); err != nil {
		respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update cart")
		return
	}

	c.JSON(http.StatusOK, models.CartResponse{Success: true, Data: cart})
}

// RemoveLine drops one line from the cart
func (h *CartHandler) RemoveLine(c *gin.Context) {
	tenantID := tenantFromContext(c)
	ctx := c.Request.Context()

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID format")
		return
	}
	productID := c.Param("productId")
	variantName := c.Query("variantName")
	size := c.Query("size")

	cart, err := h.carts.GetByUser(ctx, tenantID, userID)
	if err != nil || cart == nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Cart not found")
		return
	}

	kept := cart.Items[:0]
	removed := false
	for _, item := range cart.Items {
		if item.ProductID == productID && item.VariantName == variantName && item.Size == size {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Cart line not found")
		return
	}
	cart.Items = kept

	if err := h.carts.Save(ctx, tenantID, cart); err != nil {
		respondError(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update cart")
		return
	}

	c.JSON(http.StatusOK, models.CartResponse{Success: true, Data: cart})
}

// ClearCart empties the user's cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	tenantID := tenantFromContext(c)

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID format")
		return
	}

	if err := h.carts.Delete(c.Request.Context(), tenantID, userID); err != nil {
		respondError(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to clear cart")
		return
	}

	msg := "Cart cleared"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}

// SendReminders emails every abandoned cart past the reminder window.
// The scheduler calling this endpoint lives outside the service.
// POST /api/v1/carts/reminders
func (h *CartHandler) SendReminders(c *gin.Context) {
	tenantID := tenantFromContext(c)
	ctx := c.Request.Context()

	settings, err := h.settings.Get(ctx, tenantID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to load company settings")
		return
	}

	cutoff := time.Now().UTC().Add(-time.Duration(settings.CartReminderHours) * time.Hour)
	carts, err := h.carts.ListAbandoned(ctx, tenantID, cutoff, 3)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list abandoned carts")
		return
	}

	sent := 0
	for i := range carts {
		cart := carts[i]
		if cart.UserEmail == "" {
			continue
		}
		if err := h.carts.MarkReminded(ctx, tenantID, cart.ID, time.Now().UTC()); err != nil {
			continue
		}
		sent++
		go func() {
			bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			h.notifications.SendCartReminderEmail(bg, &cart)
		}()
	}

	h.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"abandoned": len(carts),
		"reminded":  sent,
	}).Info("Abandoned cart reminder sweep completed")

	msg := fmt.Sprintf("Sent %d reminders", sent)
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"abandoned": len(carts), "reminded": sent},
		Message: &msg,
	})
}

func sameLine(a, b models.CartLine) bool {
	return a.ProductID == b.ProductID && a.VariantName == b.VariantName && a.Size == b.Size
}

// resolveUnitPrice prices a cart line from the current catalog document.
// Variant products are addressed by variant name plus a "LxBxH" size label;
// flat products price at the product level with the discount window applied.
func resolveUnitPrice(product *models.Product, variantName, size string) (float64, string, error) {
	now := time.Now().UTC()

	if !product.HasVariants {
		if product.HasDimensions {
			if product.PricingType == models.PricingTypeStatic {
				for _, dim := range product.StaticDimensions {
					if sizeLabel(dim.Length, dim.Breadth, dim.Height) == size {
						return dim.Price, imageOf(product), nil
					}
				}
				return 0, "", fmt.Errorf("size %q not found", size)
			}
			// Dynamic pricing quotes per customer dimensions; the client
			// sends the computed price as part of a quoted size label,
			// which the storefront does not accept into the cart directly.
			return 0, "", fmt.Errorf("dynamic-priced products require a quote")
		}
		if product.Price == nil {
			return 0, "", fmt.Errorf("product has no price")
		}
		return product.EffectivePrice(now), imageOf(product), nil
	}

	if variantName == "" {
		return 0, "", fmt.Errorf("variantName is required for variant products")
	}
	variant := findVariant(product, variantName)
	if variant == nil || !variant.IsActive {
		return 0, "", fmt.Errorf("variant %q not found", variantName)
	}
	for _, detail := range variant.MoreDetails {
		if !detail.IsActive {
			continue
		}
		if sizeLabel(detail.Length, detail.Breadth, detail.Height) == size {
			price := detail.Price
			if detail.DiscountPrice != nil && detail.DiscountStartDate != nil && detail.DiscountEndDate != nil &&
				!now.Before(*detail.DiscountStartDate) && !now.After(*detail.DiscountEndDate) {
				price = *detail.DiscountPrice
			}
			image := variant.Image
			if image == "" {
				image = imageOf(product)
			}
			return price, image, nil
		}
	}
	return 0, "", fmt.Errorf("size %q not found in variant %q", size, variantName)
}

func sizeLabel(length, breadth, height float64) string {
	if height > 0 {
		return fmt.Sprintf("%gx%gx%g", length, breadth, height)
	}
	return fmt.Sprintf("%gx%g", length, breadth)
}

func imageOf(product *models.Product) string {
	if product.MainImage != nil {
		return *product.MainImage
	}
	return ""
}
