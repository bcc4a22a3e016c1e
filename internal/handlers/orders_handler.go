package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/clients"
	"storefront-service/internal/events"
	"storefront-service/internal/models"
	"storefront-service/internal/promo"
	"storefront-service/internal/repository"
)

type OrdersHandler struct {
	orders        *repository.OrderRepository
	carts         *repository.CartRepository
	products      *repository.ProductRepository
	freeCash      *repository.FreeCashRepository
	settings      *repository.SettingsRepository
	notifications *clients.NotificationClient
	publisher     *events.Publisher
	logger        *logrus.Logger
}

func NewOrdersHandler(
	orders *repository.OrderRepository,
	carts *repository.CartRepository,
	products *repository.ProductRepository,
	freeCash *repository.FreeCashRepository,
	settings *repository.SettingsRepository,
	notifications *clients.NotificationClient,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *OrdersHandler {
	return &OrdersHandler{
		orders:        orders,
		carts:         carts,
		products:      products,
		freeCash:      freeCash,
		settings:      settings,
		notifications: notifications,
		publisher:     publisher,
		logger:        logger,
	}
}

// Checkout turns the user's cart into an order: line snapshot, shipping from
// company settings, first eligible free cash grant applied whole.
// POST /api/v1/storefront/checkout
func (h *OrdersHandler) Checkout(c *gin.Context) {
	tenantID := tenantFromContext(c)
	ctx := c.Request.Context()

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID format")
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	cart, err := h.carts.GetByUser(ctx, tenantID, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to load cart")
		return
	}
	if cart == nil || len(cart.Items) == 0 {
		respondError(c, http.StatusBadRequest, "EMPTY_CART", "Cart is empty")
		return
	}

	now := time.Now().UTC()
	subtotal := cart.Subtotal()

	// Free cash: the first usable eligible grant, consumed whole.
	var application *promo.Application
	grants, err := h.freeCash.ListUsableByUser(ctx, tenantID, userID)
	if err == nil && len(grants) > 0 {
		application = promo.SelectGrant(grants, cart.Items, h.scopeLookup(ctx, tenantID), now)
	}

	order := &models.Order{
		TenantID:      tenantID,
		UserID:        userID,
		UserName:      req.UserName,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		Pincode:       req.Pincode,
		Status:        models.OrderStatusPlaced,
		PaymentStatus: models.PaymentStatusPending,
		Price:         subtotal,
	}
	for _, line := range cart.Items {
		order.Products = append(order.Products, models.OrderedProduct{
			ProductID:   line.ProductID,
			Name:        line.Name,
			Image:       line.Image,
			VariantName: line.VariantName,
			Size:        line.Size,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Total:       line.Total(),
		})
	}

	freeCashAmount := 0.0
	if application != nil {
		freeCashAmount = application.Amount
		order.FreeCashID = &application.Grant.ID
		order.FreeCashAmount = freeCashAmount
		// Informational: record the credit against the first eligible line.
		order.Products[application.EligibleLines[0]].FreeCashApplied = freeCashAmount
	}

	settings, err := h.settings.Get(ctx, tenantID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to load company settings")
		return
	}
	if shipping, ok := settings.ShippingFor(subtotal); ok {
		order.ShippingPrice = &shipping
		order.TotalPrice = fmt.Sprintf("%.2f", subtotal-freeCashAmount+shipping)
	} else {
		// Shipping cannot be auto-computed; the operator revises it later.
		order.TotalPrice = models.TotalPending
	}

	if err := h.orders.Create(ctx, order); err != nil {
		respondError(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create order")
		return
	}

	if application != nil {
		if err := h.freeCash.MarkUsed(ctx, tenantID, application.Grant.ID, order.ID); err != nil {
			// The grant was consumed concurrently; the order stands but
			// without the credit.
			h.logger.WithFields(logrus.Fields{
				"order_id":     order.ID,
				"free_cash_id": application.Grant.ID,
			}).Warn("Free cash grant no longer usable at checkout")
			order.FreeCashID = nil
			order.FreeCashAmount = 0
			if order.TotalPrice != models.TotalPending {
				order.TotalPrice = fmt.Sprintf("%.2f", subtotal+*order.ShippingPrice)
			}
			for i := range order.Products {
				order.Products[i].FreeCashApplied = 0
			}
			h.orders.Update(ctx, tenantID, order)
		}
	}

	if cart.Status == models.CartStatusReminded {
		h.carts.MarkRecovered(ctx, tenantID, cart.ID)
	}
	if err := h.carts.Delete(ctx, tenantID, userID); err != nil {
		h.logger.WithField("user_id", userID).Warn("Failed to clear cart after checkout")
	}

	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.notifications.SendOrderPlacedEmail(bg, order)
	}()

	c.JSON(http.StatusCreated, models.OrderResponse{Success: true, Data: order})
}

// scopeLookup resolves product category scope for free cash eligibility.
func (h *OrdersHandler) scopeLookup(ctx context.Context, tenantID string) promo.ScopeLookup {
	return func(productID string) (promo.ProductScope, bool) {
		id, err := uuid.Parse(productID)
		if err != nil {
			return promo.ProductScope{}, false
		}
		product, err := h.products.GetByID(ctx, tenantID, id)
		if err != nil {
			return promo.ProductScope{}, false
		}
		return promo.ProductScope{
			MainCategoryID: product.MainCategoryID,
			SubCategoryID:  product.SubCategoryID,
		}, true
	}
}

// GetOrders lists orders newest-first with an optional status filter
func (h *OrdersHandler) GetOrders(c *gin.Context) {
	tenantID := tenantFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var status *models.OrderStatus
	if s := c.Query("status"); s != "" {
		v := models.OrderStatus(s)
		status = &v
	}

	orders, total, err := h.orders.List(c.Request.Context(), tenantID, status, limit, (page-1)*limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{
		Success:    true,
		Data:       orders,
		Pagination: paginationFor(page, limit, total),
	})
}

// GetOrder retrieves a single order by ID
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	tenantID := tenantFromContext(c)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID format")
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), tenantID, orderID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.OrderResponse{Success: true, Data: order})
}

// GetUserOrders lists the orders of one user, newest first
func (h *OrdersHandler) GetUserOrders(c *gin.Context) {
	tenantID := tenantFromContext(c)

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID format")
		return
	}

	orders, err := h.orders.ListByUser(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{Success: true, Data: orders})
}

// UpdateOrderStatus moves an order through the state machine. Invalid
// transitions are rejected; valid ones notify the customer by email.
func (h *OrdersHandler) UpdateOrderStatus(c *gin.Context) {
	tenantID := tenantFromContext(c)
	ctx := c.Request.Context()

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID format")
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	order, err := h.orders.GetByID(ctx, tenantID, orderID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	if !models.CanTransitionOrderStatus(order.Status, req.Status) {
		respondError(c, http.StatusConflict, "INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition order from %s to %s", order.Status, req.Status))
		return
	}

	oldStatus := order.Status
	order.Status = req.Status
	if err := h.orders.Update(ctx, tenantID, order); err != nil {
		respondCatalogError(c, err)
		return
	}

	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.notifications.SendOrderStatusEmail(bg, order)
	}()

	if h.publisher != nil {
		h.publisher.PublishOrderStatusChanged(ctx, order, oldStatus)
	}

	c.JSON(http.StatusOK, models.OrderResponse{Success: true, Data: order})
}

// UpdatePaymentStatus marks an order paid or unpaid
func (h *OrdersHandler) UpdatePaymentStatus(c *gin.Context) {
	tenantID := tenantFromContext(c)
	ctx := c.Request.Context()

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID format")
		return
	}

	var req models.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	order, err := h.orders.GetByID(ctx, tenantID, orderID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	order.PaymentStatus = req.PaymentStatus
	if err := h.orders.Update(ctx, tenantID, order); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.OrderResponse{Success: true, Data: order})
}

// ReviseAddress updates the shipping address while the order has not shipped
func (h *OrdersHandler) ReviseAddress(c *gin.Context) {
	tenantID := tenantFromContext(c)
	ctx := c.Request.Context()

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID format")
		return
	}

	var req models.ReviseOrderAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	order, err := h.orders.GetByID(ctx, tenantID, orderID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	if !models.AddressEditableStatuses[order.Status] {
		respondError(c, http.StatusConflict, "ADDRESS_LOCKED",
			fmt.Sprintf("Address cannot be revised in status %s", order.Status))
		return
	}

	order.Address = req.Address
	if req.City != "" {
		order.City = req.City
	}
	if req.Pincode != "" {
		order.Pincode = req.Pincode
	}
	if req.Phone != "" {
		order.Phone = req.Phone
	}

	if err := h.orders.Update(ctx, tenantID, order); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.OrderResponse{Success: true, Data: order})
}

// ReviseShipping sets the shipping price on an order whose total was left
// "Pending" at checkout, finalizing the total.
func (h *OrdersHandler) ReviseShipping(c *gin.Context) {
	tenantID := tenantFromContext(c)
	ctx := c.Request.Context()

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID format")
		return
	}

	var req models.ReviseShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	order, err := h.orders.GetByID(ctx, tenantID, orderID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	order.ShippingPrice = &req.ShippingPrice
	order.TotalPrice = fmt.Sprintf("%.2f", order.Price-order.FreeCashAmount+req.ShippingPrice)

	if err := h.orders.Update(ctx, tenantID, order); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.OrderResponse{Success: true, Data: order})
}

// SweepOldOrders deletes orders older than the tenant's retention window.
// POST /api/v1/orders/sweep
func (h *OrdersHandler) SweepOldOrders(c *gin.Context) {
	tenantID := tenantFromContext(c)
	ctx := c.Request.Context()

	settings, err := h.settings.Get(ctx, tenantID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to load company settings")
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -settings.OrderRetentionDays)
	deleted, err := h.orders.DeleteOlderThan(ctx, tenantID, cutoff)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SWEEP_FAILED", "Failed to sweep old orders")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"cutoff":    cutoff,
		"deleted":   deleted,
	}).Info("Order retention sweep completed")

	msg := fmt.Sprintf("Deleted %d orders older than %s", deleted, cutoff.Format("2006-01-02"))
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"deleted": deleted},
		Message: &msg,
	})
}
