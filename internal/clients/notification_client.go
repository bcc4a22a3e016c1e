package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"storefront-service/internal/models"
)

// NotificationClient handles HTTP communication with notification-service.
// Every send is fire-and-forget from the caller's point of view: failures
// are returned for logging but never block the primary write.
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
}

// notificationRequest is the API request format for notification-service
type notificationRequest struct {
	To        string            `json:"to"`
	Subject   string            `json:"subject"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables"`
}

// NewNotificationClient creates a new notification client
func NewNotificationClient() *NotificationClient {
	baseURL := os.Getenv("NOTIFICATION_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://notification-service.marketplace.svc.cluster.local:8090"
	}

	return &NotificationClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendOrderStatusEmail notifies the buyer after a status transition
func (c *NotificationClient) SendOrderStatusEmail(ctx context.Context, order *models.Order) error {
	if order.Email == "" {
		log.Printf("[ORDER] No customer email for order %s, skipping notification", order.ID)
		return nil
	}

	req := &notificationRequest{
		To:       order.Email,
		Subject:  fmt.Sprintf("Your order is now %s", order.Status),
		Template: "order_status_changed",
		Variables: map[string]string{
			"orderId":      order.ID.String(),
			"customerName": order.UserName,
			"status":       string(order.Status),
			"totalPrice":   order.TotalPrice,
			"tenantId":     order.TenantID,
		},
	}
	return c.send(ctx, order.TenantID, req)
}

// SendOrderPlacedEmail confirms a freshly placed order
func (c *NotificationClient) SendOrderPlacedEmail(ctx context.Context, order *models.Order) error {
	if order.Email == "" {
		return nil
	}

	req := &notificationRequest{
		To:       order.Email,
		Subject:  "We received your order",
		Template: "order_placed",
		Variables: map[string]string{
			"orderId":       order.ID.String(),
			"customerName":  order.UserName,
			"itemCount":     fmt.Sprintf("%d", len(order.Products)),
			"totalPrice":    order.TotalPrice,
			"paymentStatus": string(order.PaymentStatus),
			"tenantId":      order.TenantID,
		},
	}
	return c.send(ctx, order.TenantID, req)
}

// SendCartReminderEmail nudges the owner of an abandoned cart
func (c *NotificationClient) SendCartReminderEmail(ctx context.Context, cart *models.Cart) error {
	if cart.UserEmail == "" {
		log.Printf("[CART] No email for cart %s, skipping reminder", cart.ID)
		return nil
	}

	req := &notificationRequest{
		To:       cart.UserEmail,
		Subject:  "You left items in your cart",
		Template: "cart_reminder",
		Variables: map[string]string{
			"cartId":    cart.ID.String(),
			"itemCount": fmt.Sprintf("%d", len(cart.Items)),
			"subtotal":  fmt.Sprintf("%.2f", cart.Subtotal()),
			"tenantId":  cart.TenantID,
		},
	}
	return c.send(ctx, cart.TenantID, req)
}

// send posts a notification request to notification-service
func (c *NotificationClient) send(ctx context.Context, tenantID string, req *notificationRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal notification request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/notifications/send", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)
	httpReq.Header.Set("X-Internal-Service", "storefront-service")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	log.Printf("[NOTIFY] Notification sent to %s (template: %s)", req.To, req.Template)
	return nil
}
