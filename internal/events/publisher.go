package events

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
)

// Publisher wraps the go-shared events publisher for storefront events:
// product lifecycle, bulk import progress and order status changes.
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewPublisher creates a new storefront events publisher
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		// Default to GKE internal NATS service URL
		natsURL = "nats://nats.nats.svc.cluster.local:4222"
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "storefront-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	// Ensure the streams this service publishes to exist
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}
	if err := publisher.EnsureStream(ctx, events.StreamOrders, []string{"order.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure orders stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "storefront-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishProductCreated publishes a product.created event
func (p *Publisher) PublishProductCreated(ctx context.Context, product *models.Product, tenantID, actorID string) error {
	event := p.buildProductEvent(events.ProductCreated, product, tenantID)
	event.ActorID = actorID
	event.ChangeType = "created"
	return p.publishProduct(ctx, event)
}

// PublishProductUpdated publishes a product.updated event
func (p *Publisher) PublishProductUpdated(ctx context.Context, product *models.Product, tenantID, actorID string, changedFields []string) error {
	event := p.buildProductEvent(events.ProductUpdated, product, tenantID)
	event.ActorID = actorID
	event.ChangeType = "updated"
	event.ChangedFields = changedFields
	return p.publishProduct(ctx, event)
}

// PublishProductDeleted publishes a product.deleted event
func (p *Publisher) PublishProductDeleted(ctx context.Context, product *models.Product, tenantID, actorID string) error {
	event := p.buildProductEvent(events.ProductDeleted, product, tenantID)
	event.ActorID = actorID
	event.ChangeType = "deleted"
	return p.publishProduct(ctx, event)
}

// PublishProductStatusChanged publishes a product status flip
func (p *Publisher) PublishProductStatusChanged(ctx context.Context, product *models.Product, tenantID, actorID string, isActive bool) error {
	event := p.buildProductEvent("product.status_changed", product, tenantID)
	event.ActorID = actorID
	event.ChangeType = "status_changed"
	event.OldValue = map[string]interface{}{"isActive": !isActive}
	event.NewValue = map[string]interface{}{"isActive": isActive}
	event.ChangedFields = []string{"isActive"}
	return p.publishProduct(ctx, event)
}

// PublishImportProgress publishes a product.import.progress snapshot after
// every processed product in a bulk batch. Fire-and-forget; a missing
// subscriber is not an error.
func (p *Publisher) PublishImportProgress(ctx context.Context, tenantID string, progress models.ImportProgress) error {
	event := events.NewProductEvent("product.import.progress", tenantID)
	event.SourceID = uuid.New().String()
	event.NewValue = map[string]interface{}{
		"processed":    progress.Processed,
		"total":        progress.Total,
		"successCount": progress.SuccessCount,
		"failCount":    progress.FailCount,
	}
	return p.publishProduct(ctx, event)
}

// PublishOrderStatusChanged publishes an order status transition
func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, oldStatus models.OrderStatus) error {
	event := events.NewOrderEvent("order.status_changed", order.TenantID)
	event.SourceID = uuid.New().String()
	event.OrderID = order.ID.String()
	event.OrderDate = order.CreatedAt.Format(time.RFC3339)
	event.Status = string(order.Status)
	event.PaymentStatus = string(order.PaymentStatus)
	event.CustomerEmail = order.Email
	event.CustomerName = order.UserName
	event.ItemCount = len(order.Products)

	logger := p.logger.WithField("oldStatus", string(oldStatus))
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishOrder(pubCtx, event); err != nil {
			logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"orderID":   event.OrderID,
				"tenantID":  event.TenantID,
			}).WithError(err).Error("Failed to publish order event")
		}
	}()
	return nil
}

// buildProductEvent creates a ProductEvent from a product model
func (p *Publisher) buildProductEvent(eventType string, product *models.Product, tenantID string) *events.ProductEvent {
	event := events.NewProductEvent(eventType, tenantID)
	event.SourceID = uuid.New().String()
	event.ProductID = product.ID.String()
	event.ProductName = product.Name
	if product.IsActive {
		event.Status = "active"
	} else {
		event.Status = "inactive"
	}
	if product.Price != nil {
		event.Price = *product.Price
	}
	event.CategoryID = product.MainCategoryID.String()
	return event
}

// publishProduct logs and publishes product events asynchronously
func (p *Publisher) publishProduct(ctx context.Context, event *events.ProductEvent) error {
	// Publish asynchronously to not block the main flow
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"productID": event.ProductID,
				"tenantID":  event.TenantID,
			}).WithError(err).Error("Failed to publish product event")
		} else {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"productID": event.ProductID,
				"tenantID":  event.TenantID,
			}).Info("Product event published successfully")
		}
	}()

	return nil
}

// ProgressEmitter adapts the publisher to the import pipeline's progress
// port.
type ProgressEmitter struct {
	Publisher *Publisher
}

func (e ProgressEmitter) EmitProgress(ctx context.Context, tenantID string, progress models.ImportProgress) {
	if e.Publisher == nil {
		return
	}
	_ = e.Publisher.PublishImportProgress(ctx, tenantID, progress)
}
