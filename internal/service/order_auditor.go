package service

import (
	"context"
	"fmt"
	"strconv"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderAuditor consumes order events and appends them to the order history.
// Each event is applied at most once.
type OrderAuditor struct {
	audit  AuditRepository
	logger *zap.Logger
}

func NewOrderAuditor(audit AuditRepository) *OrderAuditor {
	return &OrderAuditor{
		audit:  audit,
		logger: util.GetLogger(),
	}
}

// HandleOrderEvent records an ORDER_* event in the order history
func (a *OrderAuditor) HandleOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderAuditor.HandleOrderEvent",
		attribute.String("event.id", event.EventID),
		attribute.String("event.type", event.EventType))
	defer span.End()

	if event.EventID == "" || event.OrderID == "" {
		a.logger.Warn("Dropping malformed order event", zap.String("event_type", event.EventType))
		return nil
	}

	processed, err := a.audit.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		a.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	recorded, err := a.audit.RecordOrderEvent(ctx, &models.OrderHistoryEntry{
		OrderID:    event.OrderID,
		EventID:    event.EventID,
		EventType:  event.EventType,
		Status:     event.Status,
		OccurredAt: event.Timestamp,
	})
	if err != nil {
		util.RecordError(span, err)
		return fmt.Errorf("failed to record order event: %w", err)
	}
	if !recorded {
		return nil
	}

	util.OrderEventsAuditedTotal.WithLabelValues(event.EventType).Inc()
	a.logger.Info("Order event audited",
		zap.String("order_id", event.OrderID),
		zap.String("event_type", event.EventType),
		zap.String("status", event.Status))
	return nil
}

// HandleProductReviewed counts review events per star rating. Ratings and
// averages are persisted by the catalog when the review is written, so the
// worker keeps no state for them.
func (a *OrderAuditor) HandleProductReviewed(ctx context.Context, event *models.ProductReviewedEvent) error {
	_, span := util.StartSpan(ctx, "OrderAuditor.HandleProductReviewed",
		attribute.String("event.id", event.EventID),
		attribute.String("product.id", event.ProductID))
	defer span.End()

	if event.ProductID == "" || event.Rating < 1 || event.Rating > 5 {
		a.logger.Warn("Dropping malformed review event", zap.String("event_id", event.EventID))
		return nil
	}

	util.ReviewEventsConsumedTotal.WithLabelValues(strconv.Itoa(event.Rating)).Inc()
	a.logger.Info("Product reviewed",
		zap.String("product_id", event.ProductID),
		zap.Int("rating", event.Rating),
		zap.Float64("new_average", event.NewAverage))
	return nil
}
