package worker

import (
	"context"

	"storefront-service/internal/broker"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// OrderAuditWorker consumes storefront events and feeds the order auditor
type OrderAuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewOrderAuditWorker creates a new audit worker
func NewOrderAuditWorker(consumer *broker.Consumer, auditor *service.OrderAuditor) *OrderAuditWorker {
	return &OrderAuditWorker{
		consumer:     consumer,
		eventHandler: NewEventHandler(auditor),
		logger:       util.GetLogger(),
	}
}

// NewEventHandler wires the auditor callbacks onto a broker event handler.
func NewEventHandler(auditor *service.OrderAuditor) *broker.EventHandler {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderEvent(auditor.HandleOrderEvent)
	eventHandler.OnProductReviewed(auditor.HandleProductReviewed)
	return eventHandler
}

// Start blocks consuming events until ctx is cancelled
func (w *OrderAuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting order audit worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderAuditWorker) Stop() error {
	w.logger.Info("Stopping order audit worker")
	return w.consumer.Close()
}
