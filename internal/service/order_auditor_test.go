package service

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store/memstore"
	"storefront-service/internal/util"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderAuditorRecordsOnce(t *testing.T) {
	repo := memstore.New()
	auditor := NewOrderAuditor(repo)
	ctx := context.Background()

	event := &models.OrderEvent{
		BaseEvent: models.BaseEvent{EventID: "e-1", EventType: models.EventTypeOrderStatusChanged, Timestamp: time.Now()},
		OrderID:   "o-1",
		Status:    models.OrderStatusShipped,
	}

	require.NoError(t, auditor.HandleOrderEvent(ctx, event))
	require.NoError(t, auditor.HandleOrderEvent(ctx, event))

	history, err := repo.GetOrderHistory(ctx, "o-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OrderStatusShipped, history[0].Status)
}

func TestOrderAuditorSkipsMalformed(t *testing.T) {
	repo := memstore.New()
	auditor := NewOrderAuditor(repo)

	require.NoError(t, auditor.HandleOrderEvent(context.Background(), &models.OrderEvent{OrderID: "o-1"}))

	history, err := repo.GetOrderHistory(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestOrderAuditorCountsReviewEvents(t *testing.T) {
	auditor := NewOrderAuditor(memstore.New())
	ctx := context.Background()
	fourStars := util.ReviewEventsConsumedTotal.WithLabelValues("4")
	before := testutil.ToFloat64(fourStars)

	event := &models.ProductReviewedEvent{
		BaseEvent:  models.BaseEvent{EventID: "r-1", EventType: models.EventTypeProductReviewed},
		ProductID:  "p-1",
		UserID:     "u-1",
		Rating:     4,
		NewAverage: 4,
		NumReviews: 1,
	}
	require.NoError(t, auditor.HandleProductReviewed(ctx, event))
	assert.Equal(t, before+1, testutil.ToFloat64(fourStars))

	require.NoError(t, auditor.HandleProductReviewed(ctx, &models.ProductReviewedEvent{Rating: 4}))
	require.NoError(t, auditor.HandleProductReviewed(ctx, &models.ProductReviewedEvent{ProductID: "p-1", Rating: 9}))
	assert.Equal(t, before+1, testutil.ToFloat64(fourStars))
}
