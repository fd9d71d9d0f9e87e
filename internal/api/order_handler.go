package api

import (
	"net/http"
	"strings"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

// placeOrder handles checkout. A replayed Idempotency-Key answers 200 with the
// original order instead of 201.
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	result, err := h.orders.PlaceOrder(c.Request.Context(), identityFrom(c).AccountID, &req, key)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Replayed {
		respond(c, http.StatusOK, "Order already created", gin.H{"order": result.Order})
		return
	}
	respond(c, http.StatusCreated, "Order created successfully", gin.H{"order": result.Order})
}

func (h *Handler) myOrders(c *gin.Context) {
	orders, pagination, err := h.orders.ListOwnOrders(c.Request.Context(),
		identityFrom(c).AccountID, pageRequest(c, models.DefaultListLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"orders": orders, "pagination": pagination})
}

func (h *Handler) listOrders(c *gin.Context) {
	f := models.OrderFilter{Status: c.Query("status")}

	var fields []apperr.FieldError
	var fe *apperr.FieldError
	if f.IsPaid, fe = boolQuery(c, "isPaid"); fe != nil {
		fields = append(fields, *fe)
	}
	if f.IsDelivered, fe = boolQuery(c, "isDelivered"); fe != nil {
		fields = append(fields, *fe)
	}
	if len(fields) > 0 {
		respondError(c, apperr.Validation("Validation failed", fields...))
		return
	}

	orders, pagination, err := h.orders.ListOrders(c.Request.Context(), identityFrom(c), f,
		pageRequest(c, models.DefaultListLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"orders": orders, "pagination": pagination})
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"order": order})
}

func (h *Handler) orderHistory(c *gin.Context) {
	history, err := h.orders.OrderHistory(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if history == nil {
		history = []models.OrderHistoryEntry{}
	}
	respond(c, http.StatusOK, "", gin.H{"history": history})
}

func (h *Handler) payOrder(c *gin.Context) {
	var result models.PaymentResult
	if !bindOptionalJSON(c, &result) {
		return
	}

	order, err := h.orders.MarkPaid(c.Request.Context(), identityFrom(c), c.Param("id"), &result)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order updated to paid", gin.H{"order": order})
}

type deliverRequest struct {
	TrackingNumber string `json:"trackingNumber"`
}

func (h *Handler) deliverOrder(c *gin.Context) {
	var req deliverRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	order, err := h.orders.MarkDelivered(c.Request.Context(), identityFrom(c), c.Param("id"),
		strings.TrimSpace(req.TrackingNumber))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order updated to delivered", gin.H{"order": order})
}

func (h *Handler) setOrderStatus(c *gin.Context) {
	var req service.SetStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.SetStatus(c.Request.Context(), identityFrom(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order status updated", gin.H{"order": order})
}
