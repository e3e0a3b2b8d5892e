// internal/interfaces/http/handlers/order.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pcstore-backend/internal/domain/order"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/middleware"
)

// OrderService is the order behavior the handler needs
type OrderService interface {
	ListForUser(ctx context.Context, userID uint, page, limit int) (*order.OrderResponse, error)
	GetForUser(ctx context.Context, userID uint, isAdmin bool, id uint) (*order.Order, error)
	MarkDelivered(ctx context.Context, id, adminID uint, comment string) (*order.Order, error)
}

// OrderHandler handles order endpoints
type OrderHandler struct {
	orders OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// DeliveryRequest marks an order delivered
type DeliveryRequest struct {
	Comment string `json:"comment"`
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	// Invalid values fall back to the service defaults
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.orders.ListForUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Orders retrieved successfully", result)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	result, err := h.orders.GetForUser(c.Request.Context(), userID, middleware.IsAdminFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Order retrieved successfully", result)
}

// AdminMarkDelivered handles PUT /admin/orders/:id/delivery
func (h *OrderHandler) AdminMarkDelivered(c *gin.Context) {
	adminID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req DeliveryRequest
	// An empty body is allowed
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
	}

	result, err := h.orders.MarkDelivered(c.Request.Context(), id, adminID, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Order marked as delivered", result)
}
