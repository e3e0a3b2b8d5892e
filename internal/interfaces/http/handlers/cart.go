// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/your-org/pcstore-backend/internal/domain/cart"
	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/middleware"
	"github.com/your-org/pcstore-backend/internal/pkg/apperr"
	"github.com/your-org/pcstore-backend/internal/pkg/money"
)

// CartService is the cart behavior the handler needs
type CartService interface {
	GetCart(ctx context.Context, owner identity.Owner) (*cart.Cart, error)
	AddLine(ctx context.Context, owner identity.Owner, productID uint, quantity int, size, color string) (*cart.Cart, error)
	AddBuildLine(ctx context.Context, owner identity.Owner, buildID uint, quantity int) (*cart.Cart, error)
	UpdateLineQuantity(ctx context.Context, owner identity.Owner, key lineitem.Key, quantity int) (*cart.Cart, error)
	RemoveLine(ctx context.Context, owner identity.Owner, key lineitem.Key) (*cart.Cart, error)
	MergeGuestIntoUser(ctx context.Context, sessionID string, userID uint) (*cart.MergeResult, error)
}

// CartHandler handles cart endpoints
type CartHandler struct {
	carts CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// CartResponse is the wire shape of a cart
type CartResponse struct {
	ID         uint            `json:"id,omitempty"`
	OwnerKind  identity.Kind   `json:"owner_kind"`
	Items      []lineitem.Line `json:"cart_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Summary    cart.Totals     `json:"summary"`
	Version    int             `json:"version"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

func newCartResponse(c *cart.Cart) CartResponse {
	resp := CartResponse{
		ID:         c.ID,
		OwnerKind:  c.Owner.Kind(),
		Items:      c.Lines,
		TotalPrice: c.TotalPrice,
		Summary:    c.Totals(),
		Version:    c.Version,
	}
	if resp.Items == nil {
		resp.Items = []lineitem.Line{}
	}
	if c.Persisted() {
		updated := c.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// AddItemRequest adds a catalog product. Quantity accepts a number or a
// numeric string and defaults to 1.
type AddItemRequest struct {
	ProductID uint        `json:"product_id" binding:"required"`
	Quantity  interface{} `json:"quantity"`
	Size      string      `json:"size"`
	Color     string      `json:"color"`
}

// LineKeyRequest identifies an existing line
type LineKeyRequest struct {
	Ref   lineitem.Ref `json:"ref"`
	Size  string       `json:"size"`
	Color string       `json:"color"`
}

func (r LineKeyRequest) key() lineitem.Key {
	return lineitem.Key{Ref: r.Ref, Size: r.Size, Color: r.Color}
}

// UpdateItemRequest sets the quantity of an existing line; 0 removes it
type UpdateItemRequest struct {
	LineKeyRequest
	Quantity interface{} `json:"quantity"`
}

// AddBuildRequest adds a priced PC build as one line
type AddBuildRequest struct {
	BuildID  uint        `json:"build_id" binding:"required"`
	Quantity interface{} `json:"quantity"`
}

// MergeResponse reports which branch the login merge took
type MergeResponse struct {
	State cart.MergeState `json:"state"`
	Cart  CartResponse    `json:"cart"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	result, err := h.carts.GetCart(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Cart retrieved successfully", newCartResponse(result))
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	quantity, err := quantityOrDefault(req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.carts.AddLine(c.Request.Context(), owner, req.ProductID, quantity, req.Size, req.Color)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Item added to cart successfully", newCartResponse(result))
}

// UpdateItem handles PUT /cart/items
func (h *CartHandler) UpdateItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	quantity, err := money.ParseQuantity(req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.carts.UpdateLineQuantity(c.Request.Context(), owner, req.key(), quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Cart item updated successfully", newCartResponse(result))
}

// RemoveItem handles DELETE /cart/items
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var req LineKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.carts.RemoveLine(c.Request.Context(), owner, req.key())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Item removed from cart successfully", newCartResponse(result))
}

// AddBuild handles POST /cart/builds
func (h *CartHandler) AddBuild(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var req AddBuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	quantity, err := quantityOrDefault(req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.carts.AddBuildLine(c.Request.Context(), owner, req.BuildID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Build added to cart successfully", newCartResponse(result))
}

// MergeCart handles POST /cart/merge. The guest session comes from the
// guest cookie or header of the logging-in browser.
func (h *CartHandler) MergeCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := middleware.GetGuestSessionFromContext(c)
	if !ok {
		respondError(c, apperr.Validation("guest session is required", "guest_session"))
		return
	}

	result, err := h.carts.MergeGuestIntoUser(c.Request.Context(), sessionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Cart merged successfully", MergeResponse{
		State: result.State,
		Cart:  newCartResponse(result.Cart),
	})
}

func (h *CartHandler) owner(c *gin.Context) (identity.Owner, bool) {
	owner, ok := middleware.GetOwnerFromContext(c)
	if !ok {
		respondError(c, apperr.Validation("cart owner is required", "owner"))
		return identity.Owner{}, false
	}
	return owner, true
}

func quantityOrDefault(v interface{}) (int, error) {
	if v == nil {
		return 1, nil
	}
	return money.ParseQuantity(v)
}
