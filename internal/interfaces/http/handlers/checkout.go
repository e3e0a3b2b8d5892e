// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pcstore-backend/internal/domain/checkout"
	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"github.com/your-org/pcstore-backend/internal/domain/pcbuild"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/middleware"
)

// CheckoutService is the checkout behavior the handler needs
type CheckoutService interface {
	CreateFromCart(ctx context.Context, userID uint, req checkout.CreateRequest) (*checkout.Session, error)
	CreateFromUserCart(ctx context.Context, userID uint, address checkout.Address, paymentMethod string, declaredTotal interface{}) (*checkout.Session, error)
	CreateFromBuild(ctx context.Context, userID, buildID uint, address checkout.Address, paymentMethod string) (*checkout.Session, error)
	Get(ctx context.Context, userID, id uint) (*checkout.Session, error)
	RecordPayment(ctx context.Context, userID, id uint, status string, details map[string]interface{}) (*checkout.Session, error)
	Finalize(ctx context.Context, userID, id uint) (*checkout.FinalizeResult, error)
}

// BuildPreviewer prices a build for display
type BuildPreviewer interface {
	Preview(ctx context.Context, actor identity.Owner, buildID uint) (*pcbuild.Preview, error)
}

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkouts CheckoutService
	builds    BuildPreviewer
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkouts CheckoutService, builds BuildPreviewer) *CheckoutHandler {
	return &CheckoutHandler{checkouts: checkouts, builds: builds}
}

// BuildCheckoutRequest creates a checkout from a build. Prices always
// come from the catalog.
type BuildCheckoutRequest struct {
	ShippingAddress checkout.Address `json:"shipping_address"`
	PaymentMethod   string           `json:"payment_method"`
}

// PaymentRequest records the payment provider's callback
type PaymentRequest struct {
	Status         string                 `json:"status" binding:"required"`
	PaymentDetails map[string]interface{} `json:"payment_details"`
}

// CreateCheckout handles POST /checkout. Without checkout_items the
// caller's live cart is snapshotted.
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req checkout.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	var (
		session *checkout.Session
		err     error
	)
	if req.Lines == nil {
		session, err = h.checkouts.CreateFromUserCart(c.Request.Context(), userID, req.ShippingAddress, req.PaymentMethod, req.DeclaredTotal)
	} else {
		session, err = h.checkouts.CreateFromCart(c.Request.Context(), userID, req)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Checkout created successfully", session)
}

// CreateBuildCheckout handles POST /checkout/builds/:buildId
func (h *CheckoutHandler) CreateBuildCheckout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	buildID, ok := uintParam(c, "buildId")
	if !ok {
		return
	}

	var req BuildCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	session, err := h.checkouts.CreateFromBuild(c.Request.Context(), userID, buildID, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Build checkout created successfully", session)
}

// PreviewBuildCheckout handles GET /checkout/builds/:buildId/preview
func (h *CheckoutHandler) PreviewBuildCheckout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	buildID, ok := uintParam(c, "buildId")
	if !ok {
		return
	}

	preview, err := h.builds.Preview(c.Request.Context(), identity.UserOwner(userID), buildID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Build checkout preview", preview)
}

// GetCheckout handles GET /checkout/:id
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	session, err := h.checkouts.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Checkout retrieved successfully", session)
}

// RecordPayment handles PUT /checkout/:id/pay
func (h *CheckoutHandler) RecordPayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	session, err := h.checkouts.RecordPayment(c.Request.Context(), userID, id, req.Status, req.PaymentDetails)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Payment recorded successfully", session)
}

// FinalizeCheckout handles POST /checkout/:id/finalize
func (h *CheckoutHandler) FinalizeCheckout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	result, err := h.checkouts.Finalize(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Checkout finalized successfully", result)
}

func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
			"code":  "authentication_required",
		})
		return 0, false
	}
	return userID, true
}
