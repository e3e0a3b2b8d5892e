package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pcstore-backend/internal/config"
	"github.com/your-org/pcstore-backend/internal/domain/cart"
	"github.com/your-org/pcstore-backend/internal/domain/checkout"
	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
	"github.com/your-org/pcstore-backend/internal/domain/order"
	"github.com/your-org/pcstore-backend/internal/domain/pcbuild"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/middleware"
	"github.com/your-org/pcstore-backend/internal/pkg/apperr"
	"github.com/your-org/pcstore-backend/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
	binding.EnableDecoderUseNumber = true
}

var jwtm = auth.NewJWTManager(&config.Config{
	App: config.AppConfig{Name: "test"},
	JWT: config.JWTConfig{Secret: "test-secret-that-is-at-least-32-chars", AccessTokenExpiry: time.Hour},
})

type fakeCarts struct {
	owner     identity.Owner
	productID uint
	quantity  int
	key       lineitem.Key
	sessionID string
	err       error
}

func (f *fakeCarts) cart(owner identity.Owner) *cart.Cart {
	c := cart.Empty(owner)
	if f.quantity > 0 {
		c.ID = 1
		c.Version = 1
		c.Lines = []lineitem.Line{{
			Ref:       lineitem.CatalogRef(f.productID),
			Name:      "RTX 4070",
			UnitPrice: decimal.NewFromInt(60000),
			Quantity:  f.quantity,
		}}
		c.TotalPrice = lineitem.Sum(c.Lines)
	}
	return c
}

func (f *fakeCarts) GetCart(_ context.Context, owner identity.Owner) (*cart.Cart, error) {
	f.owner = owner
	return f.cart(owner), f.err
}

func (f *fakeCarts) AddLine(_ context.Context, owner identity.Owner, productID uint, quantity int, _, _ string) (*cart.Cart, error) {
	f.owner, f.productID, f.quantity = owner, productID, quantity
	if f.err != nil {
		return nil, f.err
	}
	return f.cart(owner), nil
}

func (f *fakeCarts) AddBuildLine(_ context.Context, owner identity.Owner, buildID uint, quantity int) (*cart.Cart, error) {
	f.owner, f.quantity = owner, quantity
	return f.cart(owner), f.err
}

func (f *fakeCarts) UpdateLineQuantity(_ context.Context, owner identity.Owner, key lineitem.Key, quantity int) (*cart.Cart, error) {
	f.owner, f.key, f.quantity = owner, key, quantity
	if f.err != nil {
		return nil, f.err
	}
	return f.cart(owner), nil
}

func (f *fakeCarts) RemoveLine(_ context.Context, owner identity.Owner, key lineitem.Key) (*cart.Cart, error) {
	f.owner, f.key = owner, key
	if f.err != nil {
		return nil, f.err
	}
	return f.cart(owner), nil
}

func (f *fakeCarts) MergeGuestIntoUser(_ context.Context, sessionID string, userID uint) (*cart.MergeResult, error) {
	f.sessionID = sessionID
	return &cart.MergeResult{State: cart.GuestOnly, Cart: f.cart(identity.UserOwner(userID))}, f.err
}

type fakeCheckouts struct {
	calls    []string
	declared interface{}
	lines    []checkout.LineInput
	err      error
}

func (f *fakeCheckouts) session(userID uint) *checkout.Session {
	return &checkout.Session{ID: 9, UserID: userID, TotalPrice: decimal.NewFromInt(150000)}
}

func (f *fakeCheckouts) CreateFromCart(_ context.Context, userID uint, req checkout.CreateRequest) (*checkout.Session, error) {
	f.calls = append(f.calls, "cart")
	f.lines, f.declared = req.Lines, req.DeclaredTotal
	if f.err != nil {
		return nil, f.err
	}
	return f.session(userID), nil
}

func (f *fakeCheckouts) CreateFromUserCart(_ context.Context, userID uint, _ checkout.Address, _ string, declared interface{}) (*checkout.Session, error) {
	f.calls = append(f.calls, "live_cart")
	f.declared = declared
	if f.err != nil {
		return nil, f.err
	}
	return f.session(userID), nil
}

func (f *fakeCheckouts) CreateFromBuild(_ context.Context, userID, buildID uint, _ checkout.Address, _ string) (*checkout.Session, error) {
	f.calls = append(f.calls, "build")
	if f.err != nil {
		return nil, f.err
	}
	return f.session(userID), nil
}

func (f *fakeCheckouts) Get(_ context.Context, userID, _ uint) (*checkout.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session(userID), nil
}

func (f *fakeCheckouts) RecordPayment(_ context.Context, userID, _ uint, _ string, _ map[string]interface{}) (*checkout.Session, error) {
	f.calls = append(f.calls, "pay")
	if f.err != nil {
		return nil, f.err
	}
	return f.session(userID), nil
}

func (f *fakeCheckouts) Finalize(_ context.Context, userID, _ uint) (*checkout.FinalizeResult, error) {
	f.calls = append(f.calls, "finalize")
	if f.err != nil {
		return nil, f.err
	}
	return &checkout.FinalizeResult{Session: f.session(userID), OrderID: 3, CartCleared: true}, nil
}

type fakePreviewer struct {
	actor identity.Owner
}

func (f *fakePreviewer) Preview(_ context.Context, actor identity.Owner, buildID uint) (*pcbuild.Preview, error) {
	f.actor = actor
	return &pcbuild.Preview{BuildID: buildID, Lines: []lineitem.Line{}, Purchasable: true}, nil
}

type fakeOrders struct {
	isAdmin bool
	err     error
}

func (f *fakeOrders) ListForUser(_ context.Context, _ uint, page, limit int) (*order.OrderResponse, error) {
	return &order.OrderResponse{Orders: []order.Order{}, Pagination: order.Pagination{Page: page, Limit: limit}}, f.err
}

func (f *fakeOrders) GetForUser(_ context.Context, userID uint, isAdmin bool, id uint) (*order.Order, error) {
	f.isAdmin = isAdmin
	if f.err != nil {
		return nil, f.err
	}
	return &order.Order{ID: id, UserID: userID}, nil
}

func (f *fakeOrders) MarkDelivered(_ context.Context, id, _ uint, _ string) (*order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &order.Order{ID: id, DeliveryState: order.DeliveryDelivered}, nil
}

type testAPI struct {
	router    *gin.Engine
	carts     *fakeCarts
	checkouts *fakeCheckouts
	previews  *fakePreviewer
	orders    *fakeOrders
}

func newTestAPI() *testAPI {
	api := &testAPI{
		router:    gin.New(),
		carts:     &fakeCarts{},
		checkouts: &fakeCheckouts{},
		previews:  &fakePreviewer{},
		orders:    &fakeOrders{},
	}
	ch := NewCartHandler(api.carts)
	co := NewCheckoutHandler(api.checkouts, api.previews)
	oh := NewOrderHandler(api.orders)

	r := api.router.Group("/api/v1")
	r.Use(middleware.Identity(jwtm, middleware.IdentityOptions{GuestTTL: time.Hour}))
	r.GET("/cart", ch.GetCart)
	r.POST("/cart/items", ch.AddItem)
	r.PUT("/cart/items", ch.UpdateItem)
	r.DELETE("/cart/items", ch.RemoveItem)
	r.POST("/cart/builds", ch.AddBuild)
	r.POST("/cart/merge", ch.MergeCart)
	r.POST("/checkout", co.CreateCheckout)
	r.POST("/checkout/builds/:buildId", co.CreateBuildCheckout)
	r.GET("/checkout/builds/:buildId/preview", co.PreviewBuildCheckout)
	r.GET("/checkout/:id", co.GetCheckout)
	r.PUT("/checkout/:id/pay", co.RecordPayment)
	r.POST("/checkout/:id/finalize", co.FinalizeCheckout)
	r.GET("/orders", oh.GetOrders)
	r.GET("/orders/:id", oh.GetOrder)
	r.PUT("/admin/orders/:id/delivery", oh.AdminMarkDelivered)
	return api
}

type call struct {
	method  string
	path    string
	body    string
	userID  uint
	isAdmin bool
	headers map[string]string
}

func (api *testAPI) do(t *testing.T, c call) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != 0 {
		token, err := jwtm.GenerateAccessToken(c.userID, c.isAdmin)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func TestStatusFor(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindInvalidAmount:         http.StatusBadRequest,
		apperr.KindValidation:            http.StatusBadRequest,
		apperr.KindTotalMismatch:         http.StatusBadRequest,
		apperr.KindPaymentAmountMismatch: http.StatusBadRequest,
		apperr.KindInvalidPaymentStatus:  http.StatusBadRequest,
		apperr.KindNotAuthorized:         http.StatusForbidden,
		apperr.KindNotFound:              http.StatusNotFound,
		apperr.KindPaymentRequired:       http.StatusPaymentRequired,
		apperr.KindAlreadyFinalized:      http.StatusConflict,
		apperr.KindConflict:              http.StatusConflict,
		apperr.KindInternal:              http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), string(kind))
	}
}

func TestCart_GuestGetsEmptyCart(t *testing.T) {
	api := newTestAPI()

	w, body := api.do(t, call{method: http.MethodGet, path: "/api/v1/cart"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, api.carts.owner.IsGuest())
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "guest", data["owner_kind"])
	assert.Equal(t, []interface{}{}, data["cart_items"])
	assert.NotEmpty(t, w.Header().Get(middleware.GuestHeaderName))
}

func TestCart_AddItemParsesQuantity(t *testing.T) {
	api := newTestAPI()

	w, _ := api.do(t, call{
		method: http.MethodPost,
		path:   "/api/v1/cart/items",
		body:   `{"product_id": 5, "quantity": "2"}`,
		userID: 42,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, identity.UserOwner(42), api.carts.owner)
	assert.Equal(t, uint(5), api.carts.productID)
	assert.Equal(t, 2, api.carts.quantity)

	w, _ = api.do(t, call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"product_id": 5}`})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, api.carts.quantity)
}

func TestCart_AddItemRejectsFractionalQuantity(t *testing.T) {
	api := newTestAPI()

	w, body := api.do(t, call{
		method: http.MethodPost,
		path:   "/api/v1/cart/items",
		body:   `{"product_id": 5, "quantity": 1.5}`,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_amount", body["code"])
	assert.Equal(t, uint(0), api.carts.productID)
}

func TestCart_AddItemRequiresProduct(t *testing.T) {
	api := newTestAPI()

	w, body := api.do(t, call{method: http.MethodPost, path: "/api/v1/cart/items", body: `{"quantity": 1}`})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", body["code"])
}

func TestCart_UpdateAndRemoveUseLineKey(t *testing.T) {
	api := newTestAPI()
	want := lineitem.Key{Ref: lineitem.BuildRef(7), Size: "", Color: "black"}

	w, _ := api.do(t, call{
		method: http.MethodPut,
		path:   "/api/v1/cart/items",
		body:   `{"ref": {"kind": "build", "id": 7}, "color": "black", "quantity": 0}`,
		userID: 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, want, api.carts.key)
	assert.Equal(t, 0, api.carts.quantity)

	api.carts.err = cart.ErrLineNotFound
	w, body := api.do(t, call{
		method: http.MethodDelete,
		path:   "/api/v1/cart/items",
		body:   `{"ref": {"kind": "build", "id": 7}, "color": "black"}`,
		userID: 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "line_not_found", body["code"])
	assert.Equal(t, want, api.carts.key)
}

func TestCart_Merge(t *testing.T) {
	api := newTestAPI()

	w, _ := api.do(t, call{method: http.MethodPost, path: "/api/v1/cart/merge"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := api.do(t, call{
		method:  http.MethodPost,
		path:    "/api/v1/cart/merge",
		userID:  42,
		headers: map[string]string{middleware.GuestHeaderName: "guest_browser1"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guest_browser1", api.carts.sessionID)
	assert.Equal(t, "guest_only", body["data"].(map[string]interface{})["state"])
}

func TestCart_MergeWithoutGuestSession(t *testing.T) {
	api := newTestAPI()

	w, body := api.do(t, call{method: http.MethodPost, path: "/api/v1/cart/merge", userID: 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", body["code"])
}

func TestCheckout_CreateChoosesSource(t *testing.T) {
	api := newTestAPI()

	w, _ := api.do(t, call{
		method: http.MethodPost,
		path:   "/api/v1/checkout",
		body:   `{"shipping_address": {"address": "1 Main St"}, "payment_method": "card"}`,
		userID: 42,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = api.do(t, call{
		method: http.MethodPost,
		path:   "/api/v1/checkout",
		body:   `{"checkout_items": [{"ref": {"kind": "catalog", "id": 1}, "name": "RTX 4070", "unit_price": "150000.00", "quantity": 1}], "total_price": 150000.00}`,
		userID: 42,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"live_cart", "cart"}, api.checkouts.calls)
	require.Len(t, api.checkouts.lines, 1)
	assert.Equal(t, "150000.00", api.checkouts.lines[0].UnitPrice)
	assert.Equal(t, json.Number("150000.00"), api.checkouts.declared)
}

func TestCheckout_CreateRequiresUser(t *testing.T) {
	api := newTestAPI()

	w, body := api.do(t, call{method: http.MethodPost, path: "/api/v1/checkout", body: `{}`})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "authentication_required", body["code"])
	assert.Empty(t, api.checkouts.calls)
}

func TestCheckout_TotalMismatchCarriesDetails(t *testing.T) {
	api := newTestAPI()
	api.checkouts.err = checkout.ErrTotalMismatch.WithDetails(map[string]interface{}{
		"declared":   "150000.011",
		"expected":   "150000",
		"difference": "0.011",
	})

	w, body := api.do(t, call{
		method: http.MethodPost,
		path:   "/api/v1/checkout",
		body:   `{"checkout_items": [], "total_price": 1}`,
		userID: 42,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "total_mismatch", body["code"])
	details := body["details"].(map[string]interface{})
	assert.Equal(t, "0.011", details["difference"])
}

func TestCheckout_StateErrors(t *testing.T) {
	api := newTestAPI()

	api.checkouts.err = checkout.ErrPaymentRequired
	w, body := api.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/9/finalize", userID: 42})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "payment_required", body["code"])

	api.checkouts.err = checkout.ErrAlreadyFinalized
	w, _ = api.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/9/finalize", userID: 42})
	assert.Equal(t, http.StatusConflict, w.Code)

	api.checkouts.err = checkout.ErrSessionNotFound
	w, _ = api.do(t, call{method: http.MethodGet, path: "/api/v1/checkout/9", userID: 42})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckout_FinalizeReturnsOrder(t *testing.T) {
	api := newTestAPI()

	w, body := api.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/9/finalize", userID: 42})
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["order_id"])
	assert.Equal(t, true, data["cart_cleared"])
}

func TestCheckout_PayRequiresStatus(t *testing.T) {
	api := newTestAPI()

	w, _ := api.do(t, call{method: http.MethodPut, path: "/api/v1/checkout/9/pay", body: `{}`, userID: 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(t, call{method: http.MethodPut, path: "/api/v1/checkout/9/pay", body: `{"status": "paid"}`, userID: 42})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"pay"}, api.checkouts.calls)
}

func TestCheckout_BuildRoutes(t *testing.T) {
	api := newTestAPI()

	w, _ := api.do(t, call{method: http.MethodGet, path: "/api/v1/checkout/builds/7/preview", userID: 42})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, identity.UserOwner(42), api.previews.actor)

	w, _ = api.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/builds/7", body: `{"payment_method": "card"}`, userID: 42})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = api.do(t, call{method: http.MethodPost, path: "/api/v1/checkout/builds/abc", body: `{}`, userID: 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrders(t *testing.T) {
	api := newTestAPI()

	w, body := api.do(t, call{method: http.MethodGet, path: "/api/v1/orders?page=2&limit=5", userID: 42})
	require.Equal(t, http.StatusOK, w.Code)
	pagination := body["data"].(map[string]interface{})["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["page"])
	assert.Equal(t, float64(5), pagination["limit"])

	w, _ = api.do(t, call{method: http.MethodGet, path: "/api/v1/orders/3", userID: 1, isAdmin: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, api.orders.isAdmin)

	w, _ = api.do(t, call{method: http.MethodPut, path: "/api/v1/admin/orders/3/delivery", userID: 1, isAdmin: true})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	api := newTestAPI()
	api.orders.err = errors.New("pq: connection reset by peer")

	w, body := api.do(t, call{method: http.MethodGet, path: "/api/v1/orders/3", userID: 42})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, w.Body.String(), "connection reset")
}

type stubPinger struct{ err error }

func (p stubPinger) Health(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	r := gin.New()
	h := NewHealthHandler("1.0.0", "test", map[string]Pinger{
		"database": stubPinger{},
		"redis":    stubPinger{err: errors.New("down")},
	})
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unhealthy"`)
	assert.Contains(t, w.Body.String(), `"database":"healthy"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
