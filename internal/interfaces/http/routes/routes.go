// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/handlers"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/middleware"
)

// Handlers bundles the API handlers
type Handlers struct {
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Order    *handlers.OrderHandler
}

// SetupCartRoutes sets up cart related routes. Guests and users share them.
func SetupCartRoutes(rg *gin.RouterGroup, h *handlers.CartHandler) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.PUT("/items", h.UpdateItem)
		cart.DELETE("/items", h.RemoveItem)
		cart.POST("/builds", h.AddBuild)

		cart.POST("/merge", middleware.RequireAuth(), h.MergeCart)
	}
}

// SetupCheckoutRoutes sets up checkout related routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, h *handlers.CheckoutHandler) {
	checkout := rg.Group("/checkout")
	checkout.Use(middleware.RequireAuth())
	{
		checkout.POST("", h.CreateCheckout)
		checkout.POST("/builds/:buildId", h.CreateBuildCheckout)
		checkout.GET("/builds/:buildId/preview", h.PreviewBuildCheckout)
		checkout.GET("/:id", h.GetCheckout)
		checkout.PUT("/:id/pay", h.RecordPayment)
		checkout.POST("/:id/finalize", h.FinalizeCheckout)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *handlers.OrderHandler) {
	orders := rg.Group("/orders")
	orders.Use(middleware.RequireAuth())
	{
		orders.GET("", h.GetOrders)
		orders.GET("/:id", h.GetOrder)
	}
}

// SetupAdminRoutes sets up admin routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *handlers.OrderHandler) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.PUT("/orders/:id/delivery", h.AdminMarkDelivered)
	}
}

// SetupRoutes sets up all API routes
func SetupRoutes(rg *gin.RouterGroup, h Handlers) {
	SetupCartRoutes(rg, h.Cart)
	SetupCheckoutRoutes(rg, h.Checkout)
	SetupOrderRoutes(rg, h.Order)
	SetupAdminRoutes(rg, h.Order)
}
