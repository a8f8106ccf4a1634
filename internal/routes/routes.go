package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopora/shopora-golang/internal/handlers"
	"github.com/shopora/shopora-golang/internal/middleware"
)

// CORSMiddleware allows the configured frontend origin to call the API,
// including the Authorization header used for Bearer tokens.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupRouter wires every route group: public catalog reads, authenticated
// cart/checkout/order routes, and the admin-only surface.
func SetupRouter(h *handlers.Handlers, corsOrigin string) *gin.Engine {
	router := gin.Default()
	router.Use(CORSMiddleware(corsOrigin))

	v1 := router.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Catalog Reads ---
		v1.GET("/products/:id", h.GetProduct)

		// --- Authenticated Routes ---
		authed := v1.Group("/")
		authed.Use(middleware.AuthMiddleware(h.DB))
		{
			authed.GET("/cart", h.GetCart)
			authed.POST("/cart/items", h.AddToCart)
			authed.PUT("/cart/items/:product_id", h.UpdateCartItem)
			authed.DELETE("/cart/items/:product_id", h.DeleteCartItem)
			authed.DELETE("/cart", h.ClearCart)

			authed.POST("/checkout", h.Checkout)

			authed.GET("/orders/:id", h.GetOrderDetails)
			authed.GET("/orders/:id/timeline", h.GetOrderTimeline)
			authed.GET("/orders/user/:user_id", h.GetUserOrders)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(h.DB))
		admin.Use(middleware.AdminMiddleware())
		{
			admin.POST("/products", h.CreateProduct)
			admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
		}
	}

	return router
}
