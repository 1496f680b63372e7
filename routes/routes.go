package routes

import (
	"net/http"

	"food-order-bot/handlers"
	"food-order-bot/middleware"

	"github.com/gin-gonic/gin"
)

type Options struct {
	JWTSecret []byte
	Limiter   *middleware.RateLimiter
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, opts Options) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Food Order Bot",
			"version": "1.0.0",
		})
	})

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.GET("/menu", h.GetMenu)
		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Chat platform users ────────────────────────────────────────
	customer := r.Group("/api")
	customer.Use(middleware.AuthRequired(opts.JWTSecret), middleware.RoleRequired(middleware.RoleCustomer))
	{
		chat := customer.Group("/chat")
		if opts.Limiter != nil {
			chat.Use(middleware.RateLimit(opts.Limiter))
		}
		chat.POST("", h.Chat)
		customer.GET("/conversation", h.GetConversation)
		customer.GET("/orders", h.GetMyOrders)
		customer.GET("/orders/:id", h.GetOrderDetail)
	}

	// ── Staff routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(opts.JWTSecret), middleware.RoleRequired(middleware.RoleStaff))
	{
		admin.GET("/orders/:id", h.AdminGetOrder)
		admin.PUT("/orders/:id/status", h.AdminUpdateOrderStatus)
	}
}
