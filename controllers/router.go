package controllers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/middleware"
	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/kendall-kelly/cafe-manager-api/services"
	"github.com/rs/zerolog/log"
)

// SetupRouter builds the engine with the global middleware and every /api/v1 route
func SetupRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		gin.Recovery(),
		cors.New(corsConfig(cfg)),
	)

	RegisterRoutes(router.Group("/api/v1"), cfg)
	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		c.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return c
}

// RegisterRoutes mounts the café API on v1
func RegisterRoutes(v1 *gin.RouterGroup, cfg *config.Config) {
	store := services.GetTokenStore()
	if store == nil {
		log.Warn().Msg("No token store configured, revocations are kept in memory")
		store = services.NewMemoryTokenStore()
		services.SetTokenStore(store)
	}

	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst, 10*time.Minute)
	v1.POST("/auth/login", middleware.RateLimit(loginLimiter), Login)
	v1.GET("/uploads/:filename", GetUploadedImage)

	authed := v1.Group("")
	authed.Use(middleware.EnsureValidToken(cfg, store), middleware.LoadCurrentUser(LoadUser))
	{
		authed.POST("/auth/logout", Logout)
		authed.GET("/auth/me", GetCurrentUser)
		authed.GET("/dashboard", GetDashboard)

		authed.GET("/orders", ListOrders)
		authed.POST("/orders", CreateOrder)
		authed.GET("/orders/:id", GetOrder)

		authed.GET("/menu", ListMenuItems)
		authed.GET("/menu/:id", GetMenuItem)

		authed.GET("/reports/daily-sales", GetDailySales)
		authed.GET("/reports/popular-items", GetPopularItems)
		authed.GET("/reports/staff-performance", GetStaffPerformance)
		authed.GET("/reports/summary", GetSummary)
	}

	managers := authed.Group("")
	managers.Use(middleware.RequireRole(models.RoleAdmin, models.RoleManager))
	{
		managers.PATCH("/orders/:id/status", UpdateOrderStatus)
		managers.DELETE("/orders/:id", DeleteOrder)

		managers.POST("/menu", CreateMenuItem)
		managers.PUT("/menu/:id", UpdateMenuItem)
		managers.DELETE("/menu/:id", DeleteMenuItem)
		managers.POST("/menu/:id/image", UploadMenuItemImage)

		managers.GET("/staff", ListStaff)
		managers.POST("/staff", CreateStaff)
		managers.GET("/staff/:id", GetStaff)
		managers.PUT("/staff/:id", UpdateStaff)
		managers.DELETE("/staff/:id", DeleteStaff)
	}

	admins := authed.Group("")
	admins.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admins.GET("/users", ListUsers)
		admins.POST("/users", CreateUser)
		admins.GET("/users/:id", GetUser)
		admins.PATCH("/users/:id/role", UpdateUserRole)
		admins.DELETE("/users/:id", DeleteUser)

		admins.GET("/audit-logs", ListAuditLogs)
	}
}
