package handlers

import (
	"net/http"
	"order_manager/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Orders  *OrderHandler
	Catalog *CatalogHandler
	Auth    *AuthHandler
	Logger  *zap.Logger
}

// NewRouter wires every route on a fresh gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(logger.Recovery(deps.Logger), logger.GinMiddleware(deps.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	orders := router.Group("/orders")
	{
		orders.GET("", deps.Orders.ListOrders)
		orders.POST("", deps.Orders.CreateOrder)
		orders.GET("/:id", deps.Orders.GetOrder)
		orders.PATCH("/:id", deps.Orders.UpdateOrder)
		orders.PATCH("/:id/status", deps.Orders.UpdateOrderStatus)
		orders.DELETE("/:id", deps.Orders.DeleteOrder)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", deps.Catalog.ListCategories)
		categories.POST("", deps.Catalog.CreateCategory)
		categories.GET("/:id", deps.Catalog.GetCategory)
		categories.PATCH("/:id", deps.Catalog.UpdateCategory)
		categories.DELETE("/:id", deps.Catalog.DeleteCategory)
	}

	products := router.Group("/products")
	{
		products.GET("", deps.Catalog.ListProducts)
		products.POST("", deps.Catalog.CreateProduct)
		products.GET("/:id", deps.Catalog.GetProduct)
		products.PATCH("/:id", deps.Catalog.UpdateProduct)
		products.DELETE("/:id", deps.Catalog.DeleteProduct)
		products.POST("/:id/variants", deps.Catalog.CreateVariant)
		products.PATCH("/:id/variants/:variant_id", deps.Catalog.UpdateVariant)
		products.DELETE("/:id/variants/:variant_id", deps.Catalog.DeleteVariant)
	}

	users := router.Group("/users")
	{
		users.POST("/register", deps.Auth.RegisterUser)
		users.POST("/login", deps.Auth.LoginUser)
	}

	clients := router.Group("/clients")
	{
		clients.POST("/register", deps.Auth.RegisterClient)
		clients.POST("/login", deps.Auth.LoginClient)
		clients.DELETE("/:id", deps.Auth.DeleteClient)
	}

	return router
}
