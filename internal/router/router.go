// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/freshtrace/registry-backend/internal/config"
	"github.com/freshtrace/registry-backend/internal/database"
	"github.com/freshtrace/registry-backend/internal/handlers"
	"github.com/freshtrace/registry-backend/internal/middleware"
	"github.com/freshtrace/registry-backend/internal/registry"
	"github.com/freshtrace/registry-backend/internal/services"
	"github.com/freshtrace/registry-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	store := database.NewStore(db)
	registryService, err := services.NewRegistryService(registry.Identity(cfg.Registry.OwnerIdentity), store)
	if err != nil {
		return nil, err
	}
	eventService := services.NewEventService(db)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(registryService)
	adminHandler := handlers.NewAdminHandler(registryService)
	eventHandler := handlers.NewEventHandler(eventService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Product routes
		products := v1.Group("/products")
		{
			products.GET("/:id", productHandler.GetProduct)
			products.GET("/:id/history", productHandler.GetTransferHistory)
			products.GET("/:id/expired", productHandler.IsProductExpired)
			products.GET("/:id/events", eventHandler.GetProductEvents)

			// Mutations
			protected := products.Group("")
			protected.Use(middleware.AuthRequired(), middleware.MutationRateLimit())
			{
				protected.POST("", productHandler.RegisterProduct)
				protected.POST("/:id/transfer", productHandler.TransferProduct)
				protected.PUT("/:id/freshness", productHandler.UpdateFreshness)
			}
		}

		// Authorized updater management
		updaters := v1.Group("/updaters")
		{
			updaters.GET("/:identity", adminHandler.GetUpdaterStatus)

			protected := updaters.Group("")
			protected.Use(middleware.AuthRequired(), middleware.MutationRateLimit())
			{
				protected.POST("", adminHandler.AddAuthorizedUpdater)
				protected.DELETE("/:identity", adminHandler.RemoveAuthorizedUpdater)
			}
		}

		// Notification stream for external log/index consumers
		events := v1.Group("/events")
		{
			events.GET("", eventHandler.GetEvents)
		}

		// Statistics routes
		stats := v1.Group("/stats")
		{
			stats.GET("/registry", productHandler.GetRegistryStats)
		}
	}

	return r, nil
}
