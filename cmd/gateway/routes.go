package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mes-dashboard/config"
	"mes-dashboard/internal/gateway/clients"
	"mes-dashboard/internal/gateway/handlers"
	"mes-dashboard/internal/gateway/middleware"
)

func main() {
	cfg := config.LoadConfig()
	logger := config.NewLogger(cfg.LogLevel)

	grpcClients, err := clients.NewGRPCClients(cfg.Consumption.ServiceURL)
	if err != nil {
		logger.Warnf("Consumption service may be unavailable: %v", err)
	}
	defer grpcClients.Close()

	r, err := setupRouter(cfg, logger, grpcClients)
	if err != nil {
		logger.Fatalf("Failed to set up router: %v", err)
	}

	logger.WithField("addr", cfg.Gateway.Addr).Info("Starting gateway")
	if err := r.Run(cfg.Gateway.Addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(cfg config.Config, logger *logrus.Logger, grpcClients *clients.GRPCClients) (*gin.Engine, error) {
	rateLimit, err := middleware.RateLimit(cfg.Gateway.RateLimit)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg.Gateway.AllowedOrigins))
	r.Use(middleware.Logger(logger))
	r.Use(gin.Recovery())
	r.Use(rateLimit)
	r.Use(serviceHealthMiddleware(grpcClients))

	var consumptionHandler *handlers.ConsumptionHTTPHandler
	if grpcClients != nil && grpcClients.Consumption != nil {
		consumptionHandler = handlers.NewConsumptionHTTPHandler(grpcClients.Consumption, logger)
	}

	api := r.Group("/api/v1")
	{
		orders := api.Group("/orders/:order")
		{
			if consumptionHandler != nil {
				orders.GET("/consumption", consumptionHandler.GetConsumptionPage)
				orders.GET("/consumption/export", consumptionHandler.ExportConsumption)
				orders.GET("/batches", consumptionHandler.ListBatches)
				orders.GET("/planned-quantity", consumptionHandler.GetPlannedQuantity)
				orders.DELETE("/recipe-totals/cache", consumptionHandler.InvalidateRecipeTotals)
			} else {
				orders.GET("/consumption", serviceUnavailableHandler("Consumption service"))
				orders.GET("/consumption/export", serviceUnavailableHandler("Consumption service"))
				orders.GET("/batches", serviceUnavailableHandler("Consumption service"))
				orders.GET("/planned-quantity", serviceUnavailableHandler("Consumption service"))
				orders.DELETE("/recipe-totals/cache", serviceUnavailableHandler("Consumption service"))
			}
		}
	}

	r.GET("/health", healthCheckHandler(grpcClients))
	r.GET("/health/detailed", detailedHealthCheckHandler(grpcClients))

	return r, nil
}

func serviceUnavailableHandler(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": serviceName + " is currently unavailable",
			"error":   "SERVICE_UNAVAILABLE",
		})
	}
}

func serviceHealthMiddleware(grpcClients *clients.GRPCClients) gin.HandlerFunc {
	return func(c *gin.Context) {
		if grpcClients != nil && grpcClients.Consumption != nil {
			c.Header("X-Consumption-Service", "available")
		} else {
			c.Header("X-Consumption-Service", "unavailable")
		}
		c.Next()
	}
}

func healthCheckHandler(grpcClients *clients.GRPCClients) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		httpStatus := http.StatusOK

		unavailableServices := []string{}
		if grpcClients == nil || grpcClients.Consumption == nil {
			unavailableServices = append(unavailableServices, "consumption")
		}

		if len(unavailableServices) > 0 {
			status = "degraded"
			httpStatus = http.StatusPartialContent
		}

		c.JSON(httpStatus, gin.H{
			"status":               status,
			"message":              "Server is running",
			"unavailable_services": unavailableServices,
			"timestamp":            time.Now(),
		})
	}
}

func detailedHealthCheckHandler(grpcClients *clients.GRPCClients) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		services := map[string]map[string]string{
			"consumption": checkServiceHealth(grpcClients.IsConsumptionServiceHealthy(ctx)),
		}

		overallStatus := "healthy"
		for _, service := range services {
			if service["status"] != "healthy" {
				overallStatus = "degraded"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"overall_status": overallStatus,
			"services":       services,
			"timestamp":      time.Now(),
		})
	}
}

func checkServiceHealth(isHealthy bool) map[string]string {
	if !isHealthy {
		return map[string]string{
			"status":  "unavailable",
			"message": "Service client not initialized or connection lost",
		}
	}
	return map[string]string{
		"status":  "healthy",
		"message": "Service is responding",
	}
}
