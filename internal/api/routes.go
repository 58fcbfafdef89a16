package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/clutch-picks/backend/internal/api/handlers"
	"github.com/codyseavey/clutch-picks/backend/internal/config"
	"github.com/codyseavey/clutch-picks/backend/internal/metrics"
)

// Services bundles what the router serves
type Services struct {
	Dashboard   handlers.DashboardReader
	Marketplace handlers.Marketplace
	Predictor   handlers.Predictor
	Leaderboard handlers.Leaderboard
	// Ping reports whether the database is reachable
	Ping func() error
}

func SetupRouter(cfg config.ServerConfig, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	frontendPath := cfg.FrontendDistPath
	serveFrontend := frontendPath != "" && dirExists(frontendPath)

	// CORS configuration - allow configured origins
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", handlers.UserIDHeader}
	corsConfig.AllowCredentials = false // Explicitly set
	router.Use(cors.New(corsConfig))

	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	marketplaceHandler := handlers.NewMarketplaceHandler(svc.Marketplace)
	predictionHandler := handlers.NewPredictionHandler(svc.Predictor)
	leaderboardHandler := handlers.NewLeaderboardHandler(svc.Leaderboard)

	// API routes
	api := router.Group("/api")
	{
		// Dashboard routes
		dashboard := api.Group("/users/:id/dashboard")
		{
			dashboard.GET("/metrics", dashboardHandler.GetMetrics)
			dashboard.GET("/performance", dashboardHandler.GetPerformance)
			dashboard.GET("/activity", dashboardHandler.GetActivity)
		}

		// Marketplace routes
		marketplace := api.Group("/marketplace")
		{
			marketplace.GET("/featured", marketplaceHandler.GetFeatured)
			marketplace.GET("/clutch", marketplaceHandler.GetClutch)
			marketplace.GET("/categories", marketplaceHandler.GetCategories)
			marketplace.POST("/picks/:id/purchase", marketplaceHandler.PurchasePick)
		}

		api.POST("/predictions", predictionHandler.Predict)

		// Leaderboard routes
		leaderboard := api.Group("/leaderboard")
		{
			leaderboard.GET("", leaderboardHandler.GetLeaderboard)
			// Without a token, snapshots are left to the schedule and cmd/migrate -snapshot
			if cfg.AdminToken != "" {
				leaderboard.POST("/snapshot", handlers.RequireAdminToken(cfg.AdminToken), leaderboardHandler.TakeSnapshot)
			}
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		if svc.Ping != nil {
			if err := svc.Ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Serve frontend static files
	if serveFrontend {
		indexPath := filepath.Join(frontendPath, "index.html")

		router.Static("/assets", filepath.Join(frontendPath, "assets"))
		router.StaticFile("/favicon.ico", filepath.Join(frontendPath, "favicon.ico"))

		router.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})

		// SPA fallback - serve index.html for all non-API routes
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.File(indexPath)
		})
	} else {
		router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		})
	}

	return router
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
