package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loglens/backend/internal/app"
	"github.com/loglens/backend/internal/config"
	"github.com/loglens/backend/internal/db"
	"github.com/loglens/backend/internal/logger"
	"github.com/loglens/backend/internal/middleware"
	"github.com/loglens/backend/internal/routes"
)

const version = "1.0.0"

func main() {
	cfg, loaded, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	if err := logger.Initialize(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		logger.Fatal("Failed to initialize logger", map[string]interface{}{"error": err.Error()})
	}
	if !loaded {
		logger.Warn("No .env file found, using environment variables", nil)
	}

	a, err := app.New(cfg, app.Options{UseDatabase: true, UseLLM: true, UseCache: true})
	if err != nil {
		logger.Fatal("Failed to initialize services", map[string]interface{}{"error": err.Error()})
	}
	defer a.Close()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.MaxMultipartMemory = cfg.MaxUploadMB << 20

	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigin()))
	r.Use(gin.Recovery())

	r.GET("/health", healthHandler(a))

	routes.SetupRoutes(r, routes.Deps{
		Analysis:  a.Analysis,
		LLM:       a.LLM,
		Discovery: a.Discovery,
		JWTSecret: cfg.JWTSecret,
		MaxUpload: cfg.MaxUploadMB << 20,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	logger.Info("Starting LogLens server", map[string]interface{}{
		"port":     cfg.Port,
		"gin_mode": gin.Mode(),
		"database": a.DB != nil,
		"auth":     cfg.JWTSecret != "",
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", map[string]interface{}{"error": err.Error()})
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	logger.Info("Shutting down server gracefully...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
	} else {
		logger.Info("Server exited gracefully", nil)
	}
}

// healthHandler reports database and model reachability. Only a configured
// database that fails its ping makes the service unhealthy.
func healthHandler(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		services := gin.H{}
		statusCode := http.StatusOK
		overallStatus := "ok"

		dbStatus := gin.H{"status": "disabled"}
		if a.DB != nil {
			if err := db.Ping(a.DB); err != nil {
				dbStatus = gin.H{"status": "error", "error": err.Error()}
				overallStatus = "error"
				statusCode = http.StatusServiceUnavailable
			} else {
				dbStatus = gin.H{"status": "ok"}
			}
		}
		services["database"] = dbStatus

		llmStatus := gin.H{"status": "disabled"}
		if a.LLM != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := a.LLM.CheckLLMHealth(ctx); err != nil {
				llmStatus = gin.H{"status": "error", "error": err.Error()}
			} else {
				llmStatus = gin.H{"status": "ok"}
			}
		}
		services["llm"] = llmStatus

		c.JSON(statusCode, gin.H{
			"status":    overallStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   version,
			"services":  services,
		})
	}
}
