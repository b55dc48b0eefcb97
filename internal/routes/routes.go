package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/loglens/backend/internal/controllers"
	"github.com/loglens/backend/internal/middleware"
	"github.com/loglens/backend/internal/services"
)

// Deps are the services behind the API. LLM and Discovery may be nil.
type Deps struct {
	Analysis  *services.AnalysisService
	LLM       *services.LLMService
	Discovery *services.PatternDiscovery
	JWTSecret string
	MaxUpload int64
}

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, deps Deps) {
	logController := controllers.NewLogController(deps.Analysis, deps.LLM, deps.MaxUpload)
	formatController := controllers.NewFormatController(deps.Analysis.Normalizer(), deps.Discovery)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(deps.JWTSecret))
	{
		formats := api.Group("/formats")
		{
			formats.GET("", formatController.GetFormats)
			formats.POST("/detect", formatController.DetectFormat)
			formats.POST("/normalize", formatController.NormalizeText)
			formats.POST("/classify", formatController.ClassifyFormat)
		}

		logs := api.Group("/logs")
		{
			logs.POST("/analyze", logController.AnalyzeLogFile)
			logs.GET("", logController.GetLogFiles)
			logs.GET("/:id", logController.GetLogFile)
			logs.GET("/:id/export", logController.ExportLogFile)
			logs.DELETE("/:id", logController.DeleteLogFile)
		}

		llm := api.Group("/llm")
		{
			llm.GET("/status", logController.GetLLMStatus)
			llm.GET("/api-calls", logController.GetLLMAPICalls)
			llm.DELETE("/api-calls", logController.ClearLLMAPICalls)
		}
	}
}
