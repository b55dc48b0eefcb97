package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loglens/backend/internal/ingest"
	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/logger"
	"github.com/loglens/backend/internal/services"
)

type LogController struct {
	analysis   *services.AnalysisService
	llmService *services.LLMService
	exporter   *services.ExportService
	maxUpload  int64
}

// NewLogController builds the log endpoints. llmService may be nil when no
// model is configured.
func NewLogController(analysis *services.AnalysisService, llmService *services.LLMService, maxUpload int64) *LogController {
	if maxUpload <= 0 {
		maxUpload = ingest.DefaultMaxSize
	}
	return &LogController{
		analysis:   analysis,
		llmService: llmService,
		exporter:   services.NewExportService(),
		maxUpload:  maxUpload,
	}
}

// AnalyzeLogFile runs the pipeline on an uploaded file
func (lc *LogController) AnalyzeLogFile(c *gin.Context) {
	file, err := c.FormFile("logfile")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if file.Size > lc.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File exceeds %d bytes", lc.maxUpload)})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, lc.maxUpload))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}

	opts := services.AnalyzeOptions{
		Filename:  file.Filename,
		FormatID:  c.Query("format"),
		Unique:    queryBool(c, "unique", false),
		Summarize: queryBool(c, "summarize", lc.llmService != nil),
	}

	report, err := lc.analysis.Analyze(c.Request.Context(), raw, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Log file analyzed successfully",
		"report":  report,
	})
}

// GetLogFiles lists stored analysis runs
func (lc *LogController) GetLogFiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	runs, total, err := lc.analysis.ListReports(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logFiles": runs,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetLogFile returns a stored report with its entries
func (lc *LogController) GetLogFile(c *gin.Context) {
	report, err := lc.analysis.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ExportLogFile downloads a stored report as json, xlsx or pdf
func (lc *LogController) ExportLogFile(c *gin.Context) {
	format, err := services.ParseExportFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := lc.analysis.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	name := report.ID
	if report.Filename != "" {
		name = strings.TrimSuffix(report.Filename, ".gz")
	}
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"."+string(format)))
	c.Status(http.StatusOK)
	if err := lc.exporter.Export(c.Writer, format, report); err != nil {
		logger.WithError(err, "export").WithField("run_id", report.ID).Error("Export failed")
		c.Error(err)
	}
}

// DeleteLogFile removes a stored run
func (lc *LogController) DeleteLogFile(c *gin.Context) {
	if err := lc.analysis.DeleteReport(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Log file deleted successfully"})
}

// GetLLMStatus returns the status of the LLM service and available models
func (lc *LogController) GetLLMStatus(c *gin.Context) {
	if lc.llmService == nil {
		c.JSON(http.StatusOK, gin.H{"status": "disabled"})
		return
	}

	ctx := c.Request.Context()
	status := "healthy"
	var healthError string
	if err := lc.llmService.CheckLLMHealth(ctx); err != nil {
		status = "unhealthy"
		healthError = err.Error()
	}

	var modelsError string
	models, err := lc.llmService.GetAvailableModels(ctx)
	if err != nil {
		modelsError = err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          status,
		"healthError":     healthError,
		"currentModel":    lc.llmService.Model(),
		"availableModels": models,
		"modelsError":     modelsError,
		"ollamaUrl":       lc.llmService.BaseURL(),
	})
}

// GetLLMAPICalls returns the most recent model calls
func (lc *LogController) GetLLMAPICalls(c *gin.Context) {
	if lc.llmService == nil {
		c.JSON(http.StatusOK, gin.H{"calls": []services.LLMAPICall{}, "total": 0})
		return
	}
	calls := lc.llmService.GetAPICalls()
	c.JSON(http.StatusOK, gin.H{"calls": calls, "total": len(calls)})
}

// ClearLLMAPICalls empties the call history
func (lc *LogController) ClearLLMAPICalls(c *gin.Context) {
	if lc.llmService != nil {
		lc.llmService.ClearAPICalls()
	}
	c.JSON(http.StatusOK, gin.H{"message": "LLM API calls cleared"})
}

// respondError maps pipeline errors to status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, logformat.ErrUnsupportedFormat):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, logformat.ErrInvalidInput), errors.Is(err, logformat.ErrInvalidPattern):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Log file not found"})
	case errors.Is(err, services.ErrLLMUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.WithError(err, "api").WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func queryBool(c *gin.Context, key string, fallback bool) bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
