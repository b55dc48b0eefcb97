package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/services"
)

type FormatController struct {
	normalizer *logformat.Normalizer
	discovery  *services.PatternDiscovery
}

// NewFormatController serves the catalog. discovery may be nil.
func NewFormatController(normalizer *logformat.Normalizer, discovery *services.PatternDiscovery) *FormatController {
	return &FormatController{normalizer: normalizer, discovery: discovery}
}

// TextRequest carries a log excerpt in a JSON body.
type TextRequest struct {
	Text   string `json:"text" binding:"required"`
	Format string `json:"format"`
}

type formatResponse struct {
	ID      string   `json:"id"`
	Detect  string   `json:"detect"`
	Extract string   `json:"extract"`
	Fields  []string `json:"fields"`
}

func toFormatResponse(spec logformat.FormatSpec) formatResponse {
	return formatResponse{
		ID:      spec.ID,
		Detect:  spec.Detect.String(),
		Extract: spec.Extract.String(),
		Fields:  spec.Fields(),
	}
}

// GetFormats lists the catalog in detection order
func (fc *FormatController) GetFormats(c *gin.Context) {
	specs := fc.normalizer.Catalog().Formats()
	formats := make([]formatResponse, 0, len(specs))
	for _, spec := range specs {
		formats = append(formats, toFormatResponse(spec))
	}
	c.JSON(http.StatusOK, gin.H{"formats": formats})
}

// DetectFormat identifies the format of a text excerpt
func (fc *FormatController) DetectFormat(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := fc.normalizer.Detect(req.Text)
	if !result.Known() {
		c.JSON(http.StatusOK, gin.H{"format": logformat.Unknown})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"format": result.FormatID,
		"spec":   toFormatResponse(*result.Spec),
	})
}

// NormalizeText extracts entries from a text excerpt without summaries
func (fc *FormatController) NormalizeText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		result logformat.Result
		err    error
	)
	if req.Format != "" {
		result, err = fc.normalizer.NormalizeAs(req.Text, req.Format)
	} else {
		result, err = fc.normalizer.Normalize(req.Text)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ClassifyFormat asks the model to name an unknown format
func (fc *FormatController) ClassifyFormat(c *gin.Context) {
	if fc.discovery == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Format classification is not configured"})
		return
	}

	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	guess, err := fc.discovery.ClassifyFormat(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classification": guess})
}
