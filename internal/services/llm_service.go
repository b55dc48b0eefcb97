package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loglens/backend/internal/logger"
	"golang.org/x/time/rate"
)

// maxTrackedCalls bounds the in-memory API call history.
const maxTrackedCalls = 100

// Call types recorded in the API call history.
const (
	CallTypeSummary        = "summary"
	CallTypeClassification = "format_classification"
	CallTypeDiscovery      = "pattern_discovery"
)

// ErrLLMUnavailable wraps transport failures talking to the model server.
var ErrLLMUnavailable = errors.New("LLM service not available")

// Generator produces a completion for a prompt. LLMService is the production
// implementation.
type Generator interface {
	Generate(ctx context.Context, prompt, callType string) (string, error)
}

// LLMConfig configures the Ollama client.
type LLMConfig struct {
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64 // zero disables rate limiting
	HTTPClient        *http.Client
}

type LLMService struct {
	baseURL   string
	llmModel  string
	client    *http.Client
	limiter   *rate.Limiter
	apiCalls  []LLMAPICall
	callMutex sync.RWMutex
}

type OllamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Format  string                 `json:"format,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type OllamaGenerateResponse struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	CreatedAt string `json:"created_at"`
}

type OllamaModelsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// LLMAPI Call tracking
type LLMAPICall struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Endpoint  string                 `json:"endpoint"`
	Model     string                 `json:"model"`
	CallType  string                 `json:"callType"`
	Payload   map[string]interface{} `json:"payload"`
	Status    int                    `json:"status"`
	Duration  time.Duration          `json:"duration"`
	Response  string                 `json:"response"`
	Error     string                 `json:"error,omitempty"`
}

func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second // Default 5 minutes
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &LLMService{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		llmModel: cfg.Model,
		client:   client,
		limiter:  limiter,
		apiCalls: make([]LLMAPICall, 0),
	}
}

// Model returns the model name used for generation.
func (ls *LLMService) Model() string {
	return ls.llmModel
}

// BaseURL returns the model server address.
func (ls *LLMService) BaseURL() string {
	return ls.baseURL
}

// GetAPICalls returns all tracked LLM API calls
func (ls *LLMService) GetAPICalls() []LLMAPICall {
	ls.callMutex.RLock()
	defer ls.callMutex.RUnlock()

	// Return a copy to avoid race conditions
	calls := make([]LLMAPICall, len(ls.apiCalls))
	copy(calls, ls.apiCalls)
	return calls
}

// ClearAPICalls clears the API call history
func (ls *LLMService) ClearAPICalls() {
	ls.callMutex.Lock()
	defer ls.callMutex.Unlock()
	ls.apiCalls = make([]LLMAPICall, 0)
}

// addAPICall adds a new API call to the tracking list
func (ls *LLMService) addAPICall(call LLMAPICall) {
	ls.callMutex.Lock()
	defer ls.callMutex.Unlock()

	if len(ls.apiCalls) >= maxTrackedCalls {
		ls.apiCalls = ls.apiCalls[1:]
	}
	ls.apiCalls = append(ls.apiCalls, call)
}

// trackAPICall records the outcome of one generate call.
func (ls *LLMService) trackAPICall(callType string, payload map[string]interface{}, status int, duration time.Duration, response string, err string) {
	ls.addAPICall(LLMAPICall{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Endpoint:  "/api/generate",
		Model:     ls.llmModel,
		CallType:  callType,
		Payload:   payload,
		Status:    status,
		Duration:  duration,
		Response:  response,
		Error:     err,
	})
}

// Generate sends prompt to the model and returns its reply. Calls wait for
// the rate limiter and honour ctx for cancellation.
func (ls *LLMService) Generate(ctx context.Context, prompt, callType string) (string, error) {
	startTime := time.Now()
	payload := map[string]interface{}{"prompt_length": len(prompt)}

	if ls.limiter != nil {
		if err := ls.limiter.Wait(ctx); err != nil {
			ls.trackAPICall(callType, payload, 0, time.Since(startTime), "", err.Error())
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	request := OllamaGenerateRequest{
		Model:  ls.llmModel,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": 0.2,
			"top_p":       0.8,
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		ls.trackAPICall(callType, payload, 0, time.Since(startTime), "", fmt.Sprintf("failed to marshal request: %v", err))
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", ls.baseURL)
	log := logger.WithLLM(callType)
	log.WithField("prompt_length", len(prompt)).Debug("Making LLM request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		ls.trackAPICall(callType, payload, 0, time.Since(startTime), "", fmt.Sprintf("failed to create request: %v", err))
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ls.client.Do(req)
	elapsed := time.Since(startTime)
	if err != nil {
		log.WithField("elapsed", elapsed.String()).Warn("LLM request failed")
		ls.trackAPICall(callType, payload, 0, elapsed, "", fmt.Sprintf("HTTP request failed: %v", err))
		return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	log.WithFields(map[string]interface{}{
		"elapsed": elapsed.String(),
		"status":  resp.StatusCode,
	}).Debug("LLM request completed")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := fmt.Sprintf("Ollama API returned status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		ls.trackAPICall(callType, payload, resp.StatusCode, elapsed, "", msg)
		return "", errors.New(msg)
	}

	var ollamaResp OllamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		ls.trackAPICall(callType, payload, resp.StatusCode, elapsed, "", fmt.Sprintf("failed to decode Ollama response: %v", err))
		return "", fmt.Errorf("failed to decode Ollama response: %w", err)
	}

	ls.trackAPICall(callType, payload, resp.StatusCode, elapsed, ollamaResp.Response, "")
	return ollamaResp.Response, nil
}

// CheckLLMHealth checks that the model server answers.
func (ls *LLMService) CheckLLMHealth(ctx context.Context) error {
	resp, err := ls.getTags(ctx)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// GetAvailableModels returns the list of available models
func (ls *LLMService) GetAvailableModels(ctx context.Context) ([]string, error) {
	resp, err := ls.getTags(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var modelsResp OllamaModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}

	modelNames := make([]string, 0, len(modelsResp.Models))
	for _, model := range modelsResp.Models {
		modelNames = append(modelNames, model.Name)
	}
	return modelNames, nil
}

func (ls *LLMService) getTags(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ls.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := ls.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("LLM service returned status %d", resp.StatusCode)
	}
	return resp, nil
}

// cleanLLMResponse strips markdown code fences the model may wrap around
// its answer.
func cleanLLMResponse(response string) string {
	clean := strings.TrimSpace(response)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
		// Drop a language tag such as ```json or ```regex.
		if i := strings.IndexByte(clean, '\n'); i >= 0 && !strings.ContainsAny(clean[:i], " {[(") {
			clean = clean[i+1:]
		}
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}
