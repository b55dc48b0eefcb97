package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loglens/backend/internal/middleware"
	"github.com/loglens/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mysqlDoc = "2024-01-01T00:00:00.000Z 1 [ERROR] [MY-010000] [Server] disk full\n" +
	"2024-01-01T00:00:01.000Z 1 [Warning] [MY-010001] [InnoDB] slow flush\n"

func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			reply := `{"summary":"Storage ran out.","fix_suggestion":"Free space.","resources":[]}`
			json.NewEncoder(w).Encode(services.OllamaGenerateResponse{Response: reply, Done: true})
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"llama3"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	llm := services.NewLLMService(services.LLMConfig{BaseURL: fakeOllama(t).URL, Model: "llama3"})
	analysis := services.NewAnalysisService(services.AnalysisConfig{
		Summarizer: services.NewSummarizer(llm, nil, 2),
		Store:      services.NewMemoryRunStore(),
	})

	r := gin.New()
	SetupRoutes(r, Deps{
		Analysis:  analysis,
		LLM:       llm,
		Discovery: services.NewPatternDiscovery(llm),
		JWTSecret: secret,
		MaxUpload: 1 << 20,
	})
	return r
}

func upload(t *testing.T, r http.Handler, query, name, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("logfile", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs/analyze"+query, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFormatsEndpoints(t *testing.T) {
	r := newTestRouter(t, "")

	w := send(r, http.MethodGet, "/api/v1/formats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Formats []struct {
			ID     string   `json:"id"`
			Fields []string `json:"fields"`
		} `json:"formats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Formats, 7)
	assert.Equal(t, "apache", list.Formats[0].ID)

	w = send(r, http.MethodPost, "/api/v1/formats/detect", `{"text":"2024-01-01T00:00:00.000Z 1 [ERROR] [MY-1] [Server] x"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"format":"mysql"`)

	w = send(r, http.MethodPost, "/api/v1/formats/detect", `{"text":"hello"}`)
	assert.JSONEq(t, `{"format":"unknown"}`, w.Body.String())

	w = send(r, http.MethodPost, "/api/v1/formats/detect", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNormalizeEndpoint(t *testing.T) {
	r := newTestRouter(t, "")

	body, _ := json.Marshal(map[string]string{"text": mysqlDoc})
	w := send(r, http.MethodPost, "/api/v1/formats/normalize", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"structured"`)

	w = send(r, http.MethodPost, "/api/v1/formats/normalize", `{"text":"hello"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = send(r, http.MethodPost, "/api/v1/formats/normalize", `{"text":"hello","format":"nope"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = send(r, http.MethodPost, "/api/v1/formats/normalize", `{"text":" \n ","format":"nginx"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"format":"nginx","mode":"empty","entries":[]}`, w.Body.String())
}

func TestAnalyzeLifecycle(t *testing.T) {
	r := newTestRouter(t, "")

	w := upload(t, r, "?summarize=true", "mysql.log", mysqlDoc)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Report services.AnalysisReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	report := created.Report
	assert.Equal(t, "mysql", report.FormatID)
	require.Len(t, report.Entries, 2)
	require.NotNil(t, report.Entries[0].Diagnostic)
	assert.Equal(t, "Storage ran out.", report.Entries[0].Diagnostic.Summary)

	w = send(r, http.MethodGet, "/api/v1/logs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), report.ID)

	w = send(r, http.MethodGet, "/api/v1/logs/"+report.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodGet, "/api/v1/logs/"+report.ID+"/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.ExportExcel.ContentType(), w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "mysql.log.xlsx")
	assert.NotZero(t, w.Body.Len())

	w = send(r, http.MethodGet, "/api/v1/logs/"+report.ID+"/export?format=csv", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodGet, "/api/v1/llm/api-calls", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)

	w = send(r, http.MethodDelete, "/api/v1/llm/api-calls", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodDelete, "/api/v1/logs/"+report.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodGet, "/api/v1/logs/"+report.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeErrors(t *testing.T) {
	r := newTestRouter(t, "")

	w := upload(t, r, "", "notes.txt", "just some prose")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = send(r, http.MethodPost, "/api/v1/logs/analyze", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, r, "", "big.log", strings.Repeat("x", 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestLLMStatus(t *testing.T) {
	r := newTestRouter(t, "")

	w := send(r, http.MethodGet, "/api/v1/llm/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status["status"])
	assert.Equal(t, "llama3", status["currentModel"])
	assert.Equal(t, []interface{}{"llama3"}, status["availableModels"])
}

func TestRoutesRequireTokenWhenSecretSet(t *testing.T) {
	r := newTestRouter(t, "s3cret")

	w := send(r, http.MethodGet, "/api/v1/formats", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := middleware.GenerateToken("s3cret", "cli", "admin", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
