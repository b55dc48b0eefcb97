package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mysqlDoc = `2024-01-01T00:00:00.000Z 42 [ERROR] [MY-1234] [Repl] disk full
2024-01-01T00:00:01.000Z 43 [Warning] [MY-010055] [Server] IP address could not be resolved
2024-01-01T00:00:02.000Z 42 [ERROR] [MY-1234] [Repl] disk full
`

func newTestAnalysis(llm Generator, store RunStore) *AnalysisService {
	cfg := AnalysisConfig{Store: store}
	if llm != nil {
		cfg.Summarizer = NewSummarizer(llm, nil, 2)
		cfg.Discovery = NewPatternDiscovery(llm)
	}
	return NewAnalysisService(cfg)
}

func TestAnalyze_Structured(t *testing.T) {
	store := NewMemoryRunStore()
	svc := newTestAnalysis(&fakeLLM{respond: echoSummary}, store)

	report, err := svc.Analyze(context.Background(), []byte(mysqlDoc), AnalyzeOptions{Filename: "mysql.log", Summarize: true})
	require.NoError(t, err)

	assert.Equal(t, "mysql", report.FormatID)
	assert.Equal(t, logformat.ModeStructured, report.Mode)
	assert.Equal(t, models.RunStatusCompleted, report.Status)
	require.Len(t, report.Entries, 3)
	assert.Equal(t, 2, report.ErrorCount)
	assert.Equal(t, 1, report.WarningCount)
	assert.Equal(t, "low", report.Severity)
	assert.Zero(t, report.FailedSummaries)

	first := report.Entries[0]
	assert.Equal(t, models.LogLevelError, first.Level)
	require.NotNil(t, first.Timestamp)
	require.NotNil(t, first.Diagnostic)
	assert.Equal(t, "volume full", first.Diagnostic.Summary)

	stored, err := svc.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, stored.ID)
	assert.Len(t, stored.Entries, 3)
}

func TestAnalyze_UniqueAndNoSummaries(t *testing.T) {
	llm := &fakeLLM{respond: echoSummary}
	svc := newTestAnalysis(llm, nil)

	report, err := svc.Analyze(context.Background(), []byte(mysqlDoc), AnalyzeOptions{Unique: true})
	require.NoError(t, err)
	assert.Len(t, report.Entries, 3, "thread timestamps differ so entries stay distinct")
	assert.Zero(t, llm.calls())

	doc := mysqlDoc + "2024-01-01T00:00:02.000Z 42 [ERROR] [MY-1234] [Repl] disk full\n"
	report, err = svc.Analyze(context.Background(), []byte(doc), AnalyzeOptions{Unique: true})
	require.NoError(t, err)
	assert.Len(t, report.Entries, 3)
}

func TestAnalyze_RawFallbackFromGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("Starting queue worker\nConnection established\n[2024-01-01 10:00:00] local.ERROR: boom\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	report, err := newTestAnalysis(nil, nil).Analyze(context.Background(), buf.Bytes(), AnalyzeOptions{Summarize: true})
	require.NoError(t, err)
	assert.Equal(t, "gzip", report.Compression)
	assert.Equal(t, "laravel", report.FormatID)
	assert.Equal(t, logformat.ModeRaw, report.Mode)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, models.LogLevelError, report.Entries[1].Level)
	assert.Nil(t, report.Entries[1].Diagnostic)
}

func TestAnalyze_SummaryFailuresAreCounted(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) { return "", errors.New("model crashed") }}

	report, err := newTestAnalysis(llm, nil).Analyze(context.Background(), []byte(mysqlDoc), AnalyzeOptions{Summarize: true})
	require.NoError(t, err)
	assert.Equal(t, 3, report.FailedSummaries)
	for _, e := range report.Entries {
		assert.Equal(t, "model crashed", e.Error)
	}
}

func TestAnalyze_Unsupported(t *testing.T) {
	_, err := newTestAnalysis(nil, nil).Analyze(context.Background(), []byte("nothing recognizable"), AnalyzeOptions{})
	assert.ErrorIs(t, err, logformat.ErrUnsupportedFormat)

	_, err = newTestAnalysis(nil, nil).Analyze(context.Background(), nil, AnalyzeOptions{})
	assert.ErrorIs(t, err, logformat.ErrUnsupportedFormat)
}

func TestAnalyze_ForcedFormat(t *testing.T) {
	svc := newTestAnalysis(nil, nil)

	report, err := svc.Analyze(context.Background(), []byte("free text line"), AnalyzeOptions{FormatID: "nginx"})
	require.NoError(t, err)
	assert.Equal(t, "nginx", report.FormatID)
	assert.Equal(t, logformat.ModeRaw, report.Mode)

	_, err = svc.Analyze(context.Background(), []byte("x"), AnalyzeOptions{FormatID: "cobol"})
	assert.ErrorIs(t, err, logformat.ErrUnsupportedFormat)
}

func TestAnalyze_DiscoversUnknownFormats(t *testing.T) {
	llm := &fakeLLM{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "named groups with the (?P<name>...) syntax") {
			return `^(?<svc>[a-z]+) \| (?<message>.*)$`, nil
		}
		return `{"summary": "generic"}`, nil
	}}

	report, err := newTestAnalysis(llm, nil).Analyze(context.Background(), []byte("web | started\nworker | crashed\n"), AnalyzeOptions{})
	require.NoError(t, err)
	assert.Equal(t, logformat.Unknown, report.FormatID)
	assert.Equal(t, ModeDiscovered, report.Mode)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "worker", report.Entries[1].Entry.Field("svc"))
}

func TestAnalyze_DiscoveryMissIsUnsupported(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) { return `^zzz$`, nil }}

	_, err := newTestAnalysis(llm, nil).Analyze(context.Background(), []byte("web | started"), AnalyzeOptions{})
	assert.ErrorIs(t, err, logformat.ErrUnsupportedFormat)
}

func TestAnalysisService_ListAndDelete(t *testing.T) {
	store := NewMemoryRunStore()
	svc := newTestAnalysis(nil, store)
	ctx := context.Background()

	a, err := svc.Analyze(ctx, []byte(mysqlDoc), AnalyzeOptions{Filename: "a.log"})
	require.NoError(t, err)
	_, err = svc.Analyze(ctx, []byte(mysqlDoc), AnalyzeOptions{Filename: "b.log"})
	require.NoError(t, err)

	runs, total, err := svc.ListReports(ctx, 1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].Entries)

	require.NoError(t, svc.DeleteReport(ctx, a.ID))
	_, err = svc.GetReport(ctx, a.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, svc.DeleteReport(ctx, a.ID), ErrRunNotFound)
}

func TestAnalysisService_NoStore(t *testing.T) {
	svc := newTestAnalysis(nil, nil)

	_, err := svc.GetReport(context.Background(), "x")
	assert.ErrorIs(t, err, ErrRunNotFound)

	runs, total, err := svc.ListReports(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Zero(t, total)
}
