package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loglens/backend/internal/ingest"
	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/logger"
	"github.com/loglens/backend/internal/models"
)

// ModeDiscovered marks entries extracted with model-proposed patterns.
const ModeDiscovered logformat.Mode = "discovered"

// EntryReport is one analyzed entry.
type EntryReport struct {
	Position   int             `json:"position"`
	Entry      logformat.Entry `json:"log"`
	Level      models.LogLevel `json:"level"`
	Timestamp  *time.Time      `json:"timestamp,omitempty"`
	Category   string          `json:"category"`
	Diagnostic *Diagnostic     `json:"diagnostic,omitempty"`
	Cached     bool            `json:"cached,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// AnalysisReport is the result of analyzing one document.
type AnalysisReport struct {
	ID              string           `json:"id"`
	Filename        string           `json:"filename"`
	Size            int64            `json:"size"`
	Compression     string           `json:"compression"`
	FormatID        string           `json:"format"`
	Mode            logformat.Mode   `json:"mode"`
	Status          models.RunStatus `json:"status"`
	Severity        string           `json:"severity"`
	ErrorCount      int              `json:"errorCount"`
	WarningCount    int              `json:"warningCount"`
	FailedSummaries int              `json:"failedSummaries"`
	Entries         []EntryReport    `json:"entries"`
	CreatedAt       time.Time        `json:"createdAt"`
	Duration        time.Duration    `json:"duration"`
}

// NoEntriesMatched reports a recognized document that produced no entries.
func (r *AnalysisReport) NoEntriesMatched() bool {
	return len(r.Entries) == 0
}

// AnalyzeOptions tunes a single analysis.
type AnalyzeOptions struct {
	Filename  string
	FormatID  string // skip detection when set
	Unique    bool
	Summarize bool
}

// AnalysisService runs the whole pipeline: decode, normalize, summarize,
// categorize and persist.
type AnalysisService struct {
	normalizer *logformat.Normalizer
	summarizer *Summarizer
	discovery  *PatternDiscovery
	store      RunStore
	chunkSize  int
	maxSize    int64
}

// AnalysisConfig wires the optional collaborators of an AnalysisService.
// Summarizer, Discovery and Store may be nil.
type AnalysisConfig struct {
	Normalizer *logformat.Normalizer
	Summarizer *Summarizer
	Discovery  *PatternDiscovery
	Store      RunStore
	ChunkSize  int
	MaxSize    int64
}

func NewAnalysisService(cfg AnalysisConfig) *AnalysisService {
	if cfg.Normalizer == nil {
		cfg.Normalizer = logformat.NewNormalizer(logformat.DefaultCatalog())
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 4000
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = ingest.DefaultMaxSize
	}
	return &AnalysisService{
		normalizer: cfg.Normalizer,
		summarizer: cfg.Summarizer,
		discovery:  cfg.Discovery,
		store:      cfg.Store,
		chunkSize:  cfg.ChunkSize,
		maxSize:    cfg.MaxSize,
	}
}

// Normalizer returns the normalizer used by the service.
func (s *AnalysisService) Normalizer() *logformat.Normalizer {
	return s.normalizer
}

// Analyze processes one uploaded document. Unrecognized documents fail with
// logformat.ErrUnsupportedFormat unless pattern discovery is configured.
func (s *AnalysisService) Analyze(ctx context.Context, raw []byte, opts AnalyzeOptions) (*AnalysisReport, error) {
	start := time.Now()
	report := &AnalysisReport{
		ID:          uuid.NewString(),
		Filename:    opts.Filename,
		Size:        int64(len(raw)),
		Compression: string(ingest.Sniff(raw)),
		CreatedAt:   start.UTC(),
	}
	log := logger.WithLogFile(report.ID, opts.Filename)

	text, err := ingest.DecodeLimit(raw, s.maxSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", logformat.ErrInvalidInput, err)
	}

	entries, err := s.normalize(ctx, text, opts.FormatID, report)
	if err != nil {
		log.WithField("error", err.Error()).Warn("Normalization failed")
		return nil, err
	}
	if opts.Unique {
		entries = logformat.Unique(entries)
	}

	var summaries []SummaryResult
	if opts.Summarize && s.summarizer != nil && len(entries) > 0 {
		summaries = s.summarizer.SummarizeAll(ctx, report.FormatID, entries)
	}

	levels := make([]models.LogLevel, len(entries))
	report.Entries = make([]EntryReport, len(entries))
	for i, e := range entries {
		er := EntryReport{
			Position:  i,
			Entry:     e,
			Level:     entryLevel(e),
			Timestamp: entryTimestamp(e),
			Category:  Categorize(e.Message()),
		}
		if summaries != nil {
			res := summaries[i]
			er.Diagnostic = res.Diagnostic
			er.Cached = res.Cached
			if res.Err != nil {
				er.Error = res.Err.Error()
				report.FailedSummaries++
			}
		}

		switch er.Level {
		case models.LogLevelError, models.LogLevelFatal:
			report.ErrorCount++
		case models.LogLevelWarning:
			report.WarningCount++
		}
		levels[i] = er.Level
		report.Entries[i] = er
	}

	report.Severity = determineSeverity(levels)
	report.Status = models.RunStatusCompleted
	if report.NoEntriesMatched() {
		report.Status = models.RunStatusEmpty
	}
	report.Duration = time.Since(start)

	log.WithFields(map[string]interface{}{
		"format":  report.FormatID,
		"mode":    report.Mode,
		"entries": len(report.Entries),
		"errors":  report.ErrorCount,
		"elapsed": report.Duration.String(),
	}).Info("Analysis completed")

	if s.store != nil {
		if err := s.store.SaveRun(ctx, toRunModel(report)); err != nil {
			return report, fmt.Errorf("saving analysis run: %w", err)
		}
	}
	return report, nil
}

func (s *AnalysisService) normalize(ctx context.Context, text, formatID string, report *AnalysisReport) ([]logformat.Entry, error) {
	var (
		result logformat.Result
		err    error
	)
	if formatID != "" {
		result, err = s.normalizer.NormalizeAs(text, formatID)
	} else {
		result, err = s.normalizer.Normalize(text)
	}
	report.FormatID = result.FormatID
	report.Mode = result.Mode

	if err == nil {
		return result.Entries, nil
	}
	if !errors.Is(err, logformat.ErrUnsupportedFormat) || formatID != "" || s.discovery == nil {
		return nil, err
	}

	logger.Info("Format not in catalog, asking LLM for patterns", map[string]interface{}{
		"run_id":     report.ID,
		"chunk_size": s.chunkSize,
	})
	entries, derr := s.discovery.Discover(ctx, text, s.chunkSize)
	if derr != nil {
		if IsDiscoveryMiss(derr) {
			return nil, fmt.Errorf("%w: pattern discovery found no entries: %v", logformat.ErrUnsupportedFormat, derr)
		}
		return nil, derr
	}
	report.FormatID = logformat.Unknown
	report.Mode = ModeDiscovered
	return entries, nil
}

// GetReport loads a stored run.
func (s *AnalysisService) GetReport(ctx context.Context, id string) (*AnalysisReport, error) {
	if s.store == nil {
		return nil, ErrRunNotFound
	}
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return reportFromRun(run), nil
}

// ListReports lists stored runs without their entries.
func (s *AnalysisService) ListReports(ctx context.Context, limit, offset int) ([]models.LogFile, int64, error) {
	if s.store == nil {
		return []models.LogFile{}, 0, nil
	}
	return s.store.ListRuns(ctx, limit, offset)
}

// DeleteReport removes a stored run.
func (s *AnalysisService) DeleteReport(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrRunNotFound
	}
	return s.store.DeleteRun(ctx, id)
}
