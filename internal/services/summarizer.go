package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/loglens/backend/internal/cache"
	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/logger"
	"golang.org/x/sync/errgroup"
)

// SummaryCache stores diagnostics by key. *cache.Cache implements it.
type SummaryCache interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Put(ctx context.Context, key string, v any) error
}

// SummaryResult is the outcome of summarizing one entry. Err is set instead
// of Diagnostic when the model call or its parsing failed.
type SummaryResult struct {
	Diagnostic *Diagnostic
	Cached     bool
	Err        error
}

// Summarizer asks the model for a diagnostic of each log entry.
type Summarizer struct {
	llm         Generator
	cache       SummaryCache
	concurrency int
}

// NewSummarizer returns a summarizer. summaryCache may be nil.
func NewSummarizer(llm Generator, summaryCache SummaryCache, concurrency int) *Summarizer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Summarizer{llm: llm, cache: summaryCache, concurrency: concurrency}
}

// Summarize returns the diagnostic of entry, from the cache when the same
// message was summarized before. The bool reports a cache hit.
func (s *Summarizer) Summarize(ctx context.Context, formatID string, entry logformat.Entry) (*Diagnostic, bool, error) {
	message := entry.Message()
	key := cache.Key(message)

	if s.cache != nil {
		var d Diagnostic
		found, err := s.cache.Get(ctx, key, &d)
		if err != nil {
			logger.WithError(err, "summarizer").Warn("Summary cache lookup failed")
		} else if found {
			return &d, true, nil
		}
	}

	prompt := fmt.Sprintf(SUMMARY_PROMPT, formatID, promptSubject(entry))
	response, err := s.llm.Generate(ctx, prompt, CallTypeSummary)
	if err != nil {
		return nil, false, err
	}

	d, err := parseDiagnostic(message, response)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, d); err != nil {
			logger.WithError(err, "summarizer").Warn("Summary cache write failed")
		}
	}
	return d, false, nil
}

// SummarizeAll summarizes entries concurrently. Results are in entry order.
// A failing entry never stops the others.
func (s *Summarizer) SummarizeAll(ctx context.Context, formatID string, entries []logformat.Entry) []SummaryResult {
	results := make([]SummaryResult, len(entries))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range entries {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			d, cached, err := s.Summarize(ctx, formatID, entries[i])
			results[i] = SummaryResult{Diagnostic: d, Cached: cached, Err: err}
			if err != nil {
				logger.WithError(err, "summarizer").WithField("entry", i).Warn("Failed to summarize entry")
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// promptSubject renders an entry for the prompt: structured fields as
// indented JSON, raw records as they are.
func promptSubject(entry logformat.Entry) string {
	if entry.Kind == logformat.Raw {
		return entry.Raw
	}
	data, err := json.MarshalIndent(entry.Fields, "", "  ")
	if err != nil {
		return entry.Message()
	}
	return string(data)
}
