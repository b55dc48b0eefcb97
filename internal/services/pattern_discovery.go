package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/logger"
	"github.com/valyala/fastjson"
)

// maxClassificationSample bounds the text sent for format classification.
const maxClassificationSample = 4000

// FormatGuess is the model's classification of an unknown document.
type FormatGuess struct {
	LogType      string `json:"log_type"`
	RegexPattern string `json:"regex_pattern"`
	Explanation  string `json:"explanation"`
}

// PatternDiscovery asks the model for formats and extraction patterns the
// catalog does not know.
type PatternDiscovery struct {
	llm Generator
}

func NewPatternDiscovery(llm Generator) *PatternDiscovery {
	return &PatternDiscovery{llm: llm}
}

// ClassifyFormat asks which system produced sample and for a pattern that
// parses it.
func (pd *PatternDiscovery) ClassifyFormat(ctx context.Context, sample string) (*FormatGuess, error) {
	if strings.TrimSpace(sample) == "" {
		return nil, fmt.Errorf("%w: sample is empty", logformat.ErrInvalidInput)
	}
	if r := []rune(sample); len(r) > maxClassificationSample {
		sample = string(r[:maxClassificationSample])
	}

	resp, err := pd.llm.Generate(ctx, fmt.Sprintf(FORMAT_CLASSIFICATION_PROMPT, sample), CallTypeClassification)
	if err != nil {
		return nil, err
	}

	clean := cleanLLMResponse(resp)
	if start, end := strings.IndexByte(clean, '{'), strings.LastIndexByte(clean, '}'); start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	v, err := fastjson.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("LLM did not return valid JSON: %w. Raw response: %q", err, clean)
	}

	guess := &FormatGuess{
		LogType:      firstString(v, "log_type", "logType"),
		RegexPattern: firstString(v, "regex_pattern", "regexPattern", "pattern"),
		Explanation:  firstString(v, "explanation"),
	}
	if guess.LogType == "" {
		guess.LogType = logformat.Unknown
	}
	return guess, nil
}

// DiscoverPatterns asks for one extraction pattern per chunk. The i-th
// pattern belongs to the i-th chunk. A failing chunk stops discovery.
func (pd *PatternDiscovery) DiscoverPatterns(ctx context.Context, chunks []string) ([]string, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: chunks list is empty", logformat.ErrInvalidInput)
	}

	patterns := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		logger.Info("Sending chunk to LLM", map[string]interface{}{
			"chunk": i + 1,
			"total": len(chunks),
		})
		resp, err := pd.llm.Generate(ctx, fmt.Sprintf(PATTERN_DISCOVERY_PROMPT, chunk), CallTypeDiscovery)
		if err != nil {
			return nil, fmt.Errorf("LLM analysis failed on chunk %d: %w", i+1, err)
		}
		patterns = append(patterns, extractPattern(resp))
	}
	return patterns, nil
}

// Discover chunks text, asks for a pattern per chunk and extracts entries
// with them.
func (pd *PatternDiscovery) Discover(ctx context.Context, text string, chunkSize int) ([]logformat.Entry, error) {
	chunks, err := logformat.Chunk(text, chunkSize)
	if err != nil {
		return nil, err
	}

	patterns, err := pd.DiscoverPatterns(ctx, chunks)
	if err != nil {
		return nil, err
	}

	fields, err := logformat.NormalizeWithPatterns(chunks, patterns)
	if err != nil {
		return nil, err
	}

	entries := make([]logformat.Entry, len(fields))
	for i, f := range fields {
		entries[i] = logformat.StructuredEntry(f)
	}
	return entries, nil
}

// extractPattern pulls the regex out of a model reply. Models sometimes
// answer with JSON, fenced code or a leading label.
func extractPattern(resp string) string {
	clean := cleanLLMResponse(resp)

	if strings.HasPrefix(clean, "{") {
		if v, err := fastjson.Parse(clean); err == nil {
			if p := firstString(v, "regex_pattern", "pattern"); p != "" {
				return p
			}
		}
	}

	for _, prefix := range []string{"Regex pattern:", "Pattern:", "Regex:"} {
		if strings.HasPrefix(clean, prefix) {
			clean = strings.TrimSpace(strings.TrimPrefix(clean, prefix))
			break
		}
	}

	// Take only the first line if multiple lines
	if idx := strings.IndexByte(clean, '\n'); idx != -1 {
		clean = strings.TrimSpace(clean[:idx])
	}
	return strings.Trim(clean, "`")
}

// IsDiscoveryMiss reports errors that mean discovery ran but found nothing
// usable, as opposed to the model being unreachable.
func IsDiscoveryMiss(err error) bool {
	return errors.Is(err, logformat.ErrNoEntriesMatched) || errors.Is(err, logformat.ErrInvalidInput)
}
