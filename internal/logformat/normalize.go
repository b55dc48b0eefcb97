package logformat

import (
	"fmt"
	"strings"

	"github.com/loglens/backend/internal/logger"
)

// Mode records which path of the normalizer produced a Result.
type Mode string

const (
	ModeStructured Mode = "structured"
	ModeRaw        Mode = "raw"
	ModeEmpty      Mode = "empty"
)

// Result is the outcome of normalizing one document. Entries are either all
// structured or all raw, never a mix.
type Result struct {
	FormatID string  `json:"format"`
	Mode     Mode    `json:"mode"`
	Entries  []Entry `json:"entries"`
}

// NoEntriesMatched reports the degraded outcome where the format was
// recognized but neither extraction nor splitting produced anything.
func (r Result) NoEntriesMatched() bool {
	return len(r.Entries) == 0
}

// Normalizer turns a raw document into entries using a catalog.
type Normalizer struct {
	catalog  *Catalog
	detector *Detector
}

// NewNormalizer returns a normalizer over catalog.
func NewNormalizer(catalog *Catalog) *Normalizer {
	return &Normalizer{
		catalog:  catalog,
		detector: NewDetector(catalog),
	}
}

// Catalog returns the catalog the normalizer was built with.
func (n *Normalizer) Catalog() *Catalog {
	return n.catalog
}

// Detect runs format detection only.
func (n *Normalizer) Detect(text string) DetectionResult {
	return n.detector.Detect(text)
}

// Normalize detects the format of text and extracts its entries.
//
// The extract pattern is first applied line by line over the whole document.
// If that yields at least one mapping the result is structured. Otherwise
// the document is split on the detect pattern and returned as raw records.
// Unrecognized text fails with ErrUnsupportedFormat. A recognized document
// that yields nothing is not an error; see Result.NoEntriesMatched.
func (n *Normalizer) Normalize(text string) (Result, error) {
	det := n.detector.Detect(text)
	if !det.Known() {
		return Result{FormatID: Unknown}, ErrUnsupportedFormat
	}
	return normalizeAs(text, *det.Spec)
}

// NormalizeAs skips detection and normalizes text as the format with the
// given id.
func (n *Normalizer) NormalizeAs(text, formatID string) (Result, error) {
	spec, ok := n.catalog.Get(formatID)
	if !ok {
		return Result{FormatID: formatID}, fmt.Errorf("%w: %q is not in the catalog", ErrUnsupportedFormat, formatID)
	}
	return normalizeAs(text, spec)
}

func normalizeAs(text string, spec FormatSpec) (Result, error) {
	fields, err := Extract(text, spec.Extract)
	if err != nil {
		return Result{FormatID: spec.ID}, err
	}
	if len(fields) > 0 {
		entries := make([]Entry, len(fields))
		for i, f := range fields {
			entries[i] = StructuredEntry(f)
		}
		return Result{FormatID: spec.ID, Mode: ModeStructured, Entries: entries}, nil
	}

	records, err := Split(text, spec.Detect)
	if err != nil {
		return Result{FormatID: spec.ID}, err
	}
	if len(records) == 0 {
		return Result{FormatID: spec.ID, Mode: ModeEmpty, Entries: []Entry{}}, nil
	}
	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = RawEntry(r)
	}
	return Result{FormatID: spec.ID, Mode: ModeRaw, Entries: entries}, nil
}

// NormalizeWithPatterns extracts fields from chunks using patterns that were
// not known ahead of time, typically ones proposed per chunk by a model.
// Chunk i is paired with pattern i; a single pattern applies to every chunk.
// Patterns are translated from JavaScript syntax when needed. A pattern that
// does not compile is logged and its chunk skipped.
func NormalizeWithPatterns(chunks, patterns []string) ([]map[string]string, error) {
	if len(chunks) == 0 || len(patterns) == 0 {
		return nil, fmt.Errorf("%w: chunks and patterns must both be non-empty", ErrInvalidInput)
	}

	var out []map[string]string
	for i, chunk := range chunks {
		var pattern string
		switch {
		case len(patterns) == 1:
			pattern = patterns[0]
		case i < len(patterns):
			pattern = patterns[i]
		default:
			logger.Debug("No pattern for chunk", map[string]interface{}{
				"chunk_index": i,
				"patterns":    len(patterns),
			})
			continue
		}

		re, err := CompilePattern(strings.TrimSpace(pattern))
		if err != nil {
			logger.Warn("Skipping invalid pattern", map[string]interface{}{
				"chunk_index": i,
				"pattern":     pattern,
				"error":       err.Error(),
			})
			continue
		}

		fields, err := Extract(chunk, re)
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}

	if len(out) == 0 {
		return nil, ErrNoEntriesMatched
	}
	return out, nil
}
