package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/models"
)

// levelWord finds a severity keyword in unstructured text.
var levelWord = regexp.MustCompile(`(?i)\b(fatal|panic|emerg(?:ency)?|alert|crit(?:ical)?|error|err|warn(?:ing)?|notice|info|debug|trace)\b`)

// timestampFormats are tried in order by parseTimestamp.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006/01/02 15:04:05",
	"Mon Jan _2 15:04:05 2006",
	"Mon Jan _2 15:04:05.000000 2006",
	"02-Jan-2006 15:04:05 MST",
	time.Stamp,
	time.UnixDate,
	time.RFC822,
	time.RFC850,
}

// parseTimestamp tries common log timestamp layouts. Layouts without a year
// are placed in the current year.
func parseTimestamp(timestampStr string) (time.Time, error) {
	timestampStr = strings.Trim(strings.TrimSpace(timestampStr), "[]")

	for _, format := range timestampFormats {
		t, err := time.Parse(format, timestampStr)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = t.AddDate(time.Now().Year(), 0, 0)
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", timestampStr)
}

// normalizeLogLevel maps the level spellings of the supported formats onto
// the five stored levels. Unknown levels count as info.
func normalizeLogLevel(level string) models.LogLevel {
	level = strings.ToUpper(strings.TrimSpace(level))
	// apache 2.4 writes module:level
	if i := strings.LastIndexByte(level, ':'); i >= 0 {
		level = level[i+1:]
	}

	switch level {
	case "DEBUG", "DBG", "TRACE", "VERBOSE":
		return models.LogLevelDebug
	case "INFO", "INF", "NOTICE", "NOTE", "SYSTEM":
		return models.LogLevelInfo
	case "WARN", "WARNING", "DEPRECATED":
		return models.LogLevelWarning
	case "ERROR", "ERR", "PARSE ERROR", "RECOVERABLE FATAL ERROR":
		return models.LogLevelError
	case "FATAL", "FATAL ERROR", "CRITICAL", "CRIT", "EMERGENCY", "EMERG", "ALERT", "PANIC":
		return models.LogLevelFatal
	default:
		return models.LogLevelInfo
	}
}

// entryLevel returns the level of a structured entry's level field, or of
// the first severity keyword in a raw record.
func entryLevel(e logformat.Entry) models.LogLevel {
	if e.Kind == logformat.Structured {
		for _, k := range []string{"level", "log_level", "severity"} {
			if v, ok := e.Fields[k]; ok && v != "" {
				return normalizeLogLevel(v)
			}
		}
	}
	if m := levelWord.FindString(e.Message()); m != "" {
		return normalizeLogLevel(m)
	}
	return models.LogLevelInfo
}

// entryTimestamp parses the timestamp field of a structured entry.
func entryTimestamp(e logformat.Entry) *time.Time {
	if e.Kind != logformat.Structured {
		return nil
	}
	v := e.Fields["timestamp"]
	if v == "" {
		return nil
	}
	t, err := parseTimestamp(v)
	if err != nil {
		return nil
	}
	return &t
}

// determineSeverity rates a run from its error and fatal counts.
func determineSeverity(levels []models.LogLevel) string {
	errorCount := 0
	fatalCount := 0

	for _, level := range levels {
		switch level {
		case models.LogLevelError:
			errorCount++
		case models.LogLevelFatal:
			fatalCount++
		}
	}

	if fatalCount > 0 {
		return "critical"
	} else if errorCount > 10 {
		return "high"
	} else if errorCount > 5 {
		return "medium"
	}
	return "low"
}

// toRunModel converts a report into its persisted form.
func toRunModel(r *AnalysisReport) *models.LogFile {
	processed := r.CreatedAt.Add(r.Duration)
	run := &models.LogFile{
		ID:           r.ID,
		Filename:     r.Filename,
		Size:         r.Size,
		Compression:  r.Compression,
		FormatID:     r.FormatID,
		Mode:         string(r.Mode),
		Status:       r.Status,
		Severity:     r.Severity,
		EntryCount:   len(r.Entries),
		ErrorCount:   r.ErrorCount,
		WarningCount: r.WarningCount,
		FailedCount:  r.FailedSummaries,
		ProcessedAt:  &processed,
		CreatedAt:    r.CreatedAt,
		Entries:      make([]models.LogEntry, 0, len(r.Entries)),
	}

	for _, er := range r.Entries {
		entry := models.LogEntry{
			LogFileID: r.ID,
			Position:  er.Position,
			Kind:      er.Entry.Kind.String(),
			Timestamp: er.Timestamp,
			Level:     er.Level,
			Message:   er.Entry.Message(),
			Category:  er.Category,
		}
		if er.Entry.Kind == logformat.Raw {
			entry.RawData = er.Entry.Raw
		} else {
			entry.Fields = models.JSONMap(er.Entry.Fields)
			entry.RawData = er.Entry.String()
		}

		if er.Diagnostic != nil || er.Error != "" {
			s := &models.EntrySummary{Cached: er.Cached, Error: er.Error}
			if d := er.Diagnostic; d != nil {
				s.Summary = d.Summary
				s.FixSuggestion = d.FixSuggestion
				s.CodeFix = d.CodeFix
				s.CodeLocation = d.CodeLocation
				s.Resources = d.Resources
			}
			entry.Summary = s
		}
		run.Entries = append(run.Entries, entry)
	}
	return run
}

// reportFromRun rebuilds a report from its persisted form.
func reportFromRun(run *models.LogFile) *AnalysisReport {
	r := &AnalysisReport{
		ID:              run.ID,
		Filename:        run.Filename,
		Size:            run.Size,
		Compression:     run.Compression,
		FormatID:        run.FormatID,
		Mode:            logformat.Mode(run.Mode),
		Status:          run.Status,
		Severity:        run.Severity,
		ErrorCount:      run.ErrorCount,
		WarningCount:    run.WarningCount,
		FailedSummaries: run.FailedCount,
		CreatedAt:       run.CreatedAt,
		Entries:         make([]EntryReport, 0, len(run.Entries)),
	}
	if run.ProcessedAt != nil {
		r.Duration = run.ProcessedAt.Sub(run.CreatedAt)
	}

	for _, e := range run.Entries {
		er := EntryReport{
			Position:  e.Position,
			Level:     e.Level,
			Timestamp: e.Timestamp,
			Category:  e.Category,
		}
		if e.Kind == logformat.Raw.String() {
			er.Entry = logformat.RawEntry(e.RawData)
		} else {
			er.Entry = logformat.StructuredEntry(map[string]string(e.Fields))
		}
		if s := e.Summary; s != nil {
			er.Cached = s.Cached
			er.Error = s.Error
			if s.Error == "" {
				er.Diagnostic = &Diagnostic{
					Message:       e.Message,
					Summary:       s.Summary,
					FixSuggestion: s.FixSuggestion,
					CodeFix:       s.CodeFix,
					CodeLocation:  s.CodeLocation,
					Resources:     []string(s.Resources),
				}
			}
		}
		r.Entries = append(r.Entries, er)
	}
	return r
}
