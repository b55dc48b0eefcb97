package services

import (
	"testing"
	"time"

	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/models"
)

func TestNormalizeLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected models.LogLevel
	}{
		{"debug", models.LogLevelDebug},
		{"VERBOSE", models.LogLevelDebug},
		{"Note", models.LogLevelInfo},
		{"notice", models.LogLevelInfo},
		{"Warning", models.LogLevelWarning},
		{"warn", models.LogLevelWarning},
		{"ERROR", models.LogLevelError},
		{"core:error", models.LogLevelError},
		{"Parse error", models.LogLevelError},
		{"Fatal error", models.LogLevelFatal},
		{"crit", models.LogLevelFatal},
		{"", models.LogLevelInfo},
		{"whatever", models.LogLevelInfo},
	}

	for _, test := range tests {
		if result := normalizeLogLevel(test.input); result != test.expected {
			t.Errorf("For input '%s', expected '%s', got '%s'", test.input, test.expected, result)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-01T00:00:00.000Z", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01 10:00:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2024/01/01 10:00:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"Wed Oct 11 14:32:52 2000", time.Date(2000, 10, 11, 14, 32, 52, 0, time.UTC)},
		{"[2024-01-01 10:00:00]", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
	}

	for _, test := range tests {
		got, err := parseTimestamp(test.input)
		if err != nil {
			t.Errorf("parseTimestamp(%q) failed: %v", test.input, err)
			continue
		}
		if !got.Equal(test.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", test.input, got, test.want)
		}
	}

	got, err := parseTimestamp("Jan  1 10:00:00")
	if err != nil {
		t.Fatalf("parseTimestamp of syslog stamp failed: %v", err)
	}
	if got.Year() != time.Now().Year() {
		t.Errorf("Expected syslog stamp in the current year, got %d", got.Year())
	}

	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Error("Expected an error for an unparsable timestamp")
	}
}

func TestEntryLevel(t *testing.T) {
	if got := entryLevel(logformat.StructuredEntry(map[string]string{"level": "Warning"})); got != models.LogLevelWarning {
		t.Errorf("Expected WARN from level field, got %s", got)
	}
	if got := entryLevel(logformat.RawEntry("[x] local.ERROR: boom")); got != models.LogLevelError {
		t.Errorf("Expected ERROR from raw text, got %s", got)
	}
	if got := entryLevel(logformat.RawEntry("user logged in from stderr")); got != models.LogLevelInfo {
		t.Errorf("Expected INFO default, got %s", got)
	}
}

func TestDetermineSeverity(t *testing.T) {
	repeat := func(level models.LogLevel, n int) []models.LogLevel {
		out := make([]models.LogLevel, n)
		for i := range out {
			out[i] = level
		}
		return out
	}

	tests := []struct {
		levels   []models.LogLevel
		expected string
	}{
		{nil, "low"},
		{repeat(models.LogLevelError, 3), "low"},
		{repeat(models.LogLevelError, 6), "medium"},
		{repeat(models.LogLevelError, 11), "high"},
		{append(repeat(models.LogLevelInfo, 3), models.LogLevelFatal), "critical"},
	}

	for _, test := range tests {
		if result := determineSeverity(test.levels); result != test.expected {
			t.Errorf("For %d levels, expected '%s', got '%s'", len(test.levels), test.expected, result)
		}
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		message  string
		expected string
	}{
		{"SQLSTATE[HY000]: General error", CategoryDatabase},
		{"Lost connection to database server", CategoryDatabase},
		{"Request timeout after 30s", CategoryTimeout},
		{"upstream timed out", CategoryTimeout},
		{"Call to undefined function foo()", CategoryCodeLogic},
		{"Permission denied: /var/www", CategoryPermission},
		{"Something odd", CategoryGeneral},
	}

	for _, test := range tests {
		if result := Categorize(test.message); result != test.expected {
			t.Errorf("For message '%s', expected '%s', got '%s'", test.message, test.expected, result)
		}
	}
}

func TestRunModelRoundTrip(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	report := &AnalysisReport{
		ID:        "run-1",
		Filename:  "mysql.log",
		FormatID:  "mysql",
		Mode:      logformat.ModeStructured,
		Status:    models.RunStatusCompleted,
		CreatedAt: ts,
		Duration:  time.Second,
		Entries: []EntryReport{
			{
				Position:   0,
				Entry:      logformat.StructuredEntry(map[string]string{"level": "ERROR", "message": "disk full"}),
				Level:      models.LogLevelError,
				Timestamp:  &ts,
				Category:   CategoryGeneral,
				Diagnostic: &Diagnostic{Message: "disk full", Summary: "volume full", Resources: []string{"https://example.com"}},
			},
			{
				Position: 1,
				Entry:    logformat.RawEntry("oops"),
				Level:    models.LogLevelInfo,
				Category: CategoryGeneral,
				Error:    "model crashed",
			},
		},
	}

	run := toRunModel(report)
	if run.EntryCount != 2 || run.Entries[0].Message != "disk full" || run.Entries[1].RawData != "oops" {
		t.Fatalf("Unexpected run model: %+v", run)
	}

	back := reportFromRun(run)
	if back.Duration != time.Second {
		t.Errorf("Expected duration to survive, got %v", back.Duration)
	}
	if back.Entries[0].Diagnostic == nil || back.Entries[0].Diagnostic.Summary != "volume full" {
		t.Errorf("Expected diagnostic to survive, got %+v", back.Entries[0])
	}
	if back.Entries[1].Entry.Kind != logformat.Raw || back.Entries[1].Error != "model crashed" || back.Entries[1].Diagnostic != nil {
		t.Errorf("Expected raw failed entry to survive, got %+v", back.Entries[1])
	}
	if back.Entries[0].Entry.Field("level") != "ERROR" {
		t.Errorf("Expected fields to survive, got %+v", back.Entries[0].Entry)
	}
}
