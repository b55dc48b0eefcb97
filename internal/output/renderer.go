package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/services"
)

// Renderer writes command results to a stream.
type Renderer interface {
	Formats(specs []logformat.FormatSpec) error
	Detection(d logformat.DetectionResult) error
	Result(r logformat.Result) error
	Chunks(chunks []string) error
	Report(r *services.AnalysisReport) error
}

// New returns the renderer for format "text" or "json".
func New(format string, w io.Writer) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextRenderer(w), nil
	case "json":
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleDim   = lipgloss.NewStyle().Faint(true)
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleFatal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")).
			Bold(true)
	styleSummary = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("114"))
)

// TextRenderer prints human readable, colorized output.
type TextRenderer struct {
	w io.Writer
}

func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) println(a ...any) error {
	_, err := fmt.Fprintln(r.w, a...)
	return err
}

func (r *TextRenderer) Formats(specs []logformat.FormatSpec) error {
	for _, spec := range specs {
		line := fmt.Sprintf("%s %s", styleTitle.Render(fmt.Sprintf("%-10s", spec.ID)), strings.Join(spec.Fields(), ", "))
		if err := r.println(line); err != nil {
			return err
		}
	}
	return nil
}

func (r *TextRenderer) Detection(d logformat.DetectionResult) error {
	if !d.Known() {
		return r.println(styleWarn.Render(logformat.Unknown))
	}
	return r.println(styleTitle.Render(d.FormatID))
}

func (r *TextRenderer) Result(res logformat.Result) error {
	header := fmt.Sprintf("%s  %s  %d entries", styleTitle.Render(res.FormatID), styleDim.Render(string(res.Mode)), len(res.Entries))
	if err := r.println(header); err != nil {
		return err
	}
	if res.NoEntriesMatched() {
		return r.println(styleWarn.Render("no entries matched"))
	}
	for i, e := range res.Entries {
		if err := r.println(fmt.Sprintf("%s %s", styleDim.Render(fmt.Sprintf("%4d", i+1)), renderEntry(e))); err != nil {
			return err
		}
	}
	return nil
}

func (r *TextRenderer) Chunks(chunks []string) error {
	for i, c := range chunks {
		title := styleTitle.Render(fmt.Sprintf("--- chunk %d (%d chars) ---", i+1, len([]rune(c))))
		if err := r.println(title); err != nil {
			return err
		}
		if err := r.println(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *TextRenderer) Report(rep *services.AnalysisReport) error {
	header := fmt.Sprintf("%s  format=%s mode=%s severity=%s entries=%d errors=%d warnings=%d",
		styleTitle.Render(rep.ID), rep.FormatID, rep.Mode, rep.Severity,
		len(rep.Entries), rep.ErrorCount, rep.WarningCount)
	if err := r.println(header); err != nil {
		return err
	}
	for _, e := range rep.Entries {
		line := fmt.Sprintf("%s %s %s", styleLevelTag(string(e.Level)), styleKey.Render("["+e.Category+"]"), e.Entry.Message())
		if err := r.println(line); err != nil {
			return err
		}
		switch {
		case e.Error != "":
			err := r.println(styleSummary.Render(styleError.Render("summary failed: " + e.Error)))
			if err != nil {
				return err
			}
		case e.Diagnostic != nil:
			text := e.Diagnostic.Summary
			if e.Diagnostic.FixSuggestion != "" {
				text += "\nFix: " + e.Diagnostic.FixSuggestion
			}
			if err := r.println(styleSummary.Render(text)); err != nil {
				return err
			}
		}
	}
	if rep.FailedSummaries > 0 {
		return r.println(styleWarn.Render(fmt.Sprintf("%d summaries failed", rep.FailedSummaries)))
	}
	return nil
}

func renderEntry(e logformat.Entry) string {
	if e.Kind == logformat.Raw {
		return e.Raw
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := e.Fields[k]
		if k == "level" {
			v = styleLevelTag(strings.ToUpper(v))
		}
		parts = append(parts, styleKey.Render(k+"=")+v)
	}
	return strings.Join(parts, " ")
}

func styleLevelTag(level string) string {
	padded := fmt.Sprintf("%-5s", level)
	switch level {
	case "WARN", "WARNING":
		return styleWarn.Render(padded)
	case "ERROR", "ERR", "CRITICAL", "CRIT":
		return styleError.Render(padded)
	case "FATAL", "EMERG", "ALERT", "PANIC":
		return styleFatal.Render(padded)
	default:
		return styleInfo.Render(padded)
	}
}

// JSONRenderer prints indented JSON for piping.
type JSONRenderer struct {
	enc *json.Encoder
}

func NewJSONRenderer(w io.Writer) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONRenderer{enc: enc}
}

type formatJSON struct {
	ID      string   `json:"id"`
	Detect  string   `json:"detect"`
	Extract string   `json:"extract"`
	Fields  []string `json:"fields"`
}

func (r *JSONRenderer) Formats(specs []logformat.FormatSpec) error {
	out := make([]formatJSON, 0, len(specs))
	for _, s := range specs {
		out = append(out, formatJSON{ID: s.ID, Detect: s.Detect.String(), Extract: s.Extract.String(), Fields: s.Fields()})
	}
	return r.enc.Encode(out)
}

func (r *JSONRenderer) Detection(d logformat.DetectionResult) error {
	return r.enc.Encode(map[string]string{"format": d.FormatID})
}

func (r *JSONRenderer) Result(res logformat.Result) error {
	if res.Entries == nil {
		res.Entries = []logformat.Entry{}
	}
	return r.enc.Encode(res)
}

func (r *JSONRenderer) Chunks(chunks []string) error {
	return r.enc.Encode(chunks)
}

func (r *JSONRenderer) Report(rep *services.AnalysisReport) error {
	return r.enc.Encode(rep)
}
