package services

import (
	"fmt"
	"strings"

	"github.com/valyala/fastjson"
)

// Diagnostic is the model's explanation of one log entry.
type Diagnostic struct {
	Message       string   `json:"message"`
	Summary       string   `json:"summary"`
	FixSuggestion string   `json:"fix_suggestion"`
	CodeFix       string   `json:"code_fix"`
	CodeLocation  string   `json:"code_location"`
	Resources     []string `json:"resources"`
}

// parseDiagnostic reads the model reply for message. Missing keys are left
// empty, camelCase spellings are accepted, and a reply that is not JSON at
// all is kept as the summary.
func parseDiagnostic(message, response string) (*Diagnostic, error) {
	clean := cleanLLMResponse(response)
	if clean == "" {
		return nil, fmt.Errorf("LLM returned an empty response")
	}

	d := &Diagnostic{Message: message, Resources: []string{}}

	if start := strings.IndexByte(clean, '{'); start >= 0 {
		if end := strings.LastIndexByte(clean, '}'); end > start {
			clean = clean[start : end+1]
		}
	}
	if !strings.HasPrefix(clean, "{") {
		d.Summary = clean
		return d, nil
	}

	var p fastjson.Parser
	v, err := p.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw response: %q", err, clean)
	}

	d.Summary = firstString(v, "summary", "root_cause", "rootCause")
	d.FixSuggestion = firstString(v, "fix_suggestion", "fixSuggestion", "fix")
	d.CodeFix = firstString(v, "code_fix", "codeFix")
	d.CodeLocation = firstString(v, "code_location", "codeLocation")

	for _, key := range []string{"resources", "links", "references"} {
		r := v.Get(key)
		if r == nil {
			continue
		}
		switch r.Type() {
		case fastjson.TypeArray:
			arr, _ := r.Array()
			for _, item := range arr {
				if item.Type() == fastjson.TypeString {
					if s := strings.TrimSpace(string(item.GetStringBytes())); s != "" {
						d.Resources = append(d.Resources, s)
					}
				}
			}
		case fastjson.TypeString:
			if s := strings.TrimSpace(string(r.GetStringBytes())); s != "" {
				d.Resources = append(d.Resources, s)
			}
		}
		break
	}

	if d.Summary == "" {
		d.Summary = "No summary generated."
	}
	return d, nil
}

func firstString(v *fastjson.Value, keys ...string) string {
	for _, k := range keys {
		f := v.Get(k)
		if f == nil || f.Type() != fastjson.TypeString {
			continue
		}
		if s := strings.TrimSpace(string(f.GetStringBytes())); s != "" {
			return s
		}
	}
	return ""
}
