package logformat

import (
	"encoding/json"
	"sort"
	"strings"
)

// EntryKind tells a structured entry from a raw one.
type EntryKind int

const (
	// Structured entries carry named fields pulled out by an extract pattern.
	Structured EntryKind = iota + 1
	// Raw entries carry an unparsed record produced by the fallback splitter.
	Raw
)

func (k EntryKind) String() string {
	switch k {
	case Structured:
		return "structured"
	case Raw:
		return "raw"
	default:
		return "invalid"
	}
}

// Entry is a single normalized log entry. Exactly one of Fields and Raw is
// meaningful, as selected by Kind. A structured entry may have no fields when
// its extract pattern declares no named groups.
type Entry struct {
	Kind   EntryKind
	Fields map[string]string
	Raw    string
}

// StructuredEntry wraps fields. A nil map is replaced by an empty one.
func StructuredEntry(fields map[string]string) Entry {
	if fields == nil {
		fields = map[string]string{}
	}
	return Entry{Kind: Structured, Fields: fields}
}

// RawEntry wraps an unparsed record.
func RawEntry(record string) Entry {
	return Entry{Kind: Raw, Raw: record}
}

// Message is the text that best describes the entry: the message field of a
// structured entry, falling back to its canonical form, or the raw record.
func (e Entry) Message() string {
	if e.Kind == Raw {
		return e.Raw
	}
	if msg, ok := e.Fields["message"]; ok && msg != "" {
		return msg
	}
	return e.String()
}

// Field returns the named field, or "" for raw entries.
func (e Entry) Field(name string) string {
	return e.Fields[name]
}

// String renders the entry on one line. Structured fields are written as
// key=value pairs in key order.
func (e Entry) String() string {
	if e.Kind == Raw {
		return e.Raw
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(e.Fields[k]))
	}
	return b.String()
}

// MarshalJSON encodes structured entries as objects and raw entries as
// strings.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Kind == Raw {
		return json.Marshal(e.Raw)
	}
	fields := e.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON accepts the shapes produced by MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*e = RawEntry(raw)
		return nil
	}
	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*e = StructuredEntry(fields)
	return nil
}

// key identifies an entry for deduplication.
func (e Entry) key() string {
	if e.Kind == Raw {
		return "r\x00" + e.Raw
	}
	data, _ := json.Marshal(e.Fields)
	return "s\x00" + string(data)
}

// Unique drops repeated entries and keeps the first occurrence of each, in
// order. Two structured entries are equal when their field maps are equal;
// a structured entry never equals a raw one.
func Unique(entries []Entry) []Entry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k := e.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		data, _ := json.Marshal(s)
		return string(data)
	}
	return s
}
