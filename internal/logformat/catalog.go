package logformat

import (
	"fmt"
	"regexp"
	"sync"
)

// Unknown is the format ID reported when no catalog entry matches.
const Unknown = "unknown"

// FormatDef is the uncompiled form of a catalog entry, as written in Go or
// loaded from a catalog file.
type FormatDef struct {
	ID      string `yaml:"id" json:"id"`
	Detect  string `yaml:"detect" json:"detect"`
	Extract string `yaml:"extract" json:"extract"`
}

// FormatSpec is a compiled catalog entry. Detect only recognizes the format;
// Extract carries the named groups used to pull fields out of a line.
type FormatSpec struct {
	ID      string
	Detect  *regexp.Regexp
	Extract *regexp.Regexp
}

// Fields returns the named groups of the extract pattern.
func (s FormatSpec) Fields() []string {
	return GroupNames(s.Extract)
}

// Catalog is an ordered, read-only table of formats. Order is the detection
// tie-break: the first entry whose detect pattern matches wins. A Catalog is
// safe for concurrent use.
type Catalog struct {
	formats []FormatSpec
	index   map[string]int
}

// NewCatalog compiles defs in order. Any pattern that fails to compile makes
// the whole catalog invalid.
func NewCatalog(defs []FormatDef) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: catalog has no formats", ErrInvalidInput)
	}

	c := &Catalog{
		formats: make([]FormatSpec, 0, len(defs)),
		index:   make(map[string]int, len(defs)),
	}

	for i, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("%w: format #%d has no id", ErrInvalidInput, i)
		}
		if def.ID == Unknown {
			return nil, fmt.Errorf("%w: format id %q is reserved", ErrInvalidInput, Unknown)
		}
		if _, dup := c.index[def.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate format id %q", ErrInvalidInput, def.ID)
		}

		detect, err := CompilePattern(def.Detect)
		if err != nil {
			return nil, fmt.Errorf("format %s detect pattern: %w", def.ID, err)
		}
		extract, err := CompilePattern(def.Extract)
		if err != nil {
			return nil, fmt.Errorf("format %s extract pattern: %w", def.ID, err)
		}

		c.index[def.ID] = len(c.formats)
		c.formats = append(c.formats, FormatSpec{ID: def.ID, Detect: detect, Extract: extract})
	}

	return c, nil
}

// MustCatalog is like NewCatalog but panics on error. It is meant for
// package-level tables that are known to be valid.
func MustCatalog(defs []FormatDef) *Catalog {
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// Formats returns the catalog entries in detection order.
func (c *Catalog) Formats() []FormatSpec {
	out := make([]FormatSpec, len(c.formats))
	copy(out, c.formats)
	return out
}

// Get returns the entry with the given id.
func (c *Catalog) Get(id string) (FormatSpec, bool) {
	i, ok := c.index[id]
	if !ok {
		return FormatSpec{}, false
	}
	return c.formats[i], true
}

// Len returns the number of formats.
func (c *Catalog) Len() int {
	return len(c.formats)
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	return MustCatalog(DefaultFormats())
})

// DefaultCatalog returns the built-in catalog. The returned value is shared
// and must be treated as read-only, which the Catalog API enforces.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// DefaultFormats returns the built-in format definitions in detection order.
func DefaultFormats() []FormatDef {
	out := make([]FormatDef, len(builtinFormats))
	copy(out, builtinFormats)
	return out
}

var builtinFormats = []FormatDef{
	{
		ID:      "apache",
		Detect:  `\[[A-Z][a-z]{2} [A-Z][a-z]{2} [ \d]?\d \d{2}:\d{2}:\d{2}(?:\.\d+)? \d{4}\]`,
		Extract: `^\[(?P<timestamp>[^\]]+)\] \[(?P<level>[a-zA-Z_:]+)\](?: \[pid (?P<pid>\d+)(?::tid \d+)?\])? \[client (?P<client>[^\]]+)\] (?P<message>.*)$`,
	},
	{
		ID:      "nginx",
		Detect:  `\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}`,
		Extract: `^(?P<timestamp>\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}) \[(?P<level>[a-z]+)\] (?P<pid>\d+)#(?P<thread_id>\d+): (?:\*(?P<connection_id>\d+) )?(?P<message>.*)$`,
	},
	{
		ID:      "php",
		Detect:  `\[[^\]]+\] PHP [A-Z][A-Za-z ]*:`,
		Extract: `^\[(?P<timestamp>[^\]]+)\] PHP (?P<level>[A-Z][A-Za-z ]*?):\s+(?P<message>.*?) in (?P<source>\S+?)(?: on line |:)(?P<line>\d+)$`,
	},
	{
		ID:      "laravel",
		Detect:  `\[\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:[+-]\d{2}:\d{2})?\] [a-zA-Z]+\.[A-Z]+:`,
		Extract: `^\[(?P<timestamp>[^\]]+)\] (?P<environment>[a-zA-Z]+)\.(?P<level>[A-Z]+): (?P<message>.*?)\s*(?P<context>\{.*\})\s*$`,
	},
	{
		ID:      "asterisk",
		Detect:  `\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] (?:ERROR|WARNING|NOTICE|VERBOSE|DEBUG|SECURITY|DTMF)(?:\[\d+\])?(?:\[C-[0-9a-f]+\])?:? `,
		Extract: `^\[(?P<timestamp>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\] (?P<level>[A-Z]+)(?:\[(?P<thread_id>\d+)\])?(?:\[(?P<call_id>C-[0-9a-f]+)\])?:? (?P<message>.*)$`,
	},
	{
		ID:      "mysql",
		Detect:  `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z \d+ \[\w+\] \[MY-\d+\]`,
		Extract: `^(?P<timestamp>\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z) (?P<thread_id>\d+) \[(?P<level>\w+)\] \[(?P<code>MY-\d+)\] \[(?P<source>\w+)\] (?P<message>.+)$`,
	},
	{
		ID:      "syslog",
		Detect:  `(?m)^[A-Z][a-z]{2} [ \d]\d \d{2}:\d{2}:\d{2} \S+ `,
		Extract: `^(?P<timestamp>[A-Z][a-z]{2} [ \d]\d \d{2}:\d{2}:\d{2}) (?P<host>\S+) (?P<source>[^:\[\s]+)(?:\[(?P<pid>\d+)\])?: (?P<message>.*)$`,
	},
}
