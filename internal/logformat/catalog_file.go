package logformat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Formats []FormatDef `yaml:"formats"`
}

// ParseCatalog builds a catalog from a YAML document of the form
//
//	formats:
//	  - id: mysql
//	    detect: '...'
//	    extract: '...'
//
// Entries keep their file order, which is also their detection order.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: decoding catalog: %v", ErrInvalidInput, err)
	}
	return NewCatalog(file.Formats)
}

// LoadCatalogFile reads and compiles the catalog stored at path.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return ParseCatalog(data)
}
