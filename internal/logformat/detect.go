package logformat

// DetectionResult names the format recognized in a document. Spec is nil
// when FormatID is Unknown.
type DetectionResult struct {
	FormatID string
	Spec     *FormatSpec
}

// Known reports whether a catalog entry matched.
func (r DetectionResult) Known() bool {
	return r.Spec != nil
}

// Detector picks the format of a document from a catalog.
type Detector struct {
	catalog *Catalog
}

// NewDetector returns a detector over catalog.
func NewDetector(catalog *Catalog) *Detector {
	return &Detector{catalog: catalog}
}

// Detect scans the catalog in order and returns the first format whose
// detect pattern matches anywhere in text. There is no scoring: a single
// occurrence is enough, and catalog order breaks ties.
func (d *Detector) Detect(text string) DetectionResult {
	for i := range d.catalog.formats {
		if d.catalog.formats[i].Detect.MatchString(text) {
			spec := d.catalog.formats[i]
			return DetectionResult{FormatID: spec.ID, Spec: &spec}
		}
	}
	return DetectionResult{FormatID: Unknown}
}
