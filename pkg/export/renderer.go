package export

import "fmt"

// Dataset is a table whose rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

func (d Dataset) validate(kind string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s export needs at least one column", kind)
	}
	return nil
}

// Record returns row's cells in header order; absent columns are empty.
func (d Dataset) Record(row map[string]string) []string {
	cells := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		cells[i] = row[h]
	}
	return cells
}

// Renderer turns a dataset into file bytes.
type Renderer interface {
	Render(data Dataset, title string) ([]byte, error)
}

// Format describes a supported output encoding.
type Format struct {
	Extension   string
	ContentType string
	Renderer    Renderer
}

// Registry maps format names (csv, pdf, xlsx) to renderers.
type Registry map[string]Format

// DefaultRegistry returns every built-in format.
func DefaultRegistry() Registry {
	return Registry{
		"csv":  {Extension: "csv", ContentType: "text/csv", Renderer: NewCSVExporter()},
		"pdf":  {Extension: "pdf", ContentType: "application/pdf", Renderer: NewPDFExporter()},
		"xlsx": {Extension: "xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Renderer: NewXLSXExporter()},
	}
}

// Lookup returns the format registered under name.
func (r Registry) Lookup(name string) (Format, error) {
	f, ok := r[name]
	if !ok {
		return Format{}, fmt.Errorf("unsupported export format %q", name)
	}
	return f, nil
}
