package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vk/ocrbridge/internal/report"
)

// ParseReport reads an engine evaluation report from r and writes the parsed
// measure to w as indented JSON.
func ParseReport(r io.Reader, w io.Writer) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}
	measure := report.Parse(string(raw), "")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(measure); err != nil {
		return fmt.Errorf("writing measure: %w", err)
	}
	return nil
}
