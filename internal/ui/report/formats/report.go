// Package formats renders run reports and action manifests.
package formats

import (
	"fmt"

	"actiongen/internal/core/ports"
)

const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatSARIF = "sarif"
	FormatYAML  = "yaml"
)

// NewReportWriter returns the writer for format. Styled only affects text
// output.
func NewReportWriter(format string, styled bool, projectRoot string) (ports.ReportWriter, error) {
	switch format {
	case FormatText, "":
		return TextWriter{Styled: styled}, nil
	case FormatJSON:
		return JSONWriter{}, nil
	case FormatSARIF:
		return SARIFWriter{ProjectRoot: projectRoot}, nil
	}
	return nil, fmt.Errorf("unsupported report format %q", format)
}
