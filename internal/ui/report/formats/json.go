package formats

import (
	"encoding/json"
	"io"

	"actiongen/internal/core/ports"
)

type jsonReport struct {
	RunID       string           `json:"run_id"`
	Tool        string           `json:"tool"`
	Version     string           `json:"version"`
	Files       int              `json:"files"`
	Output      string           `json:"output"`
	Written     bool             `json:"written"`
	DurationMS  int64            `json:"duration_ms"`
	Actions     []jsonAction     `json:"actions"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

type jsonAction struct {
	Name            string `json:"name"`
	Kind            string `json:"kind"`
	DeclarationKind string `json:"declaration_kind"`
	AsyncMode       string `json:"async_mode"`
	Method          string `json:"method"`
	Static          bool   `json:"static"`
	File            string `json:"file"`
	Line            int    `json:"line"`
	Emitted         bool   `json:"emitted"`
}

type jsonDiagnostic struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

type JSONWriter struct{}

func (JSONWriter) Write(w io.Writer, report ports.Report) error {
	out := jsonReport{
		RunID:       report.RunID,
		Tool:        report.Tool,
		Version:     report.Version,
		Files:       report.Files,
		Output:      report.Output,
		Written:     report.Written,
		DurationMS:  report.Duration.Milliseconds(),
		Actions:     make([]jsonAction, 0, len(report.Actions)),
		Diagnostics: make([]jsonDiagnostic, 0, len(report.Diagnostics)),
	}
	for _, a := range report.Actions {
		out.Actions = append(out.Actions, jsonAction{
			Name:            a.Name,
			Kind:            a.Kind,
			DeclarationKind: a.DeclarationKind,
			AsyncMode:       a.AsyncMode,
			Method:          a.Method,
			Static:          a.IsStatic,
			File:            a.File,
			Line:            a.Line,
			Emitted:         a.Emitted,
		})
	}
	for _, d := range report.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, jsonDiagnostic{
			ID:       d.ID(),
			Severity: d.Severity.String(),
			Message:  d.Message,
			File:     d.File(),
			Line:     d.Line(),
			Column:   d.Column(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
