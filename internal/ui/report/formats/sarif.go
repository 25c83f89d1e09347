package formats

import (
	"encoding/json"
	"io"
	"path/filepath"

	"actiongen/internal/core/ports"
	"actiongen/internal/engine/diagnostics"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool               `json:"tool"`
	AutomationDetails *sarifAutomationDetails `json:"automationDetails,omitempty"`
	Results           []sarifResult           `json:"results"`
}

type sarifAutomationDetails struct {
	ID string `json:"id"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	FullDescription  *sarifMessage          `json:"fullDescription,omitempty"`
	HelpURI          string                 `json:"helpUri,omitempty"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// SARIFWriter renders diagnostics as a SARIF v2.1.0 log. File URIs are made
// relative to ProjectRoot.
type SARIFWriter struct {
	ProjectRoot string
}

func (s SARIFWriter) Write(w io.Writer, report ports.Report) error {
	data, err := GenerateSARIF(s.ProjectRoot, report)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// GenerateSARIF builds a SARIF v2.1.0 document. Every known diagnostic is
// listed as a rule so result rule indexes stay stable between runs.
func GenerateSARIF(projectRoot string, report ports.Report) ([]byte, error) {
	rules, index := buildSARIFRules()
	results := make([]sarifResult, 0, len(report.Diagnostics))

	for _, d := range report.Diagnostics {
		result := sarifResult{
			RuleID:    d.ID(),
			RuleIndex: index[d.ID()],
			Level:     sarifLevel(d.Severity),
			Message:   sarifMessage{Text: d.Message},
		}
		if d.File() != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       relativeURI(projectRoot, d.File()),
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if d.Line() > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{
					StartLine:   d.Span.StartLine,
					StartColumn: d.Span.StartColumn,
					EndLine:     d.Span.EndLine,
					EndColumn:   d.Span.EndColumn,
				}
			}
			result.Locations = []sarifLocation{loc}
		}
		results = append(results, result)
	}

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:    report.Tool,
				Version: report.Version,
				Rules:   rules,
			},
		},
		Results: results,
	}
	if report.RunID != "" {
		run.AutomationDetails = &sarifAutomationDetails{ID: report.RunID}
	}

	return json.MarshalIndent(sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []sarifRun{run},
	}, "", "  ")
}

func buildSARIFRules() ([]sarifRule, map[string]int) {
	descriptors := diagnostics.Descriptors()
	rules := make([]sarifRule, 0, len(descriptors))
	index := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		rule := sarifRule{
			ID:               d.ID,
			Name:             d.Name,
			ShortDescription: sarifMessage{Text: d.Title},
			HelpURI:          d.HelpURI,
			DefaultConfig:    sarifRuleDefaultConfig{Level: sarifLevel(d.Severity)},
		}
		if d.Description != "" {
			rule.FullDescription = &sarifMessage{Text: d.Description}
		}
		rules = append(rules, rule)
		index[d.ID] = i
	}
	return rules, index
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. If the path is already relative or projectRoot is
// empty, the path with forward slashes is returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}

func sarifLevel(s diagnostics.Severity) string {
	switch s {
	case diagnostics.SevError:
		return "error"
	case diagnostics.SevWarning:
		return "warning"
	default:
		return "note"
	}
}
