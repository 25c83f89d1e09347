package formats

import (
	"bytes"
	"encoding/json"
	"fmt"

	"actiongen/internal/engine/actions"
	"actiongen/internal/engine/semantic"

	"gopkg.in/yaml.v3"
)

const manifestLanguage = "csharp"

// ManifestAction describes one emitted action for editor tooling. Positions
// are zero-based.
type ManifestAction struct {
	YarnName       string              `json:"YarnName" yaml:"YarnName"`
	DefinitionName string              `json:"DefinitionName" yaml:"DefinitionName"`
	FileName       string              `json:"FileName" yaml:"FileName"`
	Documentation  string              `json:"Documentation,omitempty" yaml:"Documentation,omitempty"`
	Language       string              `json:"Language" yaml:"Language"`
	Location       *ManifestLocation   `json:"Location,omitempty" yaml:"Location,omitempty"`
	Parameters     []ManifestParameter `json:"Parameters" yaml:"Parameters"`
	// ReturnType is only present for functions. It holds nil when the
	// return type has no script equivalent.
	ReturnType **string `json:"ReturnType,omitempty" yaml:"ReturnType,omitempty"`
}

type ManifestLocation struct {
	Start ManifestPosition `json:"start" yaml:"start"`
	End   ManifestPosition `json:"end" yaml:"end"`
}

type ManifestPosition struct {
	Line      int `json:"line" yaml:"line"`
	Character int `json:"character" yaml:"character"`
}

type ManifestParameter struct {
	Name          string  `json:"Name" yaml:"Name"`
	Documentation string  `json:"Documentation,omitempty" yaml:"Documentation,omitempty"`
	DefaultValue  string  `json:"DefaultValue,omitempty" yaml:"DefaultValue,omitempty"`
	IsParamsArray bool    `json:"IsParamsArray" yaml:"IsParamsArray"`
	Type          *string `json:"Type" yaml:"Type"`
}

// BuildManifest describes eligible in order.
func BuildManifest(eligible []*actions.Action) []ManifestAction {
	out := make([]ManifestAction, 0, len(eligible))
	for _, a := range eligible {
		entry := ManifestAction{
			YarnName:       a.Name,
			DefinitionName: definitionName(a),
			FileName:       a.SourceFile,
			Documentation:  a.Description,
			Language:       manifestLanguage,
			Parameters:     make([]ManifestParameter, 0, len(a.Parameters)),
		}
		if a.Location.Start.Line > 0 {
			entry.Location = &ManifestLocation{
				Start: ManifestPosition{Line: a.Location.Start.Line - 1, Character: a.Location.Start.Column - 1},
				End:   ManifestPosition{Line: a.Location.End.Line - 1, Character: a.Location.End.Column - 1},
			}
		}
		for _, p := range a.Parameters {
			entry.Parameters = append(entry.Parameters, ManifestParameter{
				Name:          p.Name,
				Documentation: p.Description,
				DefaultValue:  p.DefaultValue,
				IsParamsArray: p.IsParamsArray,
				Type:          scriptType(p.Type),
			})
		}
		if a.Kind == actions.Function {
			rt := scriptType(a.ReturnType())
			entry.ReturnType = &rt
		}
		out = append(out, entry)
	}
	return out
}

// EncodeManifest renders entries as an indented JSON array or a YAML
// sequence.
func EncodeManifest(entries []ManifestAction, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported manifest format %q", format)
}

func definitionName(a *actions.Action) string {
	if a.ContainingType == nil {
		return a.MethodName()
	}
	return a.ContainingType.FullName() + "." + a.MethodName()
}

// scriptType maps t to the script type name, or nil when there is none.
func scriptType(t *semantic.Type) *string {
	var name string
	switch d := semantic.TypeDomain(t); {
	case d.Kind == semantic.DomainBool:
		name = "bool"
	case d.IsNumeric():
		name = "number"
	case d.Kind == semantic.DomainString:
		name = "string"
	default:
		return nil
	}
	return &name
}
