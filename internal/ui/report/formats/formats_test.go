package formats

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"actiongen/internal/core/ports"
	"actiongen/internal/engine/actions"
	"actiongen/internal/engine/diagnostics"
	"actiongen/internal/engine/parser"
	"actiongen/internal/engine/semantic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() ports.Report {
	return ports.Report{
		RunID:    "7f8e0a52-2c1d-4a4f-9d2b-0d4c3f1e9a10",
		Tool:     "YarnActionAnalyzer",
		Version:  "1.2.3",
		Files:    2,
		Output:   "ActionRegistration.cs",
		Written:  true,
		Duration: 1500 * time.Millisecond,
		Actions: []ports.ActionSummary{
			{Name: "move", Kind: "command", DeclarationKind: "attribute", AsyncMode: "sync", Method: "Game.Stage.Move", IsStatic: true, File: "Assets/Stage.cs", Line: 8, Emitted: true},
			{Name: "sum", Kind: "function", DeclarationKind: "attribute", AsyncMode: "sync", Method: "Game.Stage.Sum", File: "Assets/Stage.cs", Line: 11},
		},
		Diagnostics: []diagnostics.Diagnostic{
			diagnostics.New(diagnostics.FunctionMustBeStatic, diagnostics.Span{
				File: "Assets/Stage.cs", StartLine: 11, StartColumn: 20, EndLine: 11, EndColumn: 23,
			}, "Sum"),
		},
	}
}

func TestNewReportWriter(t *testing.T) {
	for _, format := range []string{"", FormatText, FormatJSON, FormatSARIF} {
		w, err := NewReportWriter(format, false, "")
		require.NoError(t, err, format)
		assert.NotNil(t, w)
	}
	_, err := NewReportWriter("html", false, "")
	require.Error(t, err)
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextWriter{}.Write(&buf, sampleReport()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `Assets/Stage.cs:11:20: warning YS1006: Function methods are required to be static. "Sum" is an instance method.`, lines[0])
	assert.Equal(t, "2 files, 2 actions (1 emitted), 1 diagnostic in 1.5s", lines[1])
	assert.Equal(t, "wrote ActionRegistration.cs", lines[2])
}

func TestTextWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextWriter{}.Write(&buf, ports.Report{Files: 1}))
	assert.Equal(t, "1 file, 0 actions (0 emitted), 0 diagnostics in 0s\n", buf.String())
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONWriter{}.Write(&buf, sampleReport()))

	var got jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, int64(1500), got.DurationMS)
	require.Len(t, got.Actions, 2)
	assert.True(t, got.Actions[0].Static)
	assert.False(t, got.Actions[1].Emitted)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, jsonDiagnostic{
		ID:       "YS1006",
		Severity: "warning",
		Message:  `Function methods are required to be static. "Sum" is an instance method.`,
		File:     "Assets/Stage.cs",
		Line:     11,
		Column:   20,
	}, got.Diagnostics[0])
}

func TestGenerateSARIF(t *testing.T) {
	data, err := GenerateSARIF("/project", sampleReport())
	require.NoError(t, err)

	var report sarifReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, sarifSchema, report.Schema)
	assert.Equal(t, sarifVersion, report.Version)
	require.Len(t, report.Runs, 1)

	run := report.Runs[0]
	assert.Equal(t, "YarnActionAnalyzer", run.Tool.Driver.Name)
	assert.Len(t, run.Tool.Driver.Rules, len(diagnostics.Descriptors()))
	require.NotNil(t, run.AutomationDetails)
	assert.Equal(t, "7f8e0a52-2c1d-4a4f-9d2b-0d4c3f1e9a10", run.AutomationDetails.ID)

	require.Len(t, run.Results, 1)
	r := run.Results[0]
	assert.Equal(t, "YS1006", r.RuleID)
	assert.Equal(t, "YS1006", run.Tool.Driver.Rules[r.RuleIndex].ID)
	assert.Equal(t, "warning", r.Level)
	require.Len(t, r.Locations, 1)
	assert.Equal(t, "Assets/Stage.cs", r.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, &sarifRegion{StartLine: 11, StartColumn: 20, EndLine: 11, EndColumn: 23}, r.Locations[0].PhysicalLocation.Region)
}

func TestGenerateSARIF_Empty(t *testing.T) {
	data, err := GenerateSARIF("", ports.Report{Tool: "YarnActionAnalyzer"})
	require.NoError(t, err)
	var report sarifReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Empty(t, report.Runs[0].Results)
	assert.Nil(t, report.Runs[0].AutomationDetails)
}

func TestRelativeURI(t *testing.T) {
	assert.Equal(t, "Assets/Stage.cs", relativeURI("/project", "/project/Assets/Stage.cs"))
	assert.Equal(t, "Assets/Stage.cs", relativeURI("", "Assets/Stage.cs"))
}

const manifestSource = `
using Yarn.Unity;
using UnityEngine;

namespace Game
{
    public class Stage : MonoBehaviour
    {
        /// <summary>Moves the stage.</summary>
        /// <param name="x">Horizontal offset.</param>
        [YarnCommand("move")]
        public void Move(int x, float speed = 1.5f, params string[] tags) { }

        [YarnFunction("ready")]
        public static bool Ready(string who) { return true; }

        [YarnFunction("spawn")]
        public static GameObject Spawn() { return null; }
    }
}
`

func manifestActions(t *testing.T) []*actions.Action {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	c, err := semantic.NewFrontend(parser.NewParser(loader), semantic.Options{Prelude: true}).
		Compile(context.Background(), []semantic.Source{{Path: "Assets/Stage.cs", Content: []byte(manifestSource)}})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	all, err := actions.NewClassifier(c, actions.DefaultOptions()).Classify(context.Background())
	require.NoError(t, err)
	return all
}

func TestBuildManifest(t *testing.T) {
	entries := BuildManifest(manifestActions(t))
	require.Len(t, entries, 3)

	move := entries[0]
	assert.Equal(t, "move", move.YarnName)
	assert.Equal(t, "Game.Stage.Move", move.DefinitionName)
	assert.Equal(t, "Assets/Stage.cs", move.FileName)
	assert.Equal(t, "Moves the stage.", move.Documentation)
	assert.Equal(t, "csharp", move.Language)
	require.NotNil(t, move.Location)
	assert.Equal(t, 10, move.Location.Start.Line)
	assert.Equal(t, 8, move.Location.Start.Character)
	assert.Nil(t, move.ReturnType)

	require.Len(t, move.Parameters, 3)
	assert.Equal(t, "Horizontal offset.", move.Parameters[0].Documentation)
	assert.Equal(t, "number", *move.Parameters[0].Type)
	assert.Equal(t, "1.5", move.Parameters[1].DefaultValue)
	assert.True(t, move.Parameters[2].IsParamsArray)
	assert.Nil(t, move.Parameters[2].Type)

	require.NotNil(t, entries[1].ReturnType)
	assert.Equal(t, "bool", **entries[1].ReturnType)
	assert.Equal(t, "string", *entries[1].Parameters[0].Type)

	require.NotNil(t, entries[2].ReturnType)
	assert.Nil(t, *entries[2].ReturnType)
}

func TestEncodeManifest(t *testing.T) {
	entries := BuildManifest(manifestActions(t))

	data, err := EncodeManifest(entries, FormatJSON)
	require.NoError(t, err)
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 3)
	assert.NotContains(t, decoded[0], "ReturnType")
	assert.Contains(t, decoded[2], "ReturnType")
	assert.Nil(t, decoded[2]["ReturnType"])

	data, err = EncodeManifest(entries, FormatYAML)
	require.NoError(t, err)
	var fromYAML []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML, 3)
	assert.Equal(t, "move", fromYAML[0]["YarnName"])

	_, err = EncodeManifest(entries, "xml")
	require.Error(t, err)
}
