package app

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"actiongen/internal/core/config"
	"actiongen/internal/core/errors"
	"actiongen/internal/core/ports"
	"actiongen/internal/engine/parser"
	"actiongen/internal/engine/semantic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const stageSource = `using Yarn.Unity;

namespace Game
{
    public class Stage
    {
        [YarnCommand("move")]
        public static void Move(int x, int y) { }

        [YarnFunction("sum")]
        public static int Sum(int a, int b) { return a + b; }

        [YarnFunction("broken")]
        public int Broken() { return 0; }
    }
}
`

const propsSource = `using Yarn.Unity;

public class Props
{
    [YarnCommand("spin")]
    public void Spin(float speed) { }
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newProject lays out a project in a temp dir and returns an app rooted there.
func newProject(t *testing.T, files map[string]string) (*App, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, filepath.Join(dir, name), content)
	}
	cfg := config.Default()
	cfg.Input.Paths = []string{filepath.Join(dir, "Assets")}
	cfg.Output.Path = filepath.Join(dir, "Assets", "Generated", "ActionRegistration.cs")
	a, err := New(cfg)
	require.NoError(t, err)
	a.BaseDir = dir
	return a, dir
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"b/Second.cs", "a/First.cs", "a/notes.txt", "Library/Cache.cs", "a/Gen.g.cs", "a/Out.cs",
	} {
		writeFile(t, filepath.Join(dir, name), "class X {}")
	}
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)

	d, err := NewSourceDiscovery(parser.NewParser(loader), []string{"Library"}, []string{"*.g.cs"}, filepath.Join(dir, "a/Out.cs"))
	require.NoError(t, err)

	files, err := d.Discover(context.Background(), []string{dir, filepath.Join(dir, "a/First.cs")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a/First.cs"),
		filepath.Join(dir, "b/Second.cs"),
	}, files)

	_, err = d.Discover(context.Background(), []string{filepath.Join(dir, "missing")})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = d.Discover(context.Background(), []string{filepath.Join(dir, "a/notes.txt")})
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))

	_, err = NewSourceDiscovery(parser.NewParser(loader), nil, []string{"[bad"})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestGenerate(t *testing.T) {
	a, dir := newProject(t, map[string]string{
		"Assets/Stage.cs":       stageSource,
		"Assets/Props/Props.cs": propsSource,
	})

	report, err := a.Generate(context.Background(), ports.GenerateRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Files)
	assert.True(t, report.Written)
	assert.Equal(t, "Assets/Generated/ActionRegistration.cs", report.Output)

	require.Len(t, report.Actions, 4)
	assert.Equal(t, ports.ActionSummary{
		Name: "spin", Kind: "command", DeclarationKind: "attribute", AsyncMode: "sync",
		Method: "Props.Spin", File: "Assets/Props/Props.cs", Line: 5, Emitted: true,
	}, report.Actions[0])
	assert.False(t, report.Actions[3].Emitted)

	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, "YS1006", report.Diagnostics[0].ID())

	out, err := os.ReadFile(filepath.Join(dir, "Assets/Generated/ActionRegistration.cs"))
	require.NoError(t, err)
	text := string(out)
	props := strings.Index(text, "// Assets/Props/Props.cs")
	stage := strings.Index(text, "// Assets/Stage.cs")
	require.Positive(t, props)
	assert.Greater(t, stage, props)
	assert.Contains(t, text, `target.AddCommandHandler<int, int>("move", global::Game.Stage.Move);`)
	assert.Contains(t, text, `target.AddFunction<int, int, int>("sum", global::Game.Stage.Sum);`)
	assert.NotContains(t, text, `"broken"`)

	again, err := a.Generate(context.Background(), ports.GenerateRequest{})
	require.NoError(t, err)
	assert.False(t, again.Written)
	second, err := os.ReadFile(filepath.Join(dir, "Assets/Generated/ActionRegistration.cs"))
	require.NoError(t, err)
	assert.Equal(t, out, second)
}

func TestGenerateEmptyDirectory(t *testing.T) {
	a, dir := newProject(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Assets"), 0o755))

	report, err := a.Generate(context.Background(), ports.GenerateRequest{})
	require.NoError(t, err)
	assert.Zero(t, report.Files)
	assert.Empty(t, report.Actions)

	out, err := os.ReadFile(a.Config().Output.Path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "public static void RegisterActions(global::Yarn.Unity.IActionRegistration target)\n        {\n        }\n")
}

func TestGenerateOwnership(t *testing.T) {
	a, _ := newProject(t, map[string]string{"Assets/Stage.cs": stageSource})
	output := a.Config().Output.Path
	writeFile(t, output, "public class Handwritten { }\n")

	_, err := a.Generate(context.Background(), ports.GenerateRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
	out, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "public class Handwritten { }\n", string(out))

	cfg := *a.Config()
	cfg.Output.Force = true
	a.SetConfig(&cfg)
	report, err := a.Generate(context.Background(), ports.GenerateRequest{})
	require.NoError(t, err)
	assert.True(t, report.Written)
}

func TestGenerateStructuralFailure(t *testing.T) {
	a, _ := newProject(t, map[string]string{"Assets/Stage.cs": stageSource})
	prelude := false
	a.Config().Frontend.Prelude = &prelude

	_, err := a.Generate(context.Background(), ports.GenerateRequest{})
	require.Error(t, err)
	var structural *semantic.StructuralError
	require.True(t, stderrors.As(err, &structural))
	assert.True(t, errors.IsCode(err, errors.CodeStructural))

	_, statErr := os.Stat(a.Config().Output.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateMissingInput(t *testing.T) {
	a, dir := newProject(t, nil)
	_, err := a.Generate(context.Background(), ports.GenerateRequest{Paths: []string{filepath.Join(dir, "Nope")}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestGenerateDryRun(t *testing.T) {
	a, dir := newProject(t, map[string]string{"Assets/Stage.cs": stageSource})
	a.Config().Manifest.Path = filepath.Join(dir, "actions.json")

	report, err := a.Generate(context.Background(), ports.GenerateRequest{DryRun: true})
	require.NoError(t, err)
	assert.False(t, report.Written)
	assert.Len(t, report.Actions, 3)

	_, statErr := os.Stat(a.Config().Output.Path)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(a.Config().Manifest.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateManifest(t *testing.T) {
	a, dir := newProject(t, map[string]string{"Assets/Stage.cs": stageSource})
	a.Config().Manifest.Path = filepath.Join(dir, "Assets", "actions.yaml")
	a.Config().Manifest.Format = "yaml"

	_, err := a.Generate(context.Background(), ports.GenerateRequest{})
	require.NoError(t, err)

	out, err := os.ReadFile(a.Config().Manifest.Path)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "YarnName: move")
	assert.Contains(t, text, "YarnName: sum")
	assert.NotContains(t, text, "YarnName: broken")
	assert.Contains(t, text, "FileName: Assets/Stage.cs")
}

func TestGenerateReferences(t *testing.T) {
	a, dir := newProject(t, map[string]string{
		"Assets/Hooks.cs": `using Yarn.Unity;
public class Hooks
{
    [YarnCommand("fade")]
    public static void Fade(Engine.Color c) { }
}
`,
		"Stubs/Engine.cs": `namespace Engine { public struct Color { } }
public class Ignored
{
    [Yarn.Unity.YarnCommand("never")]
    public static void Never() { }
}
`,
	})
	a.Config().Frontend.References = []string{filepath.Join(dir, "Stubs")}

	report, err := a.Generate(context.Background(), ports.GenerateRequest{})
	require.NoError(t, err)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, "fade", report.Actions[0].Name)
	assert.Equal(t, 1, report.Files)
}

func TestWatch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a, dir := newProject(t, map[string]string{"Assets/Stage.cs": stageSource})
	a.Config().Watch.Debounce = 50 * time.Millisecond
	a.Config().Watch.MaxRunsPerSecond = 100

	type result struct {
		report ports.Report
		err    error
	}
	runs := make(chan result, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, ports.GenerateRequest{}, func(r ports.Report, err error) {
			runs <- result{r, err}
		})
	}()

	next := func() result {
		t.Helper()
		select {
		case r := <-runs:
			return r
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for run")
		}
		return result{}
	}

	first := next()
	require.NoError(t, first.err)
	assert.Len(t, first.report.Actions, 3)

	// Give the watcher time to register before changing sources.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "Assets", "Props.cs"), propsSource)

	second := next()
	require.NoError(t, second.err)
	assert.Len(t, second.report.Actions, 4)
	assert.NotEqual(t, first.report.RunID, second.report.RunID)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchRebuildsWatcherOnReload(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Assets", "Stage.cs"), stageSource)
	writeFile(t, filepath.Join(dir, "Extra", "Props.cs"), propsSource)
	configFile := filepath.Join(dir, config.DefaultFile)
	writeConfig := func(paths string) {
		writeFile(t, configFile, `
[input]
paths = `+paths+`

[output]
path = "Assets/Generated/ActionRegistration.cs"

[watch]
debounce = "50ms"
max_runs_per_second = 100
`)
	}
	writeConfig(`["Assets"]`)

	cfg, err := config.Load(configFile)
	require.NoError(t, err)
	a, err := New(cfg)
	require.NoError(t, err)
	a.BaseDir = dir
	a.ConfigPath = configFile

	counts := make(chan int, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, ports.GenerateRequest{}, func(r ports.Report, err error) {
			if err == nil {
				counts <- len(r.Actions)
			}
		})
	}()

	waitFor := func(want int) {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case n := <-counts:
				if n == want {
					return
				}
			case <-timeout:
				t.Fatalf("no run reported %d actions", want)
			}
		}
	}

	waitFor(3)
	time.Sleep(100 * time.Millisecond)
	writeConfig(`["Assets", "Extra"]`)
	waitFor(4)

	// Only a watcher rebuilt for the new inputs sees this file.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "Extra", "More.cs"), `using Yarn.Unity;

public class More
{
    [YarnCommand("more")]
    public static void Go() { }
}
`)
	waitFor(5)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
