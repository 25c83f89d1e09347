package codegen

import (
	"context"
	"strings"
	"testing"

	"actiongen/internal/engine/actions"
	"actiongen/internal/engine/parser"
	"actiongen/internal/engine/semantic"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discover(t *testing.T, files ...[2]string) []*actions.Action {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	var sources []semantic.Source
	for _, f := range files {
		sources = append(sources, semantic.Source{Path: f[0], Content: []byte(f[1])})
	}
	c, err := semantic.NewFrontend(parser.NewParser(loader), semantic.Options{Prelude: true}).
		Compile(context.Background(), sources)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	all, err := actions.NewClassifier(c, actions.DefaultOptions()).Classify(context.Background())
	require.NoError(t, err)
	actions.NewValidator(c, actions.DefaultValidatorOptions()).Validate(all)
	return actions.Eligible(all)
}

const emptyFile = `namespace Generated.ActionRegistration
{
    [System.CodeDom.Compiler.GeneratedCode("YarnActionAnalyzer", "1.0.0.0")]
    public partial class ActionRegistration
    {
#if UNITY_EDITOR
        [global::UnityEditor.InitializeOnLoadMethod]
#endif
        [global::UnityEngine.RuntimeInitializeOnLoadMethod(global::UnityEngine.RuntimeInitializeLoadType.BeforeSceneLoad)]
        public static void AddRegisterFunction()
        {
            global::Yarn.Unity.Actions.AddRegistrationMethod(RegisterActions);
        }

        [System.CodeDom.Compiler.GeneratedCode("YarnActionAnalyzer", "1.0.0.0")]
        public static void RegisterActions(global::Yarn.Unity.IActionRegistration target)
        {
        }
    }
}
`

func TestGenerateEmpty(t *testing.T) {
	out, err := NewRegistrationGenerator(DefaultOptions()).Generate(nil)
	require.NoError(t, err)
	if diff := cmp.Diff(emptyFile, out); diff != "" {
		t.Errorf("generated file mismatch (-want +got):\n%s", diff)
	}
}

const stageSource = `
using Yarn.Unity;

namespace Game
{
    public class Stage
    {
        [YarnCommand("move")]
        public static void Move(int x, int y) { }

        [YarnCommand("wave")]
        public void Wave() { }

        [YarnCommand("say")]
        public void Say(string line, bool loud) { }

        [YarnFunction("sum")]
        public static int Sum(int a, int b) { return a + b; }
    }
}
`

const propsSource = `
using Yarn.Unity;

public class Props
{
    [YarnCommand("spin")]
    public void Spin(float speed) { }
}
`

func registrationBody(t *testing.T, out string) []string {
	t.Helper()
	start := strings.Index(out, "IActionRegistration target)")
	require.GreaterOrEqual(t, start, 0)
	body := out[start:]
	body = body[strings.Index(body, "{\n")+2:]
	body = body[:strings.Index(body, "        }\n")]
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}

func TestGenerateStaticAndInstance(t *testing.T) {
	eligible := discover(t, [2]string{"Assets/Stage.cs", stageSource})
	require.Len(t, eligible, 4)

	out, err := NewRegistrationGenerator(DefaultOptions()).Generate(eligible)
	require.NoError(t, err)

	want := []string{
		"// Actions from file:",
		"// Assets/Stage.cs",
		`target.AddCommandHandler<int, int>("move", global::Game.Stage.Move);`,
		`target.AddCommandHandler("wave", typeof(global::Game.Stage).GetMethod(nameof(global::Game.Stage.Wave), new System.Type[] { }));`,
		`target.AddCommandHandler("say", typeof(global::Game.Stage).GetMethod(nameof(global::Game.Stage.Say), new System.Type[] { typeof(string), typeof(bool) }));`,
		`target.AddFunction<int, int, int>("sum", global::Game.Stage.Sum);`,
	}
	if diff := cmp.Diff(want, registrationBody(t, out)); diff != "" {
		t.Errorf("registrations mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateGroupsByFile(t *testing.T) {
	eligible := discover(t, [2]string{"A.cs", stageSource}, [2]string{"B.cs", propsSource})
	// Interleave so grouping cannot rely on input order.
	mixed := []*actions.Action{eligible[0], eligible[4], eligible[1]}

	out, err := NewRegistrationGenerator(DefaultOptions()).Generate(mixed)
	require.NoError(t, err)

	want := []string{
		"// Actions from file:",
		"// A.cs",
		`target.AddCommandHandler<int, int>("move", global::Game.Stage.Move);`,
		`target.AddCommandHandler("wave", typeof(global::Game.Stage).GetMethod(nameof(global::Game.Stage.Wave), new System.Type[] { }));`,
		"// Actions from file:",
		"// B.cs",
		`target.AddCommandHandler("spin", typeof(global::Props).GetMethod(nameof(global::Props.Spin), new System.Type[] { typeof(float) }));`,
	}
	if diff := cmp.Diff(want, registrationBody(t, out)); diff != "" {
		t.Errorf("registrations mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	eligible := discover(t, [2]string{"A.cs", stageSource}, [2]string{"B.cs", propsSource})
	gen := NewRegistrationGenerator(DefaultOptions())
	first, err := gen.Generate(eligible)
	require.NoError(t, err)
	second, err := gen.Generate(eligible)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateFunctionDeclarations(t *testing.T) {
	opts := DefaultOptions()
	opts.FunctionDeclarations = true
	opts.Namespace = "Custom.Space"
	opts.Class = "Registry"
	out, err := NewRegistrationGenerator(opts).Generate(discover(t, [2]string{"Stage.cs", stageSource}))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "namespace Custom.Space\n"))
	assert.Contains(t, out, "public partial class Registry\n")
	body := registrationBody(t, out)
	assert.Equal(t, []string{
		"// Function declarations from file:",
		"// Stage.cs",
		`target.RegisterFunctionDeclaration("sum", typeof(int), new System.Type[] { typeof(int), typeof(int) });`,
	}, body[len(body)-3:])
}

func TestGenerateNonPublicInstanceUsesLiteralName(t *testing.T) {
	const source = `
using Yarn.Unity;
using UnityEngine;

public class Hooks : MonoBehaviour
{
    void Start()
    {
        GetComponent<DialogueRunner>().AddCommandHandler("poke", Poke);
    }

    void Poke(int times) { }
}
`
	eligible := discover(t, [2]string{"Hooks.cs", source})
	require.Len(t, eligible, 1)
	out, err := NewRegistrationGenerator(DefaultOptions()).Generate(eligible)
	require.NoError(t, err)
	assert.Contains(t, out, `target.AddCommandHandler("poke", typeof(global::Hooks).GetMethod("Poke", new System.Type[] { typeof(int) }));`)
}

func TestGenerateByRefParameters(t *testing.T) {
	const source = `
using Yarn.Unity;

public class Counter
{
    [YarnCommand("tally")]
    public void Tally(ref int total, in float step, bool loud) { }
}
`
	eligible := discover(t, [2]string{"Counter.cs", source})
	require.Len(t, eligible, 1)
	out, err := NewRegistrationGenerator(DefaultOptions()).Generate(eligible)
	require.NoError(t, err)
	assert.Contains(t, out, `target.AddCommandHandler("tally", typeof(global::Counter).GetMethod(nameof(global::Counter.Tally), `+
		`new System.Type[] { typeof(int).MakeByRefType(), typeof(float).MakeByRefType(), typeof(bool) }));`)
}

func TestGenerateExcludesUnresolvedParameterTypes(t *testing.T) {
	const source = `
using UnityEngine;
using Yarn.Unity;

public class Rig
{
    [YarnCommand("aim")]
    public static void Aim(Vector3 at) { }

    [YarnCommand("spawn")]
    public static void Spawn(GameObject prefab) { }
}
`
	eligible := discover(t, [2]string{"Rig.cs", source})
	require.Len(t, eligible, 1)
	out, err := NewRegistrationGenerator(DefaultOptions()).Generate(eligible)
	require.NoError(t, err)
	assert.NotContains(t, out, "Vector3")
	assert.Contains(t, out, `target.AddCommandHandler<global::UnityEngine.GameObject>("spawn", global::Rig.Spawn);`)
}

func TestGenerateRejectsInvalidAction(t *testing.T) {
	_, err := NewRegistrationGenerator(DefaultOptions()).Generate([]*actions.Action{{Name: "broken"}})
	require.Error(t, err)

	eligible := discover(t, [2]string{"Stage.cs", stageSource})
	bad := *eligible[0]
	bad.Kind = actions.NotAnAction
	_, err = NewRegistrationGenerator(DefaultOptions()).Generate([]*actions.Action{&bad})
	require.ErrorContains(t, err, "not a valid action")
}

func TestLiteral(t *testing.T) {
	tests := map[string]string{
		"plain":      `"plain"`,
		`say "hi"`:   `"say \"hi\""`,
		`back\slash`: `"back\\slash"`,
		"tab\there":  `"tab\there"`,
		"bell\a":     `"bell\u0007"`,
		"héllo":      `"héllo"`,
	}
	for in, want := range tests {
		assert.Equal(t, want, literal(in), in)
	}
}

func TestOwned(t *testing.T) {
	out, err := NewRegistrationGenerator(DefaultOptions()).Generate(nil)
	require.NoError(t, err)
	assert.True(t, Owned([]byte(out), "YarnActionAnalyzer"))
	assert.False(t, Owned([]byte(out), "OtherTool"))
	assert.False(t, Owned([]byte("public class Handwritten { }"), "YarnActionAnalyzer"))
}
