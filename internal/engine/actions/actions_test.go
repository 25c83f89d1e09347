package actions

import (
	"context"
	"testing"

	"actiongen/internal/engine/parser"
	"actiongen/internal/engine/semantic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type file struct {
	path    string
	content string
}

func compile(t *testing.T, files ...file) *semantic.Compilation {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	var sources []semantic.Source
	for _, f := range files {
		sources = append(sources, semantic.Source{Path: f.path, Content: []byte(f.content)})
	}
	c, err := semantic.NewFrontend(parser.NewParser(loader), semantic.Options{Prelude: true}).
		Compile(context.Background(), sources)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func discover(t *testing.T, opts Options, vopts ValidatorOptions, files ...file) []*Action {
	t.Helper()
	c := compile(t, files...)
	all, err := NewClassifier(c, opts).Classify(context.Background())
	require.NoError(t, err)
	NewValidator(c, vopts).Validate(all)
	return all
}

func byName(all []*Action) map[string]*Action {
	out := map[string]*Action{}
	for _, a := range all {
		out[a.Name] = a
	}
	return out
}

func ids(a *Action) []string {
	var out []string
	for _, d := range a.Diagnostics {
		out = append(out, d.ID())
	}
	return out
}

const markersSource = `
using System.Collections;
using UnityEngine;
using Yarn.Unity;

namespace Game
{
    public class Stage : MonoBehaviour
    {
        const int Number = 4;

        public void Plain() { }

        [YarnCommand("fade_in")]
        public void FadeIn() { }

        [YarnCommand]
        public IEnumerator Walk(int steps) { return null; }

        [YarnCommand(Number)]
        public Coroutine Shake() { return null; }

        [YarnCommand("jump")]
        public int Jump() { return 0; }

        [YarnCommand("twice")]
        [YarnFunction("twice")]
        public static bool Twice() { return true; }

        [YarnFunction("add")]
        public static int Add(int a, int b) { return a + b; }

        [YarnFunction("label")]
        public string Label() { return ""; }

        [YarnFunction("thing")]
        public static Stage Thing() { return null; }

        [YarnFunction("ratio")]
        public static double Ratio() { return 1; }
    }
}
`

func TestClassifyMarkers(t *testing.T) {
	all := discover(t, DefaultOptions(), DefaultValidatorOptions(), file{"Assets/Stage.cs", markersSource})
	actions := byName(all)

	assert.NotContains(t, actions, "Plain")
	require.Len(t, all, 9)

	fade := actions["fade_in"]
	require.NotNil(t, fade)
	assert.Equal(t, Command, fade.Kind)
	assert.Equal(t, AttributeDeclared, fade.DeclarationKind)
	assert.Equal(t, Sync, fade.AsyncMode)
	assert.Equal(t, "FadeIn", fade.MethodName())
	assert.Equal(t, "Assets/Stage.cs", fade.SourceFile)
	assert.Equal(t, "Game.Stage", fade.ContainingType.FullName())
	assert.True(t, fade.Eligible())

	walk := actions["Walk"]
	require.NotNil(t, walk, "name falls back to the method")
	assert.Equal(t, AsyncCoroutine, walk.AsyncMode)
	require.Len(t, walk.Parameters, 1)
	assert.Equal(t, "steps", walk.Parameters[0].Name)

	shake := actions["Shake"]
	require.NotNil(t, shake, "non-string constant falls back to the method name")
	assert.Equal(t, MaybeAsyncCoroutine, shake.AsyncMode)

	jump := actions["jump"]
	assert.Equal(t, Sync, jump.AsyncMode)
	assert.Empty(t, jump.Diagnostics, "command returns are unchecked by default")

	twice := actions["Twice"]
	require.NotNil(t, twice)
	assert.Equal(t, NotAnAction, twice.Kind)
	assert.Equal(t, 2, twice.MarkerCount)
	assert.Equal(t, []string{"YS1005"}, ids(twice))
	assert.Contains(t, twice.Diagnostics[0].Message, `"Twice" has 2`)
}

func TestValidateFunctions(t *testing.T) {
	actions := byName(discover(t, DefaultOptions(), DefaultValidatorOptions(), file{"Stage.cs", markersSource}))

	add := actions["add"]
	assert.Equal(t, Function, add.Kind)
	assert.True(t, add.IsStatic)
	assert.Empty(t, add.Diagnostics)

	assert.Equal(t, []string{"YS1006"}, ids(actions["label"]))
	assert.Equal(t, []string{"YS1004"}, ids(actions["thing"]))
	assert.Contains(t, actions["thing"].Diagnostics[0].Message, "global::Game.Stage")
	assert.Empty(t, actions["ratio"].Diagnostics)

	label := actions["label"].Diagnostics[0]
	assert.Equal(t, "Stage.cs", label.File())
	assert.Equal(t, 34, label.Line())

	eligible := Eligible(ordered(actions))
	for _, a := range eligible {
		assert.NotEqual(t, NotAnAction, a.Kind)
		assert.Empty(t, a.Diagnostics)
	}
}

func ordered(m map[string]*Action) []*Action {
	var out []*Action
	for _, name := range []string{"fade_in", "Walk", "Shake", "jump", "Twice", "add", "label", "thing", "ratio"} {
		if a, ok := m[name]; ok {
			out = append(out, a)
		}
	}
	return out
}

func TestStrictCommandReturns(t *testing.T) {
	vopts := DefaultValidatorOptions()
	vopts.StrictCommandReturns = true
	actions := byName(discover(t, DefaultOptions(), vopts, file{"Stage.cs", markersSource}))

	assert.Equal(t, []string{"YS1003"}, ids(actions["jump"]))
	assert.Empty(t, actions["fade_in"].Diagnostics)
	assert.Empty(t, actions["Walk"].Diagnostics)
	assert.Empty(t, actions["Shake"].Diagnostics)
}

func TestValidateAccessibility(t *testing.T) {
	const source = `
using Yarn.Unity;

namespace Game
{
    public class Outer
    {
        [YarnCommand("hidden")]
        void Hidden() { }

        [YarnCommand("bad name")]
        public void Spaced() { }

        class Inner
        {
            [YarnCommand("inner")]
            public void Run() { }
        }
    }

    internal class Helper
    {
        [YarnFunction("helper")]
        public static int Value() { return 1; }
    }
}
`
	actions := byName(discover(t, DefaultOptions(), DefaultValidatorOptions(), file{"Access.cs", source}))
	require.Len(t, actions, 4)

	hidden := actions["hidden"]
	assert.Equal(t, []string{"YS1001"}, ids(hidden))
	assert.Contains(t, hidden.Diagnostics[0].Message, "private")

	assert.Equal(t, []string{"YS1002"}, ids(actions["bad name"]))

	inner := actions["inner"]
	assert.Equal(t, []string{"YS1007"}, ids(inner))
	assert.Contains(t, inner.Diagnostics[0].Message, "Game.Outer.Inner")

	helper := actions["helper"]
	assert.Equal(t, []string{"YS1007"}, ids(helper))
	assert.Contains(t, helper.Diagnostics[0].Message, "internal")
}

const setupSource = `
using UnityEngine;
using Yarn.Unity;

namespace Game
{
    public class Setup : MonoBehaviour
    {
        const string Prefix = "cam_";

        void Awake()
        {
            var runner = FindObjectOfType<DialogueRunner>();
            runner.AddCommandHandler(Prefix + "shake", Shake);
            runner.AddCommandHandler<int, int>("move", Tools.Move);
            runner.AddCommandHandler(name, Shake);
            runner.AddFunction<int, bool>("even", Tools.IsEven);
            new Fake().AddCommandHandler("fake", Shake);
        }

        string name = "runtime";

        /// <summary>Shakes the camera.</summary>
        public void Shake() { }
    }

    public static class Tools
    {
        /// <param name="x">Target x.</param>
        public static void Move(int x, int y) { }
        public static void Move(string where) { }
        public static bool IsEven(int value) { return value % 2 == 0; }
    }

    public class Fake
    {
        public void AddCommandHandler(string name, System.Action handler) { }
    }
}
`

func TestDirectRegistration(t *testing.T) {
	all := discover(t, DefaultOptions(), DefaultValidatorOptions(),
		file{"Tools.cs", "namespace Game { public static class Unused { } }"},
		file{"Setup.cs", setupSource})
	require.Len(t, all, 2)

	shake := all[0]
	assert.Equal(t, "cam_shake", shake.Name)
	assert.Equal(t, Command, shake.Kind)
	assert.Equal(t, DirectlyRegistered, shake.DeclarationKind)
	assert.Equal(t, Sync, shake.AsyncMode)
	assert.Equal(t, "Shake", shake.MethodName())
	assert.False(t, shake.IsStatic)
	assert.Equal(t, "Setup.cs", shake.SourceFile)
	assert.Equal(t, "Shakes the camera.", shake.Description)

	move := all[1]
	assert.Equal(t, "move", move.Name)
	assert.Equal(t, "Game.Tools", move.ContainingType.FullName())
	assert.True(t, move.IsStatic)
	require.Len(t, move.Parameters, 2, "type arguments pick the two-parameter overload")
	assert.Equal(t, "Target x.", move.Parameters[0].Description)
	assert.Empty(t, Diagnostics(all))
}

func TestDirectFunctions(t *testing.T) {
	opts := DefaultOptions()
	opts.DirectFunctions = true
	all := discover(t, opts, DefaultValidatorOptions(), file{"Setup.cs", setupSource})
	require.Len(t, all, 3)

	even := all[2]
	assert.Equal(t, "even", even.Name)
	assert.Equal(t, Function, even.Kind)
	assert.Equal(t, "IsEven", even.MethodName())
	assert.Empty(t, even.Diagnostics)
}

func TestSkipGeneratedClasses(t *testing.T) {
	const source = `
using Yarn.Unity;

namespace Game
{
    [System.CodeDom.Compiler.GeneratedCode("tool", "1.0")]
    public class Registrations
    {
        void Register(DialogueRunner runner)
        {
            runner.AddCommandHandler("gen", Run);
        }
        public static void Run() { }
    }
}
`
	assert.Empty(t, discover(t, DefaultOptions(), DefaultValidatorOptions(), file{"Gen.cs", source}))

	opts := DefaultOptions()
	opts.SkipGenerated = false
	all := discover(t, opts, DefaultValidatorOptions(), file{"Gen.cs", source})
	require.Len(t, all, 1)
	assert.Equal(t, "gen", all[0].Name)
}

func TestParameterDetails(t *testing.T) {
	const source = `
using Yarn.Unity;

public class Door
{
    /// <summary>Opens the door.</summary>
    /// <param name="speed">How fast.</param>
    /// <param name="speed">Ignored duplicate.</param>
    [YarnCommand("open")]
    public static void Open(float speed = 2.5f, bool loud = true, params string[] tags) { }
}
`
	all := discover(t, DefaultOptions(), DefaultValidatorOptions(), file{"Door.cs", source})
	require.Len(t, all, 1)
	open := all[0]
	assert.Equal(t, "Opens the door.", open.Description)
	require.Len(t, open.Parameters, 3)

	speed := open.Parameters[0]
	assert.True(t, speed.IsOptional)
	assert.Equal(t, "2.5", speed.DefaultValue)
	assert.Equal(t, "How fast.", speed.Description)

	assert.Equal(t, "True", open.Parameters[1].DefaultValue)
	assert.True(t, open.Parameters[2].IsParamsArray)
	assert.Equal(t, []string{"float", "bool", "string[]"}, displays(open.ParameterTypes()))
}

func displays(types []*semantic.Type) []string {
	var out []string
	for _, t := range types {
		out = append(out, t.Display())
	}
	return out
}

func TestInterpolatedNames(t *testing.T) {
	const source = `
using UnityEngine;
using Yarn.Unity;

namespace Game
{
    public class Outer : MonoBehaviour
    {
        const string Prefix = "pre";

        [YarnCommand($"{Prefix}_interp")]
        public static void Interp() { }

        [YarnCommand($"{Prefix,8}_padded")]
        public static void Padded() { }

        void Awake()
        {
            FindObjectOfType<DialogueRunner>().AddCommandHandler($"{Prefix}_{nameof(Hop)}", Hop);
        }

        public static void Hop() { }
    }
}
`
	all := discover(t, DefaultOptions(), DefaultValidatorOptions(), file{"Outer.cs", source})
	actions := byName(all)
	require.Len(t, all, 3)

	interp := actions["pre_interp"]
	require.NotNil(t, interp)
	assert.Equal(t, "Interp", interp.MethodName())
	assert.Empty(t, interp.Diagnostics)

	padded := actions["Padded"]
	require.NotNil(t, padded, "an alignment clause is not constant, so the method name is used")

	hop := actions["pre_Hop"]
	require.NotNil(t, hop)
	assert.Equal(t, DirectlyRegistered, hop.DeclarationKind)
}

func TestValidateParameterTypes(t *testing.T) {
	const source = `
using System.Collections.Generic;
using UnityEngine;
using Yarn.Unity;

namespace Game
{
    public class Props
    {
        [YarnCommand("engine")]
        public static void Engine(Vector3 where, GameObject go) { }

        [YarnCommand("nested")]
        public static void Nested(int[] xs, List<string> names) { }

        [YarnCommand("pick")]
        public static void Pick<T>(T value) { }

        [YarnCommand("count")]
        public static void Count(ref int total) { }

        [YarnCommand("fill")]
        public void Fill(out int total, GameObject[] targets) { total = 0; }
    }
}
`
	all := discover(t, DefaultOptions(), DefaultValidatorOptions(), file{"Props.cs", source})
	actions := byName(all)
	require.Len(t, all, 5)

	engine := actions["engine"]
	assert.Equal(t, []string{"YS1008"}, ids(engine))
	assert.Contains(t, engine.Diagnostics[0].Message, `"where"`)
	assert.Contains(t, engine.Diagnostics[0].Message, "Vector3")
	assert.Equal(t, 11, engine.Diagnostics[0].Line())

	nested := actions["nested"]
	assert.Equal(t, []string{"YS1008"}, ids(nested))
	assert.Contains(t, nested.Diagnostics[0].Message, "List<string>")

	assert.Equal(t, []string{"YS1008"}, ids(actions["pick"]))

	count := actions["count"]
	assert.Equal(t, []string{"YS1009"}, ids(count))
	assert.Contains(t, count.Diagnostics[0].Message, "ref")

	fill := actions["fill"]
	assert.Empty(t, fill.Diagnostics, "instance actions are looked up by reflection")
	assert.Equal(t, "out", fill.Parameters[0].RefKind)

	eligible := Eligible(all)
	require.Len(t, eligible, 1)
	assert.Equal(t, "fill", eligible[0].Name)
}
