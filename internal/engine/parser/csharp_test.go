package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const actionsFixture = `
using System.Collections;
using Yarn.Unity;
using Runner = Yarn.Unity.DialogueRunner;

namespace Demo
{
    public partial class TestActions
    {
        /// <summary>Moves the <c>camera</c> somewhere.</summary>
        /// <param name="x">Horizontal position.</param>
        [YarnCommand("move_camera")]
        public static void Move(int x, float y = 2f, params string[] labels) { }

        [Yarn.Unity.YarnFunction]
        [return: Other]
        internal static int Count<T>() { return 0; }

        private int counter, total = 3;
        public string Name { get; set; }

        public class Nested
        {
            public void Inner() { }
        }
    }
}
`

func parseFixture(t *testing.T, path, source string) *Unit {
	t.Helper()
	loader, err := NewGrammarLoader()
	require.NoError(t, err)
	unit, err := NewParser(loader).ParseFile(context.Background(), path, []byte(source))
	require.NoError(t, err)
	t.Cleanup(unit.Close)
	return unit
}

func TestParseFileDeclarations(t *testing.T) {
	unit := parseFixture(t, "Assets/TestActions.cs", actionsFixture)
	assert.Empty(t, unit.Errors)

	require.Len(t, unit.Global.Usings, 3)
	assert.Equal(t, "System.Collections", unit.Global.Usings[0].Name)
	assert.Equal(t, "Runner", unit.Global.Usings[2].Alias)
	assert.Equal(t, "Yarn.Unity.DialogueRunner", unit.Global.Usings[2].Name)

	require.Len(t, unit.Types, 2)
	actions := unit.Types[0]
	assert.Equal(t, "TestActions", actions.Name)
	assert.Equal(t, "Demo", actions.Scope.Namespace)
	assert.True(t, actions.HasModifier("partial"))
	assert.Same(t, actions, unit.Types[1].Outer)
	assert.Equal(t, []*TypeDecl{unit.Types[1]}, actions.Nested)

	require.Len(t, actions.Methods, 2)
	move := actions.Methods[0]
	assert.Equal(t, "Move", move.Name)
	assert.Equal(t, []string{"public", "static"}, move.Modifiers)
	require.Len(t, move.Attributes, 1)
	assert.Equal(t, "YarnCommand", move.Attributes[0].Name)
	require.Len(t, move.Attributes[0].Args, 1)
	assert.Equal(t, `"move_camera"`, unit.Text(move.Attributes[0].Args[0].Expr))

	require.Len(t, move.Parameters, 3)
	assert.Equal(t, "x", move.Parameters[0].Name)
	assert.Equal(t, "int", unit.Text(move.Parameters[0].Type))
	assert.Equal(t, "2f", unit.Text(move.Parameters[1].Default))
	assert.True(t, move.Parameters[2].IsParams)
	assert.Equal(t, "labels", move.Parameters[2].Name)
	assert.Equal(t, "string[]", unit.Text(move.Parameters[2].Type))

	require.NotNil(t, move.Doc)
	assert.Equal(t, "Moves the camera somewhere.", move.Doc.Summary)
	assert.Equal(t, "Horizontal position.", move.Doc.Params["x"])

	count := actions.Methods[1]
	assert.Equal(t, []string{"T"}, count.TypeParameters)
	require.Len(t, count.Attributes, 2)
	assert.Equal(t, "Yarn.Unity.YarnFunction", count.Attributes[0].Name)
	assert.Empty(t, count.Attributes[0].Target)
	assert.Equal(t, "return", count.Attributes[1].Target)
	assert.Nil(t, count.Doc)

	require.Len(t, actions.Fields, 2)
	assert.Equal(t, "counter", actions.Fields[0].Name)
	assert.Nil(t, actions.Fields[0].Initializer)
	assert.Equal(t, "3", unit.Text(actions.Fields[1].Initializer))
	require.Len(t, actions.Properties, 1)
	assert.Equal(t, "Name", actions.Properties[0].Name)
}

func TestParseFileScopedNamespace(t *testing.T) {
	unit := parseFixture(t, "A.cs", "namespace Outer.Inner;\nusing X;\nstruct S { }\n")
	require.Len(t, unit.Types, 1)
	assert.Equal(t, TypeStruct, unit.Types[0].Kind)
	assert.Equal(t, "Outer.Inner", unit.Types[0].Scope.Namespace)
	require.Len(t, unit.Types[0].Scope.Usings, 1)
	assert.Equal(t, "X", unit.Types[0].Scope.Usings[0].Name)
}

func TestParseFileSyntaxErrors(t *testing.T) {
	unit := parseFixture(t, "Broken.cs", "class A { void M( }")
	require.NotEmpty(t, unit.Errors)
	assert.Equal(t, "CS0001", unit.Errors[0].ID())
	assert.Equal(t, "Broken.cs", unit.Errors[0].File())
}

func TestParseFileRejectsUnknownExtension(t *testing.T) {
	loader, err := NewGrammarLoader()
	require.NoError(t, err)
	p := NewParser(loader)
	_, err = p.ParseFile(context.Background(), "main.go", []byte("package main"))
	require.Error(t, err)
	assert.False(t, p.IsSupportedPath("main.go"))
	assert.True(t, p.IsSupportedPath("Door.cs"))
}
