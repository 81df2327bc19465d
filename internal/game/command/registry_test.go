package command

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Len(t, r.Commands(), len(BuiltinCommands()))
}

func TestResolve_CanonicalAndAlias(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		input   string
		handler string
	}{
		{"create", HandlerCreate},
		{"new", HandlerCreate},
		{"join", HandlerJoin},
		{"j", HandlerJoin},
		{"invite", HandlerInvite},
		{"accept", HandlerAccept},
		{"decline", HandlerDecline},
		{"cancel", HandlerCancel},
		{"unjoin", HandlerWithdraw},
		{"move", HandlerMove},
		{"drop", HandlerMove},
		{"m", HandlerMove},
		{"forfeit", HandlerLeave},
		{"rejoin", HandlerRejoin},
		{"look", HandlerBoard},
		{"id", HandlerWhoami},
		{"?", HandlerHelp},
		{"exit", HandlerQuit},
	}
	for _, tt := range tests {
		cmd, ok := r.Resolve(tt.input)
		require.True(t, ok, "input %q not found", tt.input)
		assert.Equal(t, tt.handler, cmd.Handler, "input %q wrong handler", tt.input)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, ok := DefaultRegistry().Resolve("teleport")
	assert.False(t, ok)
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry([]Command{
		{Name: "test", Handler: "a"},
		{Name: "test", Handler: "b"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate command name")
}

func TestNewRegistry_DuplicateAlias(t *testing.T) {
	_, err := NewRegistry([]Command{
		{Name: "test1", Aliases: []string{"t"}, Handler: "a"},
		{Name: "test2", Aliases: []string{"t"}, Handler: "b"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate alias")
}

func TestNewRegistry_AliasShadowsName(t *testing.T) {
	_, err := NewRegistry([]Command{
		{Name: "move", Handler: "a"},
		{Name: "drop", Aliases: []string{"move"}, Handler: "b"},
	})
	assert.Error(t, err)
}

func TestCommands_SortedByName(t *testing.T) {
	cmds := DefaultRegistry().Commands()
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	assert.True(t, sort.StringsAreSorted(names), "names: %v", names)
}

func TestCommandsByCategory(t *testing.T) {
	cats := DefaultRegistry().CommandsByCategory()
	assert.Len(t, cats, 3)
	assert.Len(t, cats[CategoryLobby], 7)
	assert.Len(t, cats[CategoryGame], 4)
	assert.Len(t, cats[CategorySystem], 3)
}

func TestIsLocal(t *testing.T) {
	for _, cmd := range BuiltinCommands() {
		want := cmd.Category == CategorySystem || cmd.Handler == HandlerBoard
		assert.Equal(t, want, IsLocal(cmd.Handler), cmd.Name)
	}
}

func TestPropertyAllAliasesResolveToCanonical(t *testing.T) {
	r := DefaultRegistry()
	cmds := r.Commands()
	rapid.Check(t, func(t *rapid.T) {
		cmd := rapid.SampledFrom(cmds).Draw(t, "cmd")

		resolved, ok := r.Resolve(cmd.Name)
		if !ok || resolved.Name != cmd.Name {
			t.Fatalf("canonical name %q did not resolve to itself", cmd.Name)
		}
		for _, alias := range cmd.Aliases {
			aliasResolved, ok := r.Resolve(alias)
			if !ok || aliasResolved.Name != cmd.Name {
				t.Fatalf("alias %q did not resolve to %q", alias, cmd.Name)
			}
		}
	})
}

func TestNewRegistry_RequiresNameAndHandler(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "orphan"}})
	assert.Error(t, err)
	_, err = NewRegistry([]Command{{Handler: HandlerHelp}})
	assert.Error(t, err)
}

func TestCommands_ReturnsCopy(t *testing.T) {
	r := DefaultRegistry()
	cmds := r.Commands()
	cmds[0] = nil
	assert.NotNil(t, r.Commands()[0])
}
