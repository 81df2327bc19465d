package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	result := Parse("   ")
	assert.Equal(t, "", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("create")
	assert.Equal(t, "create", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_Lowercase(t *testing.T) {
	result := Parse("JOIN AbC")
	assert.Equal(t, "join", result.Command)
	assert.Equal(t, []string{"AbC"}, result.Args, "arguments keep their case")
}

func TestParse_ExtraWhitespace(t *testing.T) {
	result := Parse("  move   4 \t game-1  ")
	assert.Equal(t, "move", result.Command)
	assert.Equal(t, []string{"4", "game-1"}, result.Args)
}

func TestPropertyParseAlwaysLowercasesCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[A-Za-z]{1,20}`).Draw(t, "word")
		result := Parse(word)
		if result.Command != strings.ToLower(word) {
			t.Fatalf("Parse(%q).Command = %q", word, result.Command)
		}
	})
}

func TestPropertyParseKeepsEveryArgument(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cmd := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "cmd")
		args := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z0-9-]{1,12}`), 0, 4).Draw(t, "args")
		sep := rapid.SampledFrom([]string{" ", "  ", "\t"}).Draw(t, "sep")

		result := Parse(strings.Join(append([]string{cmd}, args...), sep))
		if result.Command != cmd {
			t.Fatalf("command %q, want %q", result.Command, cmd)
		}
		if len(result.Args) != len(args) {
			t.Fatalf("args %v, want %v", result.Args, args)
		}
		for i := range args {
			if result.Args[i] != args[i] {
				t.Fatalf("args %v, want %v", result.Args, args)
			}
		}
	})
}

func TestParse_BareColumnIsMove(t *testing.T) {
	tests := []struct {
		line string
		args []string
	}{
		{"4", []string{"4"}},
		{" 7  game-2 ", []string{"7", "game-2"}},
		{"12", []string{"12"}},
	}
	for _, tt := range tests {
		result := Parse(tt.line)
		assert.Equal(t, "move", result.Command, tt.line)
		assert.Equal(t, tt.args, result.Args, tt.line)
	}
}

func TestParse_NumberInsideWordIsNotMove(t *testing.T) {
	result := Parse("4x")
	assert.Equal(t, "4x", result.Command)
	assert.Nil(t, result.Args)
}

func TestPropertyParseBareColumnBuildsMove(t *testing.T) {
	move, ok := DefaultRegistry().Resolve(Parse("1").Command)
	if !ok {
		t.Fatal("move command not registered")
	}
	rapid.Check(t, func(t *rapid.T) {
		col := rapid.IntRange(1, 7).Draw(t, "column")
		parsed := Parse(strings.Repeat(" ", rapid.IntRange(0, 3).Draw(t, "pad")) + string(rune('0'+col)))
		msg, err := BuildIntent(move, parsed.Args, "g1")
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if msg.Column != col-1 || msg.SessionID != "g1" {
			t.Fatalf("column %d in %q, want %d in g1", msg.Column, msg.SessionID, col-1)
		}
	})
}
