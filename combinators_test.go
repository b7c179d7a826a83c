package packrattle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	packrattle "github.com/alexzandros/packrattle"
	"github.com/alexzandros/packrattle/leaves"
)

func run(p *packrattle.Parser, text string) packrattle.Result {
	input := packrattle.NewRuneInput(text)
	return packrattle.Execute(p, input, 0, input.Len(), packrattle.DefaultEngineOptions(), nil)
}

func TestChain(t *testing.T) {
	t.Run("combines both children's values", func(t *testing.T) {
		p := packrattle.Chain(leaves.MatchString("a"), leaves.MatchString("b"), func(v1, v2 any) any {
			return v1.(string) + v2.(string)
		})
		res := run(p, "ab")
		require.True(t, res.Ok)
		assert.Equal(t, "ab", res.Value)
	})

	t.Run("fails at the first child's own position", func(t *testing.T) {
		p := packrattle.Chain(leaves.MatchString("a"), leaves.MatchString("b"), func(v1, v2 any) any { return nil })
		res := run(p, "xb")
		require.False(t, res.Ok)
		assert.Equal(t, 0, res.Failure.Span.Start)
	})

	t.Run("fails at the second child's own position", func(t *testing.T) {
		p := packrattle.Chain(leaves.MatchString("a"), leaves.MatchString("b"), func(v1, v2 any) any { return nil })
		res := run(p, "ax")
		require.False(t, res.Ok)
		assert.Equal(t, 1, res.Failure.Span.Start)
	})
}

func TestSeq(t *testing.T) {
	t.Run("zero parsers succeeds with an empty slice", func(t *testing.T) {
		res := run(packrattle.Seq(), "")
		require.True(t, res.Ok)
		assert.Equal(t, []any{}, res.Value)
	})

	t.Run("collects values in order", func(t *testing.T) {
		p := packrattle.Seq(leaves.MatchString("a"), leaves.MatchString("b"), leaves.MatchString("c"))
		res := run(p, "abc")
		require.True(t, res.Ok)
		assert.Equal(t, []any{"a", "b", "c"}, res.Value)
	})
}

func TestSeq2(t *testing.T) {
	t.Run("unpacks into a Pair", func(t *testing.T) {
		p := packrattle.Seq2[string, string](leaves.MatchString("a"), leaves.MatchString("b"))
		res := run(p, "ab")
		require.True(t, res.Ok)
		pair := res.Value.(packrattle.Pair[string, string])
		assert.Equal(t, "a", pair.First)
		assert.Equal(t, "b", pair.Second)
	})
}

func TestAlt(t *testing.T) {
	t.Run("first listed alternative wins on an exact tie", func(t *testing.T) {
		p := packrattle.Alt(leaves.MatchString("a"), leaves.MatchString("a"))
		res := run(p, "a")
		require.True(t, res.Ok)
		assert.Equal(t, "a", res.Value)
	})

	t.Run("falls through to a later alternative", func(t *testing.T) {
		p := packrattle.Alt(leaves.MatchString("a"), leaves.MatchString("b"))
		res := run(p, "b")
		require.True(t, res.Ok)
		assert.Equal(t, "b", res.Value)
	})

	t.Run("synthesizes a generic failure when every alternative fails", func(t *testing.T) {
		p := packrattle.Alt(leaves.MatchString("a"), leaves.MatchString("b"))
		res := run(p, "c")
		require.False(t, res.Ok)
		assert.Contains(t, res.Failure.Message, "Expected")
	})

	t.Run("a Named child's priority outranks the generic fallback message", func(t *testing.T) {
		named := packrattle.Named(leaves.MatchString("a"), "letter a", 10)
		p := packrattle.Alt(named, leaves.MatchString("b"))
		res := run(p, "c")
		require.False(t, res.Ok)
		assert.Equal(t, "Expected letter a", res.Failure.Message)
	})

	t.Run("spec scenario 6: a named alternative's priority wins with its own message", func(t *testing.T) {
		p := packrattle.Alt(
			packrattle.Seq2[any, string](packrattle.OptionalOr(leaves.MatchString("x"), "?"), leaves.MatchString("y")),
			leaves.MatchString("z"),
			packrattle.Named(leaves.MatchString("q"), "yikes!", 1),
		)
		res := run(p, "v")
		require.False(t, res.Ok)
		assert.Equal(t, "Expected yikes!", res.Failure.Message)
	})
}

func TestOptional(t *testing.T) {
	t.Run("matches when present", func(t *testing.T) {
		res := run(packrattle.Optional(leaves.MatchString("a")), "a")
		require.True(t, res.Ok)
		assert.Equal(t, "a", res.Value)
	})

	t.Run("falls back to the empty sentinel", func(t *testing.T) {
		res := run(packrattle.Optional(leaves.MatchString("a")), "b")
		require.True(t, res.Ok)
		assert.IsType(t, packrattle.OptionalEmpty{}, res.Value)
	})

	t.Run("OptionalOr falls back to a custom default", func(t *testing.T) {
		res := run(packrattle.OptionalOr(leaves.MatchString("a"), "none"), "b")
		require.True(t, res.Ok)
		assert.Equal(t, "none", res.Value)
	})
}

func TestCheck(t *testing.T) {
	t.Run("matches without consuming", func(t *testing.T) {
		p := packrattle.Seq2[string, any](packrattle.Check(leaves.MatchString("a")), leaves.MatchString("a"))
		res := run(p, "a")
		require.True(t, res.Ok)
	})

	t.Run("propagates the child's failure", func(t *testing.T) {
		res := run(packrattle.Check(leaves.MatchString("a")), "b")
		require.False(t, res.Ok)
	})
}

func TestNot(t *testing.T) {
	t.Run("succeeds when the child fails", func(t *testing.T) {
		res := run(packrattle.Not(leaves.MatchString("a")), "b")
		require.True(t, res.Ok)
	})

	t.Run("fails when the child succeeds", func(t *testing.T) {
		res := run(packrattle.Not(leaves.MatchString("a")), "a")
		require.False(t, res.Ok)
	})
}

func TestRepeat(t *testing.T) {
	t.Run("zero or more matches none", func(t *testing.T) {
		res := run(packrattle.ZeroOrMore(leaves.MatchString("a")), "")
		require.True(t, res.Ok)
		assert.Equal(t, []any{}, res.Value)
	})

	t.Run("zero or more records every prefix count, including the full run", func(t *testing.T) {
		input := packrattle.NewRuneInput("aaa")
		results := packrattle.ExecuteAll(packrattle.ZeroOrMore(leaves.MatchString("a")), input, 0, input.Len(), packrattle.DefaultEngineOptions(), nil)
		var longest []any
		for _, r := range results {
			require.True(t, r.Ok)
			if v := r.Value.([]any); len(v) > len(longest) {
				longest = v
			}
		}
		assert.Equal(t, []any{"a", "a", "a"}, longest)
	})

	t.Run("one or more requires at least one", func(t *testing.T) {
		res := run(packrattle.OneOrMore(leaves.MatchString("a")), "")
		require.False(t, res.Ok)
	})

	t.Run("bounded repeat never exceeds max", func(t *testing.T) {
		p := packrattle.Repeat(leaves.MatchString("a"), packrattle.RepeatOptions{Min: 0, Max: 2})
		results := packrattle.ExecuteAll(p, packrattle.NewRuneInput("aaa"), 0, 2, packrattle.DefaultEngineOptions(), nil)
		longest := []any{}
		for _, r := range results {
			require.True(t, r.Ok)
			if v := r.Value.([]any); len(v) > len(longest) {
				longest = v
			}
		}
		assert.Equal(t, []any{"a", "a"}, longest)
	})

	t.Run("zero-width child progress is a grammar defect", func(t *testing.T) {
		zeroWidth := packrattle.Optional(leaves.MatchString("z"))
		p := packrattle.ZeroOrMore(zeroWidth)
		assert.Panics(t, func() {
			run(p, "")
		})
	})
}
