package packrattle_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	packrattle "github.com/alexzandros/packrattle"
	"github.com/alexzandros/packrattle/leaves"
)

// buildArithmetic wires up the canonical left-recursive grammar
// E = E '+' N | N, exercising the cache fixed-point machinery that
// lets a rule refer to itself before it has finished being built.
func buildArithmetic() *packrattle.Parser {
	number := packrattle.Map(leaves.MatchRegex(`[0-9]+`), func(_ packrattle.Span, v any) (any, error) {
		return strconv.Atoi(v.(string))
	})

	var expr *packrattle.Parser
	exprRef := packrattle.Lazy(func() *packrattle.Parser { return expr })

	plusTerm := packrattle.Chain(packrattle.Ref(exprRef), leaves.MatchString("+"), func(v1, v2 any) any { return v1 })
	sum := packrattle.Chain(plusTerm, number, func(v1, v2 any) any { return v1.(int) + v2.(int) })

	expr = packrattle.Alt(sum, number)
	return expr
}

func TestLeftRecursion(t *testing.T) {
	t.Run("resolves a chain of left-recursive additions", func(t *testing.T) {
		p := packrattle.Consume(buildArithmetic())
		value, err := packrattle.Run(p, packrattle.NewRuneInput("1+2+3"), packrattle.DefaultEngineOptions(), nil)
		require.NoError(t, err)
		assert.Equal(t, 6, value)
	})

	t.Run("a bare number still parses", func(t *testing.T) {
		p := packrattle.Consume(buildArithmetic())
		value, err := packrattle.Run(p, packrattle.NewRuneInput("42"), packrattle.DefaultEngineOptions(), nil)
		require.NoError(t, err)
		assert.Equal(t, 42, value)
	})

	t.Run("reports a failure when input doesn't parse", func(t *testing.T) {
		p := packrattle.Consume(buildArithmetic())
		_, err := packrattle.Run(p, packrattle.NewRuneInput("1+"), packrattle.DefaultEngineOptions(), nil)
		require.Error(t, err)
	})
}

func TestAmbiguousAlternatives(t *testing.T) {
	t.Run("identical alternatives dedup to one result", func(t *testing.T) {
		p := packrattle.Alt(leaves.MatchString("a"), leaves.MatchString("a"))
		input := packrattle.NewRuneInput("a")
		results := packrattle.ExecuteAll(p, input, 0, input.Len(), packrattle.DefaultEngineOptions(), nil)
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].Value)
	})

	t.Run("genuinely distinct successes are all kept", func(t *testing.T) {
		ambiguous := packrattle.Alt(
			packrattle.Map(leaves.MatchString("a"), func(_ packrattle.Span, v any) (any, error) { return "short", nil }),
			packrattle.Map(leaves.MatchRegex(`a`), func(_ packrattle.Span, v any) (any, error) { return "long", nil }),
		)
		input := packrattle.NewRuneInput("a")
		results := packrattle.ExecuteAll(ambiguous, input, 0, input.Len(), packrattle.DefaultEngineOptions(), nil)
		assert.Len(t, results, 2)
	})
}

func TestRunawayGrammarGuard(t *testing.T) {
	t.Run("panics once the dequeue budget is exhausted", func(t *testing.T) {
		opts := packrattle.DefaultEngineOptions()
		opts.MaxDequeues = 1
		p := packrattle.Seq(leaves.MatchString("a"), leaves.MatchString("b"), leaves.MatchString("c"))
		input := packrattle.NewRuneInput("abc")
		assert.PanicsWithValue(t, packrattle.RunawayGrammarError{MaxDequeues: 1}, func() {
			packrattle.Execute(p, input, 0, input.Len(), opts, nil)
		})
	})
}
