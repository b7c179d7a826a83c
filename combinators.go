package packrattle

import (
	"fmt"
	"strings"
)

// Combiner folds two child values into the value a chain produces.
type Combiner func(v1, v2 any) any

// Chain schedules p1 at index, then p2 starting where p1 left off, and
// combines their values with combine. A failure from either child is
// reported at that child's own failure position (§4.4).
func Chain(p1, p2 *Parser, combine Combiner) *Parser {
	children := []*Parser{p1, p2}
	describe := func(d []string) string { return fmt.Sprintf("chain(%s, %s)", d[0], d[1]) }
	matcher := func(input Input, index int) MatchResult {
		return schedule(p1, index, func(m1 Match) MatchResult {
			if m1.IsFailure() {
				return MatchResult{m1}
			}
			return schedule(p2, m1.Span.End, func(m2 Match) MatchResult {
				if m2.IsFailure() {
					return MatchResult{m2}
				}
				span := mergeSpan(m1.Span, m2.Span)
				return MatchResult{successAt(span, combine(m1.Value, m2.Value))}
			})
		})
	}
	return newParser("chain", true, children, describe, matcher)
}

// Seq left-folds Chain over parsers, producing an ordered []any value.
// Zero parsers succeeds immediately at (index,index) with value []any{}.
func Seq(parsers ...*Parser) *Parser {
	if len(parsers) == 0 {
		return newParser("seq", true, nil, func([]string) string { return "seq()" },
			func(input Input, index int) MatchResult {
				return success(index, index, []any{})
			})
	}

	first := Map(parsers[0], func(_ Span, v any) (any, error) { return []any{v}, nil })
	acc := first
	for _, p := range parsers[1:] {
		acc = Chain(acc, p, func(v1, v2 any) any {
			return append(append([]any{}, v1.([]any)...), v2)
		})
	}

	// Rewrap so the description/children reflect the flat sequence
	// rather than the internal left-fold shape.
	descs := make([]*Parser, len(parsers))
	copy(descs, parsers)
	describe := func(d []string) string { return "seq(" + strings.Join(d, ", ") + ")" }
	matcher := func(input Input, index int) MatchResult {
		return defer_(acc, index)
	}
	return newParser("seq", true, descs, describe, matcher)
}

// Pair, Triple, Quad and Quint back the seq2..seq5 typed convenience
// wrappers (SPEC_FULL.md §11), mirroring the teacher's own
// tuple-light wrapSeq helper generalized with Go generics.
type Pair[A, B any] struct {
	First  A
	Second B
}

type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

type Quad[A, B, C, D any] struct {
	First  A
	Second B
	Third  C
	Fourth D
}

type Quint[A, B, C, D, E any] struct {
	First  A
	Second B
	Third  C
	Fourth D
	Fifth  E
}

// Seq2 wraps Seq(p1, p2), unpacking its []any value into a Pair.
func Seq2[A, B any](p1, p2 *Parser) *Parser {
	return Map(Seq(p1, p2), func(_ Span, v any) (any, error) {
		items := v.([]any)
		return Pair[A, B]{items[0].(A), items[1].(B)}, nil
	})
}

// Seq3 wraps Seq(p1, p2, p3), unpacking its []any value into a Triple.
func Seq3[A, B, C any](p1, p2, p3 *Parser) *Parser {
	return Map(Seq(p1, p2, p3), func(_ Span, v any) (any, error) {
		items := v.([]any)
		return Triple[A, B, C]{items[0].(A), items[1].(B), items[2].(C)}, nil
	})
}

// Seq4 wraps Seq(p1..p4), unpacking its []any value into a Quad.
func Seq4[A, B, C, D any](p1, p2, p3, p4 *Parser) *Parser {
	return Map(Seq(p1, p2, p3, p4), func(_ Span, v any) (any, error) {
		items := v.([]any)
		return Quad[A, B, C, D]{items[0].(A), items[1].(B), items[2].(C), items[3].(D)}, nil
	})
}

// Seq5 wraps Seq(p1..p5), unpacking its []any value into a Quint.
func Seq5[A, B, C, D, E any](p1, p2, p3, p4, p5 *Parser) *Parser {
	return Map(Seq(p1, p2, p3, p4, p5), func(_ Span, v any) (any, error) {
		items := v.([]any)
		return Quint[A, B, C, D, E]{items[0].(A), items[1].(B), items[2].(C), items[3].(D), items[4].(E)}, nil
	})
}

// Alt schedules every alternative at the same index. The earlier-listed
// alternative wins whenever two produce an identical (end, value) pair
// (§4.5); genuinely distinct successes are all kept, for callers that
// want the complete set of parses. If every alternative fails, a
// single synthesized Failure is produced via the best-failure rule of
// §4.3.2, falling back to a generic "Expected <alt>" message when the
// winning failure carries no more specific information.
func Alt(children ...*Parser) *Parser {
	if len(children) == 0 {
		panic("alt requires at least one alternative")
	}
	var self *Parser
	describe := func(d []string) string { return strings.Join(d, " | ") }

	matcher := func(input Input, index int) MatchResult {
		n := len(children)
		failCount := 0
		failures := make([]Match, 0, n)

		result := make(MatchResult, 0, n)
		for _, child := range children {
			child := child
			result = append(result, scheduleAt(child, index, func(m Match) MatchResult {
				if m.IsSuccess() {
					return MatchResult{successAt(m.Span, m.Value)}
				}
				failCount++
				failures = append(failures, m)
				if failCount < n {
					return nil
				}
				best := selectBestFailure(failures)
				if best.Span.Start == index && best.Priority == 0 {
					return MatchResult{failExpecting(index, self, nil)}
				}
				return MatchResult{best}
			}))
		}
		return result
	}
	self = newParser("alt", true, children, describe, matcher)
	return self
}

// selectBestFailure applies §4.3.2's ranking to a set of candidate
// Failures: highest priority first, then latest span start.
func selectBestFailure(failures []Match) Match {
	best := failures[0]
	for _, f := range failures[1:] {
		if betterFailure(f, best) {
			best = f
		}
	}
	return best
}

// Optional is an alias for OptionalOr with the empty sentinel as the
// default value.
func Optional(p *Parser) *Parser {
	return OptionalOr(p, OptionalEmpty{})
}

// OptionalEmpty is the sentinel value Optional produces on its empty
// branch, distinguishing "matched nothing" from a user default of nil.
type OptionalEmpty struct{}

// OptionalOr schedules p at index and also emits an immediate empty
// Success with the given default value; both branches stay live and
// downstream combinators may consume either (§4.6).
func OptionalOr(p *Parser, defaultValue any) *Parser {
	cacheable := isPrimitiveValue(defaultValue)
	describe := func(d []string) string { return d[0] + "?" }
	matcher := func(input Input, index int) MatchResult {
		return MatchResult{
			scheduleAt(p, index, func(m Match) MatchResult { return MatchResult{m} }),
			successAt(NewSpan(index, index), defaultValue),
		}
	}
	return newParser("optional", cacheable, []*Parser{p}, describe, matcher)
}

func isPrimitiveValue(v any) bool {
	if v == nil {
		return true
	}
	switch v.(type) {
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return true
	default:
		return false
	}
}

// Check schedules p at index; on success it forwards the value but
// consumes zero width (§4.7). On failure it propagates unchanged.
func Check(p *Parser) *Parser {
	describe := func(d []string) string { return "&" + d[0] }
	matcher := func(input Input, index int) MatchResult {
		return schedule(p, index, func(m Match) MatchResult {
			if m.IsFailure() {
				return MatchResult{m}
			}
			return MatchResult{successAt(NewSpan(index, index), m.Value)}
		})
	}
	return newParser("check", true, []*Parser{p}, describe, matcher)
}

// Not schedules p at index; on success it fails at index naming
// itself, on failure it succeeds with a nil value and zero width
// (§4.7). Exactly one of Not(p) and p succeeds at any position.
func Not(p *Parser) *Parser {
	var self *Parser
	describe := func(d []string) string { return "!" + d[0] }
	matcher := func(input Input, index int) MatchResult {
		return schedule(p, index, func(m Match) MatchResult {
			if m.IsSuccess() {
				return MatchResult{failExpecting(index, self, nil)}
			}
			return MatchResult{successAt(NewSpan(index, index), nil)}
		})
	}
	self = newParser("not", true, []*Parser{p}, describe, matcher)
	return self
}

// RepeatOptions configures Repeat: Min defaults to 0 and Max<=0 means
// unbounded, matching the spec's `{min, max}` defaults of 0 and +∞.
type RepeatOptions struct {
	Min int
	Max int
}

// ZeroOrMore is Repeat(p, {Min: 0}).
func ZeroOrMore(p *Parser) *Parser { return Repeat(p, RepeatOptions{Min: 0}) }

// OneOrMore is Repeat(p, {Min: 1}).
func OneOrMore(p *Parser) *Parser { return Repeat(p, RepeatOptions{Min: 1}) }

// Repeat matches p between opts.Min and opts.Max times, accumulating
// values in order. A repeated child that matches zero width is a
// grammar defect (§4.8), reported by panicking with
// RepeatNoProgressError rather than returned as a parse Failure.
func Repeat(p *Parser, opts RepeatOptions) *Parser {
	min := opts.Min
	max := opts.Max
	var self *Parser
	describe := func(d []string) string {
		maxLabel := "∞"
		if max > 0 {
			maxLabel = fmt.Sprintf("%d", max)
		}
		return fmt.Sprintf("%s{%d,%s}", d[0], min, maxLabel)
	}
	matcher := func(input Input, index int) MatchResult {
		return repeatStep(self, p, min, max, 0, nil, index, index)
	}
	self = newParser("repeat", true, []*Parser{p}, describe, matcher)
	return self
}

func repeatStep(self, p *Parser, min, max, count int, acc []any, startIndex, pos int) MatchResult {
	var out MatchResult

	if count >= min {
		out = append(out, successAt(NewSpan(startIndex, pos), append([]any{}, acc...)))
	}

	if max <= 0 || count < max {
		out = append(out, scheduleAt(p, pos, func(m Match) MatchResult {
			if m.IsFailure() {
				if count < min {
					span := NewSpan(startIndex, m.Span.Start)
					return MatchResult{{kind: matchFailure, Span: span, Message: "Expected " + self.Description()}}
				}
				return nil
			}
			if m.Span.Empty() {
				panic(RepeatNoProgressError{Position: pos})
			}
			return repeatStep(self, p, min, max, count+1, append(acc, m.Value), startIndex, m.Span.End)
		}))
	}

	return out
}
