package packrattle

import "github.com/prometheus/client_golang/prometheus"

// recoverGrammarDefect logs a grammar-defect panic (RepeatNoProgressError,
// ImpossibleMatchError, UnresolvedLazyParserError, RunawayGrammarError)
// through e's logger and re-panics it unchanged: a grammar defect is a
// bug in the caller's grammar construction, not a condition Execute can
// recover from on the caller's behalf (§7).
func recoverGrammarDefect(e *Engine) {
	if r := recover(); r != nil {
		if err, ok := r.(error); ok {
			e.logger.log.WithError(err).Error("grammar defect")
		}
		panic(r)
	}
}

// Result is what Execute/ExecuteAll return: either a Success (Ok true,
// Span/Value populated) or the best Failure the engine could report.
type Result struct {
	Ok      bool
	Span    Span
	Value   any
	Failure *ParseFailure
}

// Execute drives rootParser over input starting at startIndex, and
// returns the single best Success — the earliest one recorded whose
// span ends at or before endIndex, per §4.5's "earlier-listed wins for
// single-result callers" — or the tracked best Failure if none
// succeeded (§4.3 step 4).
func Execute(rootParser *Parser, input Input, startIndex, endIndex int, opts EngineOptions, reg prometheus.Registerer) Result {
	e := NewEngine(input, opts, reg)
	defer recoverGrammarDefect(e)

	var rootSuccesses []Match
	e.runParser(rootParser, startIndex, func(m Match) {
		if m.IsSuccess() {
			if m.Span.End <= endIndex {
				rootSuccesses = append(rootSuccesses, m)
			}
			return
		}
		e.updateBestFailure(m)
	})

	e.Drain()

	if len(rootSuccesses) > 0 {
		best := rootSuccesses[0]
		return Result{Ok: true, Span: best.Span, Value: best.Value}
	}
	if e.bestFailure != nil {
		return Result{Failure: newParseFailure(*e.bestFailure)}
	}
	return Result{Failure: &ParseFailure{Span: NewSpan(startIndex, startIndex), Message: "Expected " + rootParser.Description()}}
}

// ExecuteAll is Execute's "complete set of successful parses" mode
// (spec.md §1): it returns every distinct root Success recorded, in
// discovery order, or a single Failure result if none succeeded.
func ExecuteAll(rootParser *Parser, input Input, startIndex, endIndex int, opts EngineOptions, reg prometheus.Registerer) []Result {
	e := NewEngine(input, opts, reg)
	defer recoverGrammarDefect(e)

	var rootSuccesses []Match
	e.runParser(rootParser, startIndex, func(m Match) {
		if m.IsSuccess() {
			if m.Span.End <= endIndex {
				rootSuccesses = append(rootSuccesses, m)
			}
			return
		}
		e.updateBestFailure(m)
	})

	e.Drain()

	if len(rootSuccesses) == 0 {
		if e.bestFailure != nil {
			return []Result{{Failure: newParseFailure(*e.bestFailure)}}
		}
		return []Result{{Failure: &ParseFailure{Span: NewSpan(startIndex, startIndex), Message: "Expected " + rootParser.Description()}}}
	}
	out := make([]Result, len(rootSuccesses))
	for i, m := range rootSuccesses {
		out[i] = Result{Ok: true, Span: m.Span, Value: m.Value}
	}
	return out
}

// Run is Execute over the whole input, returning the value directly
// and the ParseFailure as a Go error on failure.
func Run(rootParser *Parser, input Input, opts EngineOptions, reg prometheus.Registerer) (any, error) {
	res := Execute(rootParser, input, 0, input.Len(), opts, reg)
	if !res.Ok {
		return nil, res.Failure
	}
	return res.Value, nil
}

// Consume wraps p so the root only succeeds if it consumed the entire
// input; otherwise it fails at the first unconsumed position.
func Consume(p *Parser) *Parser {
	describe := func(d []string) string { return d[0] }
	matcher := func(input Input, index int) MatchResult {
		return schedule(p, index, func(m Match) MatchResult {
			if m.IsFailure() {
				return MatchResult{m}
			}
			if m.Span.End != input.Len() {
				return MatchResult{failAt(m.Span.End, "Expected end of input", nil)}
			}
			return MatchResult{m}
		})
	}
	return newParser("consume", p.Cacheable(), []*Parser{p}, describe, matcher)
}
