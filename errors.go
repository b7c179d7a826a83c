package packrattle

import "fmt"

// ParseFailure is the error category produced when a parse fails:
// expected, recoverable by alt/optional/not, rendered at the Driver
// boundary. It implements error so Run can return it directly.
type ParseFailure struct {
	Span     Span
	Message  string
	Priority int
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("%s @ %s", e.Message, e.Span)
}

func newParseFailure(m Match) *ParseFailure {
	return &ParseFailure{Span: m.Span, Message: m.Message, Priority: m.Priority}
}

// RepeatNoProgressError is a grammar defect: a repeated child matched
// zero-width input, so the repetition would never terminate (§4.8).
type RepeatNoProgressError struct {
	Position int
}

func (e RepeatNoProgressError) Error() string {
	return fmt.Sprintf("Repeating parser isn't making progress at position %d", e.Position)
}

// ImpossibleMatchError is a grammar defect: a handler received a
// Match value that is neither Success nor Failure (§7), which can
// only happen if a custom matcher constructs a Match by hand
// incorrectly instead of using the success/fail/schedule helpers.
type ImpossibleMatchError struct{}

func (e ImpossibleMatchError) Error() string {
	return "impossible Match value reached a handler (neither Success nor Failure)"
}

// UnresolvedLazyParserError is a grammar defect: a LazyParser's thunk
// resolved to nil.
type UnresolvedLazyParserError struct{}

func (e UnresolvedLazyParserError) Error() string {
	return "lazy parser resolution produced nil"
}

// RunawayGrammarError is a grammar defect: the engine's dequeue count
// exceeded EngineOptions.MaxDequeues before draining, protecting the
// host from a grammar that never reaches a fixed point.
type RunawayGrammarError struct {
	MaxDequeues int
}

func (e RunawayGrammarError) Error() string {
	return fmt.Sprintf("grammar exceeded %d scheduled activations without draining", e.MaxDequeues)
}
