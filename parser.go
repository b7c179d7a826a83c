package packrattle

import (
	"sync"
	"sync/atomic"
)

// nextParserID hands out process-unique parser identities. Identity is
// the id, never structural hashing: two parsers built from identical
// definitions are distinct cache keys (§3 Invariants).
var nextParserID int64

func newParserID() int64 {
	return atomic.AddInt64(&nextParserID, 1)
}

// Matcher is the compiled activation function a Parser closes over. It
// runs at (input, index) and returns a MatchResult possibly mixing
// terminal matches and Schedules.
type Matcher func(input Input, index int) MatchResult

// Parser is an immutable node in the combinator DAG. Two distinct
// constructions are distinct even if structurally equal; children are
// fixed at construction and the matcher closure closes over them.
type Parser struct {
	id        int64
	name      string
	children  []*Parser
	describe  func(childDescs []string) string
	cacheable bool
	matcher   Matcher

	descOnce sync.Once
	desc     string
}

// newParser builds a Parser node. describe may be nil, in which case
// the description falls back to name.
func newParser(name string, cacheable bool, children []*Parser, describe func([]string) string, matcher Matcher) *Parser {
	return &Parser{
		id:        newParserID(),
		name:      name,
		children:  children,
		describe:  describe,
		cacheable: cacheable,
		matcher:   matcher,
	}
}

// ID returns this parser's process-unique identity.
func (p *Parser) ID() int64 { return p.id }

// Name returns the short tag assigned at construction (e.g. "chain").
func (p *Parser) Name() string { return p.name }

// Cacheable reports whether this parser's result at a position is a
// pure function of (parser, position, input).
func (p *Parser) Cacheable() bool { return p.cacheable }

// Children returns this parser's fixed sub-parsers.
func (p *Parser) Children() []*Parser { return p.children }

// Description returns the memoized human description of this parser,
// computed from its children's descriptions on first use.
func (p *Parser) Description() string {
	p.descOnce.Do(func() {
		if p.describe == nil {
			p.desc = p.name
			return
		}
		childDescs := make([]string, len(p.children))
		for i, c := range p.children {
			childDescs[i] = c.Description()
		}
		p.desc = p.describe(childDescs)
	})
	return p.desc
}

// Activate runs this parser's compiled matcher at (input, index).
func (p *Parser) Activate(input Input, index int) MatchResult {
	return p.matcher(input, index)
}

// LazyParser resolves to a Parser exactly once, on first use. It
// exists so grammars can be cyclic: a rule may reference itself or a
// forward reference through a zero-arg thunk, resolved the first time
// a combinator needs the concrete *Parser.
type LazyParser struct {
	once     sync.Once
	thunk    func() *Parser
	resolved *Parser
}

// Lazy wraps a thunk as a LazyParser, resolved on first dereference.
func Lazy(thunk func() *Parser) *LazyParser {
	return &LazyParser{thunk: thunk}
}

// Eager wraps an already-constructed Parser as a LazyParser whose
// resolution is immediate and trivial.
func Eager(p *Parser) *LazyParser {
	return &LazyParser{resolved: p}
}

// Resolve returns the concrete Parser, running the thunk exactly once.
// A thunk producing nil is a grammar defect (§7).
func (l *LazyParser) Resolve() *Parser {
	l.once.Do(func() {
		if l.resolved != nil {
			return
		}
		l.resolved = l.thunk()
		if l.resolved == nil {
			panic(UnresolvedLazyParserError{})
		}
	})
	return l.resolved
}

// asParser wraps a *Parser that is already constructed as an
// already-resolved *LazyParser (via Eager), so call sites read
// uniformly whether the argument started out lazy or not.
func asParser(p *Parser) *LazyParser { return Eager(p) }

// Ref builds a Parser node that defers to l, resolving it the first
// time it is activated. This is how a grammar refers to itself or to a
// rule defined later in the same file: build the cyclic reference with
// Lazy(func() *Parser { return rule }) and wrap it in Ref so it can sit
// wherever a *Parser is expected (as a child of Chain, Alt, Seq, ...).
func Ref(l *LazyParser) *Parser {
	var self *Parser
	describe := func([]string) string { return l.Resolve().Description() }
	matcher := func(input Input, index int) MatchResult {
		return defer_(l.Resolve(), index)
	}
	self = newParser("ref", true, nil, describe, matcher)
	return self
}
