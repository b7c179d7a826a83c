package packrattle

import (
	"sort"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// continuation is what the trampoline invokes whenever a parser
// activation (possibly many turns later, through nested Schedules)
// produces a terminal Match. It is the engine's internal analogue of
// the Handler type threaded through combinator logic.
type continuation func(Match)

// workItem is one unit of deferred work on the trampoline's queue. The
// queue only ever holds these — never bare Matches — so every step of
// combinator logic, however deeply nested, is suspended and resumed
// through the same mechanism, which is what lets arbitrarily deep
// grammars avoid recursing on the host stack (§5).
type workItem struct {
	run func()
}

// Engine is the trampoline: a work queue, a memoization cache keyed by
// (parser, position), and a best-failure accumulator. One Engine
// drives exactly one Execute call and is discarded on return; it is
// not safe for concurrent reuse (§5).
type Engine struct {
	input Input
	queue []workItem

	cache map[cacheKey]*cacheEntry
	// resolved tracks which cache entries have already had their
	// sticky failure swept to waiters, so the final-sweep pass never
	// delivers a failure twice to the same entry.
	resolved map[cacheKey]bool

	bestFailure *Match

	opts    EngineOptions
	logger  *trampolineLogger
	metrics *engineMetrics
	runID   string

	dequeueCount int
}

// NewEngine builds an Engine over input, ready to drive exactly one
// Execute invocation. reg may be nil, in which case no Prometheus
// metrics are recorded regardless of opts.MetricsEnabled.
func NewEngine(input Input, opts EngineOptions, reg prometheus.Registerer) *Engine {
	runID := uuid.NewString()
	e := &Engine{
		input:    input,
		cache:    map[cacheKey]*cacheEntry{},
		resolved: map[cacheKey]bool{},
		opts:     opts,
		runID:    runID,
		logger:   newTrampolineLogger(runID, opts.TraceLevel),
	}
	if opts.MetricsEnabled {
		e.metrics = newEngineMetrics(reg)
	}
	return e
}

// RunID returns the UUID tagging this invocation's logs and metrics.
func (e *Engine) RunID() string { return e.runID }

func (e *Engine) enqueue(fn func()) {
	e.queue = append(e.queue, workItem{run: fn})
}

// runParser schedules an activation of p at index, arranging for k to
// be invoked with every terminal Match that activation eventually
// produces — immediately for the first one found, or via cache
// fan-out as more are discovered during the fixed-point iteration that
// resolves left recursion (§4.3).
func (e *Engine) runParser(p *Parser, index int, k continuation) {
	if !p.Cacheable() {
		e.enqueue(func() {
			e.countDequeue(p, index)
			items := p.Activate(e.input, index)
			e.dispatch(items, k)
		})
		return
	}

	key := cacheKey{parserID: p.ID(), index: index}
	entry, exists := e.cache[key]
	if !exists {
		entry = newCacheEntry()
		e.cache[key] = entry
		entry.addWaiter(k)
		if e.metrics != nil {
			e.metrics.cacheMisses.WithLabelValues(e.runID).Inc()
		}
		e.enqueue(func() {
			e.countDequeue(p, index)
			items := p.Activate(e.input, index)
			e.dispatch(items, func(m Match) { e.deliverToEntry(key, entry, m) })
		})
		return
	}

	if e.metrics != nil {
		e.metrics.cacheHits.WithLabelValues(e.runID).Inc()
	}
	existing := entry.addWaiter(k)
	if len(existing) > 0 {
		e.logger.cacheFanout(p, index, len(existing))
	}
	for _, s := range existing {
		s := s
		e.enqueue(func() { k(s) })
	}
}

// dispatch routes every item a matcher or handler produced: Schedules
// recurse into runParser (threading k through so the eventual terminal
// result still reaches the right place), terminal matches go straight
// to k. This is the single place Schedule items get interpreted,
// whether they came from a parser's own matcher or from a handler
// invoked deep inside a cache fan-out.
func (e *Engine) dispatch(items MatchResult, k continuation) {
	for _, m := range items {
		switch {
		case m.IsSchedule():
			h := m.Handler
			e.runParser(m.Parser, m.Index, func(child Match) {
				next := h(child)
				e.dispatch(next, k)
			})
		case m.IsSuccess():
			k(m)
		case m.IsFailure():
			e.updateBestFailure(m)
			k(m)
		default:
			panic(ImpossibleMatchError{})
		}
	}
}

func (e *Engine) deliverToEntry(key cacheKey, entry *cacheEntry, m Match) {
	switch {
	case m.IsSuccess():
		waiters, isNew := entry.addSuccess(m)
		if !isNew {
			return
		}
		if e.metrics != nil {
			e.metrics.waitersNotified.WithLabelValues(e.runID).Add(float64(len(waiters)))
		}
		for _, w := range waiters {
			w := w
			e.enqueue(func() { w(m) })
		}
	case m.IsFailure():
		e.updateBestFailure(m)
		entry.setFailure(m)
	default:
		panic(ImpossibleMatchError{})
	}
}

// updateBestFailure applies §4.3.2's selection rule: highest priority
// first, then latest span start.
func (e *Engine) updateBestFailure(m Match) {
	if e.bestFailure == nil {
		cp := m
		e.bestFailure = &cp
		e.logger.bestFailure(m)
		return
	}
	if betterFailure(m, *e.bestFailure) {
		cp := m
		e.bestFailure = &cp
		e.logger.bestFailure(m)
	}
}

func betterFailure(candidate, current Match) bool {
	if candidate.Priority != current.Priority {
		return candidate.Priority > current.Priority
	}
	return candidate.Span.Start > current.Span.Start
}

func (e *Engine) countDequeue(p *Parser, index int) {
	e.dequeueCount++
	if e.opts.MaxDequeues > 0 && e.dequeueCount > e.opts.MaxDequeues {
		panic(RunawayGrammarError{MaxDequeues: e.opts.MaxDequeues})
	}
	e.logger.dequeue(p, index, len(e.queue))
	if e.metrics != nil {
		e.metrics.dequeues.WithLabelValues(e.runID).Inc()
	}
}

// drainQueue pops and runs items until the queue is empty.
func (e *Engine) drainQueue() {
	if e.metrics != nil && len(e.queue) > 0 {
		e.metrics.queueDepthAtDrain.WithLabelValues(e.runID).Observe(float64(len(e.queue)))
	}
	for len(e.queue) > 0 {
		item := e.queue[0]
		e.queue = e.queue[1:]
		item.run()
	}
}

// sweepFailures delivers each not-yet-resolved entry's sticky failure
// (recorded only when it never gained a success) to every waiter
// currently registered on it, exactly once per entry (§4.3.1: "the
// work queue drains and the entry has no successes, every waiter
// receives the failure exactly once on a final sweep"). It returns
// whether any delivery happened, since a delivered failure may enqueue
// further work (e.g. an `alt` counting down to its own synthesized
// failure) that requires another drain pass.
func (e *Engine) sweepFailures() bool {
	delivered := false
	// Snapshot keys: deliverToEntry side effects (via waiters calling
	// back into runParser) can create new cache entries while we walk,
	// and Go map iteration order is unspecified besides.
	keys := make([]cacheKey, 0, len(e.cache))
	for k := range e.cache {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].parserID != keys[j].parserID {
			return keys[i].parserID < keys[j].parserID
		}
		return keys[i].index < keys[j].index
	})
	for _, key := range keys {
		entry := e.cache[key]
		if e.resolved[key] || entry.hasSuccesses() || entry.failure == nil {
			continue
		}
		e.resolved[key] = true
		f := *entry.failure
		for _, w := range entry.waiters {
			w := w
			e.enqueue(func() { w(f) })
		}
		delivered = true
	}
	return delivered
}

// Drain runs the trampoline to a fixed point: alternating full queue
// drains with failure-sweep passes until neither produces more work.
func (e *Engine) Drain() {
	for {
		e.drainQueue()
		if !e.sweepFailures() {
			return
		}
	}
}

// DumpEntry summarizes one visited (parser, position) cache entry, for
// the minimal textual grammar dump described in SPEC_FULL.md; it is
// not a renderable graph, only a flat diagnostic listing.
type DumpEntry struct {
	ParserID    int64
	Description string
	Index       int
	Successes   int
	HasFailure  bool
}

// Dump lists every cache entry touched during the last Drain, in
// (parser id, index) order.
func (e *Engine) Dump(root *Parser) []DumpEntry {
	byID := map[int64]*Parser{}
	collectParsers(root, byID, map[int64]bool{})

	out := make([]DumpEntry, 0, len(e.cache))
	keys := make([]cacheKey, 0, len(e.cache))
	for k := range e.cache {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].parserID != keys[j].parserID {
			return keys[i].parserID < keys[j].parserID
		}
		return keys[i].index < keys[j].index
	})
	for _, k := range keys {
		entry := e.cache[k]
		desc := ""
		if p, ok := byID[k.parserID]; ok {
			desc = p.Description()
		}
		out = append(out, DumpEntry{
			ParserID:    k.parserID,
			Description: desc,
			Index:       k.index,
			Successes:   len(entry.order),
			HasFailure:  entry.failure != nil,
		})
	}
	return out
}

func collectParsers(p *Parser, into map[int64]*Parser, seen map[int64]bool) {
	if p == nil || seen[p.ID()] {
		return
	}
	seen[p.ID()] = true
	into[p.ID()] = p
	for _, c := range p.Children() {
		collectParsers(c, into, seen)
	}
}
