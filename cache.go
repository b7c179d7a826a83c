package packrattle

import "reflect"

// cacheKey identifies a (parser, position) subproblem.
type cacheKey struct {
	parserID int64
	index    int
}

// resultKey dedups successes delivered for one cache entry by
// (span.End, value), per §3's Cache Entry invariant. Values that
// isComparable accepts are keyed by Go's native `==`; any other value
// (slices, maps, structs, ...) is first compared structurally with
// reflect.DeepEqual against the successes already recorded at the same
// end, and only a structurally new one gets a unique placeholder key.
type resultKey struct {
	end   int
	value any
}

// cacheEntry is the central structure supporting left recursion: it
// collects every Success observed so far for one (parser, index),
// fans each new one out to every waiter exactly once, and holds back
// Failures until the work queue has fully drained (§4.3.1).
type cacheEntry struct {
	results map[resultKey]struct{}
	order   []Match // successes in discovery order, for deterministic fan-out
	waiters []continuation
	failure *Match
}

func newCacheEntry() *cacheEntry {
	return &cacheEntry{results: map[resultKey]struct{}{}}
}

// addSuccess records s if its (end, value) pair is new. It returns the
// set of waiters that must be notified (a snapshot, since new waiters
// may register while these are being processed) and whether s was
// actually new.
func (c *cacheEntry) addSuccess(m Match) (waiters []continuation, isNew bool) {
	if !isComparable(m.Value) {
		for _, prev := range c.order {
			if prev.Span.End == m.Span.End && reflect.DeepEqual(prev.Value, m.Value) {
				return nil, false
			}
		}
	}
	key := resultKey{end: m.Span.End, value: safeEqualityKey(m.Value)}
	if _, ok := c.results[key]; ok {
		return nil, false
	}
	c.results[key] = struct{}{}
	c.order = append(c.order, m)
	waiters = make([]continuation, len(c.waiters))
	copy(waiters, c.waiters)
	return waiters, true
}

// addWaiter registers k and returns the successes already on file, so
// the caller can deliver them immediately (§4.3: "a waiter registered
// after success(es) already exist is immediately notified with each
// existing success").
func (c *cacheEntry) addWaiter(k continuation) []Match {
	c.waiters = append(c.waiters, k)
	existing := make([]Match, len(c.order))
	copy(existing, c.order)
	return existing
}

// setFailure records f as the sticky failure, but only if no successes
// have been seen — per §4.3.1, a Failure never displaces successes.
func (c *cacheEntry) setFailure(m Match) {
	if len(c.order) > 0 {
		return
	}
	c.failure = &m
}

// hasSuccesses reports whether any Success has been recorded.
func (c *cacheEntry) hasSuccesses() bool { return len(c.order) > 0 }

// safeEqualityKey normalizes v into something usable as a Go map key.
// Comparable values pass through; non-comparable ones are replaced by
// a unique placeholder rather than panicking on `==`. The placeholder
// is a non-zero-size allocation, since pointers to distinct zero-size
// values may compare equal.
func safeEqualityKey(v any) any {
	if isComparable(v) {
		return v
	}
	return new(byte)
}

func isComparable(v any) bool {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64,
		complex64, complex128:
		return true
	default:
		return false
	}
}
