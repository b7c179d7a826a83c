package packrattle

import "fmt"

// Span is a half-open position range [Start, End) over the input
// sequence. Both ends are valid positions, 0..=len(input).
type Span struct {
	Start int
	End   int
}

// NewSpan builds a Span, it does not validate Start <= End since
// callers within this package always construct spans from cursor
// arithmetic that already guarantees it.
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Width reports how many atoms this span covers.
func (s Span) Width() int { return s.End - s.Start }

// Empty reports whether this span covers zero atoms.
func (s Span) Empty() bool { return s.Start == s.End }

func (s Span) String() string {
	if s.Start == s.End {
		return fmt.Sprintf("%d", s.Start)
	}
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// mergeSpan returns the covering span of s1 and s2. The normal use
// is monotonic (s1.End <= s2.Start); we take the plain covering span
// rather than the source's asymmetric special case, per the resolved
// Open Question in SPEC_FULL.md.
func mergeSpan(s1, s2 Span) Span {
	start := s1.Start
	if s2.Start < start {
		start = s2.Start
	}
	end := s1.End
	if s2.End > end {
		end = s2.End
	}
	return Span{Start: start, End: end}
}
