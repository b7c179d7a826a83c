// Package leaves provides the primitive matchers every grammar bottoms
// out on: literal strings, regular expressions, and end-of-input.
// Unlike the combinators in the root package, a leaf's Matcher never
// returns a Schedule — it only ever inspects the input directly and
// reports a terminal Success or Failure (SPEC_FULL.md §4.1).
package leaves

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	packrattle "github.com/alexzandros/packrattle"
)

// regexCache shares compiled *regexp.Regexp values across MatchRegex
// parsers built from the same pattern source. This is purely a
// compilation-cost optimization — it has nothing to do with the
// engine's (parser, position) memoization table, and a cache miss here
// never changes parse results, only how often regexp.Compile runs.
var regexCache, _ = lru.New[string, *regexp.Regexp](256)

func compileCached(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Add(pattern, re)
	return re, nil
}

// MatchString builds a leaf parser matching the literal text exactly,
// case-sensitively. Its value on success is the matched string itself.
func MatchString(text string) *packrattle.Parser {
	return packrattle.NewLeaf(
		"'"+text+"'",
		true,
		func(input packrattle.Input, index int) packrattle.MatchResult {
			end := index + len([]rune(text))
			if end > input.Len() {
				return packrattle.LeafFail(index, "Expected '"+text+"'")
			}
			if input.Slice(index, end) != text {
				return packrattle.LeafFail(index, "Expected '"+text+"'")
			}
			return packrattle.LeafSuccess(index, end, text)
		},
	)
}

// MatchRegex builds a leaf parser matching pattern anchored at the
// current position (the pattern is wrapped with `\A` so a match never
// starts later than index). Its value on success is the full matched
// substring. MatchRegex panics if pattern fails to compile, since an
// invalid regex is a grammar defect caught at construction time, not a
// recoverable parse failure.
func MatchRegex(pattern string) *packrattle.Parser {
	re, err := compileCached(`\A(?:` + pattern + `)`)
	if err != nil {
		panic(err)
	}
	describe := "/" + pattern + "/"
	return packrattle.NewLeaf(
		describe,
		true,
		func(input packrattle.Input, index int) packrattle.MatchResult {
			remainder := input.Slice(index, input.Len())
			loc := re.FindStringIndex(remainder)
			if loc == nil {
				return packrattle.LeafFail(index, "Expected "+describe)
			}
			matched := remainder[loc[0]:loc[1]]
			end := index + len([]rune(matched))
			return packrattle.LeafSuccess(index, end, matched)
		},
	)
}

// EOF succeeds with a nil value only at the end of input.
func EOF() *packrattle.Parser {
	return packrattle.NewLeaf(
		"end of input",
		true,
		func(input packrattle.Input, index int) packrattle.MatchResult {
			if index != input.Len() {
				return packrattle.LeafFail(index, "Expected end of input")
			}
			return packrattle.LeafSuccess(index, index, nil)
		},
	)
}
