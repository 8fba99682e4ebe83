// Package pattern parses a restricted regular-expression grammar into an
// ordered list of matching sections suitable for circuit layout.
//
// The grammar is deliberately small: literal characters, bracket character
// classes ([a-z], [abc], [a-zA-Z0-9]), and postfix quantifiers (?, +, *,
// {m}, {m,n}, {m,}) applied to a single preceding atom. Every quantifier
// must resolve to a finite upper bound, either from the pattern itself or
// from the configuration, because the circuit's row budget is fixed before
// any proof is generated.
package pattern

import (
	"fmt"
	"sort"
	"strings"
)

// SectionKind identifies how a section's accepted set is represented.
type SectionKind int

const (
	// Literal accepts exactly one code point.
	Literal SectionKind = iota
	// Range accepts a contiguous code-point interval [Lo, Hi].
	Range
	// Set accepts an explicit list of code points.
	Set
)

func (k SectionKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Range:
		return "range"
	case Set:
		return "set"
	default:
		return "?"
	}
}

// Section is one matching unit of the compiled pattern: an accepted set of
// code points plus finite repeat bounds. Sections are immutable once
// produced by Parse.
type Section struct {
	Kind SectionKind

	// Ch is the accepted code point for Literal sections.
	Ch rune

	// Lo, Hi bound the accepted interval for Range sections (inclusive).
	Lo, Hi rune

	// Chars holds the accepted code points for Set sections, sorted and
	// deduplicated.
	Chars []rune

	// Min and Max are the repeat bounds, both finite, Min <= Max.
	Min, Max int
}

// Accepts reports whether the section's accepted set contains r.
func (s Section) Accepts(r rune) bool {
	switch s.Kind {
	case Literal:
		return r == s.Ch
	case Range:
		return r >= s.Lo && r <= s.Hi
	case Set:
		i := sort.Search(len(s.Chars), func(i int) bool { return s.Chars[i] >= r })
		return i < len(s.Chars) && s.Chars[i] == r
	default:
		return false
	}
}

// Accepted returns the full accepted code-point set in ascending order.
func (s Section) Accepted() []rune {
	switch s.Kind {
	case Literal:
		return []rune{s.Ch}
	case Range:
		out := make([]rune, 0, s.Hi-s.Lo+1)
		for r := s.Lo; r <= s.Hi; r++ {
			out = append(out, r)
		}
		return out
	case Set:
		out := make([]rune, len(s.Chars))
		copy(out, s.Chars)
		return out
	default:
		return nil
	}
}

// Size returns the number of accepted code points. The membership gate for
// a section has polynomial degree Size+1, so large sections are the main
// proving-cost driver.
func (s Section) Size() int {
	switch s.Kind {
	case Literal:
		return 1
	case Range:
		return int(s.Hi-s.Lo) + 1
	case Set:
		return len(s.Chars)
	default:
		return 0
	}
}

func (s Section) String() string {
	var b strings.Builder
	switch s.Kind {
	case Literal:
		fmt.Fprintf(&b, "%q", s.Ch)
	case Range:
		fmt.Fprintf(&b, "[%c-%c]", s.Lo, s.Hi)
	case Set:
		b.WriteByte('[')
		for _, r := range s.Chars {
			b.WriteRune(r)
		}
		b.WriteByte(']')
	}
	if s.Min == s.Max {
		fmt.Fprintf(&b, "{%d}", s.Min)
	} else {
		fmt.Fprintf(&b, "{%d,%d}", s.Min, s.Max)
	}
	return b.String()
}
