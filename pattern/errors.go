package pattern

import "fmt"

// ParseError reports malformed pattern syntax: an unescaped special
// character, an empty bracket expression, an inverted range, or a bad
// quantifier. Pos is the byte offset of the offending fragment.
type ParseError struct {
	Pos      int
	Fragment string
	Msg      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pattern: parse error at %d near %q: %s", e.Pos, e.Fragment, e.Msg)
}

// UnboundedRepetitionError reports a quantifier with no finite upper bound
// available from either the pattern or the configuration. Circuits require
// a fixed row budget, so such patterns cannot compile.
type UnboundedRepetitionError struct {
	Pos        int
	Quantifier string
}

func (e *UnboundedRepetitionError) Error() string {
	return fmt.Sprintf("pattern: quantifier %q at %d has no finite upper bound; set QuantifierBounds[%q]",
		e.Quantifier, e.Pos, e.Quantifier)
}
