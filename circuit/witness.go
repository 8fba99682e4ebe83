package circuit

import (
	"github.com/zkmatch-xyz/go-zkmatch/pattern"
)

// PaddingValue is assigned to value cells on rows where the owning section
// is inactive.
const PaddingValue = 0

// Row is one row of a witness: the active section index and the consumed
// code point. Section is -1 on padding rows.
type Row struct {
	Section int
	Value   rune
}

// RowAssignment is the concrete witness for one input against one compiled
// shape: per row, the active section, its one-hot selector vector, and the
// consumed value. Built fresh per input and discarded after use.
type RowAssignment struct {
	Rows        []Row
	NumSections int
}

// OneHot returns the selector vector for row r: exactly one 1 on live rows,
// all zeros on padding rows.
func (ra *RowAssignment) OneHot(r int) []int {
	v := make([]int, ra.NumSections)
	if sec := ra.Rows[r].Section; sec >= 0 {
		v[sec] = 1
	}
	return v
}

// Acc returns the accumulator value for row r. Padding rows hold the last
// live section index so the transition gates stay satisfied.
func (ra *RowAssignment) Acc(r int) int {
	for ; r >= 0; r-- {
		if sec := ra.Rows[r].Section; sec >= 0 {
			return sec
		}
	}
	return 0
}

// Done reports whether matching had terminated by row r.
func (ra *RowAssignment) Done(r int) bool {
	return ra.Rows[r].Section < 0
}

// assignRows runs the single forward, non-backtracking, greedy pass: each
// section in order consumes accepted characters up to its Max, stopping
// early only on a rejected character. A rejected character below a
// section's Min fails with NoMatchError; running out of input below Min,
// or finishing without exactly filling the row budget, fails with
// LengthMismatchError. Ambiguity between variable-length sections is
// resolved maximally; there is no backtracking.
func assignRows(sections []pattern.Section, rows int, input string) (*RowAssignment, error) {
	runes := []rune(input)
	assignment := &RowAssignment{
		Rows:        make([]Row, 0, rows),
		NumSections: len(sections),
	}

	pos := 0
	for i, sec := range sections {
		consumed := 0
		for consumed < sec.Max && pos < len(runes) && sec.Accepts(runes[pos]) {
			assignment.Rows = append(assignment.Rows, Row{Section: i, Value: runes[pos]})
			pos++
			consumed++
		}
		if consumed < sec.Min {
			if pos < len(runes) {
				return nil, &NoMatchError{Section: i, Pos: pos}
			}
			// Input exhausted below the section minimum: the input is too
			// short, not mismatched.
			return nil, &LengthMismatchError{
				Rows:     rows,
				Consumed: len(assignment.Rows),
				InputLen: len(runes),
			}
		}
	}

	if pos != len(runes) || len(assignment.Rows) != rows {
		return nil, &LengthMismatchError{
			Rows:     rows,
			Consumed: len(assignment.Rows),
			InputLen: len(runes),
		}
	}
	return assignment, nil
}
