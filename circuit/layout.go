// Package circuit lays a compiled pattern out on a fixed row/column grid and
// emits the polynomial gates that enforce per-character membership and legal
// section sequencing. The compiled shape is immutable and may be shared
// across any number of concurrent witness computations.
package circuit

import (
	"github.com/zkmatch-xyz/go-zkmatch/pattern"
)

// ColumnID indexes a column of the grid.
type ColumnID int

// ColumnKind distinguishes the roles a column can play.
type ColumnKind int

const (
	// ValueColumn holds one field element per row (a code point or 0).
	ValueColumn ColumnKind = iota
	// SelectorColumn holds a boolean flag gating its section's membership.
	SelectorColumn
	// AccumulatorColumn tracks the active section index across rows.
	AccumulatorColumn
	// FlagColumn holds the monotone done flag.
	FlagColumn
)

// ColumnPair binds one value column and one selector column exclusively to
// one section.
type ColumnPair struct {
	Section  int
	Value    ColumnID
	Selector ColumnID
}

// RowRange is a section's row capacity [Start, End).
type RowRange struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r RowRange) Len() int { return r.End - r.Start }

// CircuitLayout maps sections onto the grid: one column pair per section in
// section order, row ranges partitioning [0, Rows) exactly, plus the shared
// accumulator and done columns. Immutable once planned.
type CircuitLayout struct {
	Rows       int
	Pairs      []ColumnPair
	Ranges     []RowRange
	Acc        ColumnID
	Done       ColumnID
	NumColumns int
}

// PlanLayout assigns each section a column pair and a row range of capacity
// Max. The capacities must sum to exactly rows; a mismatch means the caller
// must adjust the row budget or the quantifier bounds.
func PlanLayout(sections []pattern.Section, rows int) (*CircuitLayout, error) {
	capacity := 0
	for _, s := range sections {
		capacity += s.Max
	}
	if capacity != rows {
		return nil, &LayoutOverflowError{Capacity: capacity, Rows: rows}
	}

	l := &CircuitLayout{
		Rows:   rows,
		Pairs:  make([]ColumnPair, len(sections)),
		Ranges: make([]RowRange, len(sections)),
	}

	next := ColumnID(0)
	start := 0
	for i, s := range sections {
		l.Pairs[i] = ColumnPair{Section: i, Value: next, Selector: next + 1}
		next += 2
		l.Ranges[i] = RowRange{Start: start, End: start + s.Max}
		start += s.Max
	}
	l.Acc = next
	l.Done = next + 1
	l.NumColumns = int(next) + 2
	return l, nil
}
