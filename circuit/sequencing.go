package circuit

import (
	"github.com/zkmatch-xyz/go-zkmatch/pattern"
)

// SequencingAssembler emits the cross-row gates that tie the per-section
// selectors into a single forward-only matching automaton: exactly one
// selector active per live row, a monotone done flag legalizing a trailing
// padding suffix, and an accumulator that may only hold or advance by one
// section per row.
type SequencingAssembler struct {
	sections []pattern.Section
	layout   *CircuitLayout
}

// NewSequencingAssembler creates an assembler for the given compiled shape.
func NewSequencingAssembler(sections []pattern.Section, layout *CircuitLayout) *SequencingAssembler {
	return &SequencingAssembler{sections: sections, layout: layout}
}

// Assemble registers the sequencing gates.
func (a *SequencingAssembler) Assemble(reg GateRegistry) {
	rows := a.layout.Rows
	done := CellExpr(a.layout.Done)
	doneNext := CellAt(a.layout.Done, 1)
	acc := CellExpr(a.layout.Acc)
	accNext := CellAt(a.layout.Acc, 1)

	reg.AddGate(&Gate{
		Kind: DoneBooleanGate,
		Expr: MulExpr(done, SubExpr(ConstExpr(1), done)),
		From: 0,
		To:   rows,
		Tag:  "done flag boolean",
	})
	reg.AddGate(&Gate{
		Kind: DoneInitGate,
		Expr: done,
		From: 0,
		To:   1,
		Tag:  "matching starts live",
	})
	reg.AddGate(&Gate{
		Kind: DoneMonotoneGate,
		Expr: MulExpr(done, SubExpr(ConstExpr(1), doneNext)),
		From: 0,
		To:   rows - 1,
		Tag:  "done flag monotone",
	})

	// sum_i s_i + done = 1: exactly one selector per live row, none after
	// matching terminates.
	sum := done
	for _, pair := range a.layout.Pairs {
		sum = AddExpr(sum, CellExpr(pair.Selector))
	}
	reg.AddGate(&Gate{
		Kind: SelectorSumGate,
		Expr: SubExpr(sum, ConstExpr(1)),
		From: 0,
		To:   rows,
		Tag:  "one active selector per live row",
	})

	// acc = sum_i i*s_i on live rows.
	weighted := ConstExpr(0)
	for i, pair := range a.layout.Pairs {
		if i == 0 {
			continue // zero weight
		}
		weighted = AddExpr(weighted, MulExpr(ConstExpr(int64(i)), CellExpr(pair.Selector)))
	}
	reg.AddGate(&Gate{
		Kind: AccLinkGate,
		Expr: MulExpr(SubExpr(ConstExpr(1), done), SubExpr(acc, weighted)),
		From: 0,
		To:   rows,
		Tag:  "accumulator tracks active section",
	})

	// acc(r+1) in {acc(r), acc(r)+1} while the next row is live: forward
	// only, one section at a time.
	step := SubExpr(accNext, acc)
	reg.AddGate(&Gate{
		Kind: AccTransitionGate,
		Expr: MulExpr(SubExpr(ConstExpr(1), doneNext), MulExpr(step, SubExpr(step, ConstExpr(1)))),
		From: 0,
		To:   rows - 1,
		Tag:  "forward-only single-step transition",
	})

	// acc(0) must be a legal start: the first section with min > 0, or any
	// earlier section that is itself skippable.
	boundary := ConstExpr(1)
	for _, j := range a.legalStarts() {
		boundary = MulExpr(boundary, SubExpr(acc, ConstExpr(int64(j))))
	}
	reg.AddGate(&Gate{
		Kind: AccBoundaryGate,
		Expr: boundary,
		From: 0,
		To:   1,
		Tag:  "legal start section",
	})
}

// legalStarts returns every section index reachable at row zero: all indices
// whose predecessors are all skippable, up to and including the first
// section with a positive minimum.
func (a *SequencingAssembler) legalStarts() []int {
	var starts []int
	for j, sec := range a.sections {
		starts = append(starts, j)
		if sec.Min > 0 {
			break
		}
	}
	return starts
}
