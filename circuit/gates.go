package circuit

import (
	"fmt"

	"github.com/zkmatch-xyz/go-zkmatch/pattern"
)

// GateKind identifies the role of a gate in the constraint system.
type GateKind int

const (
	// BooleanGate: s * (1 - s) = 0 over a section's row range.
	BooleanGate GateKind = iota
	// MembershipGate: s * prod(c_j - v) = 0; zero iff the selector is off
	// or the value matches an accepted code point. Degree k+1.
	MembershipGate
	// RangeMembershipGate: selector-gated two-sided range check lo <= v <= hi,
	// lowered by the backend to binary decompositions. Used for contiguous
	// classes above the configured size threshold.
	RangeMembershipGate
	// SelectorDomainGate: s = 0 outside the section's row range. The moral
	// equivalent of a fixed selector column; without it a section could be
	// activated beyond its capacity.
	SelectorDomainGate
	// SelectorSumGate: sum_i s_i + done = 1 per row.
	SelectorSumGate
	// DoneInitGate: done(0) = 0.
	DoneInitGate
	// DoneBooleanGate: done * (1 - done) = 0 per row.
	DoneBooleanGate
	// DoneMonotoneGate: done(r) * (1 - done(r+1)) = 0; once set, stays set.
	DoneMonotoneGate
	// AccLinkGate: (1 - done) * (acc - sum_i i*s_i) = 0 per live row.
	AccLinkGate
	// AccTransitionGate: (1 - done(r+1)) * (acc(r+1) - acc(r)) * (acc(r+1) - acc(r) - 1) = 0.
	AccTransitionGate
	// AccBoundaryGate: prod_{j in legal starts} (acc(0) - j) = 0.
	AccBoundaryGate
)

func (k GateKind) String() string {
	switch k {
	case BooleanGate:
		return "boolean"
	case MembershipGate:
		return "membership"
	case RangeMembershipGate:
		return "range-membership"
	case SelectorDomainGate:
		return "selector-domain"
	case SelectorSumGate:
		return "selector-sum"
	case DoneInitGate:
		return "done-init"
	case DoneBooleanGate:
		return "done-boolean"
	case DoneMonotoneGate:
		return "done-monotone"
	case AccLinkGate:
		return "acc-link"
	case AccTransitionGate:
		return "acc-transition"
	case AccBoundaryGate:
		return "acc-boundary"
	default:
		return "?"
	}
}

// Gate is one polynomial identity applied uniformly over the row span
// [From, To). Expr is nil only for RangeMembershipGate, which the backend
// lowers to decomposition constraints on the named columns.
type Gate struct {
	Kind GateKind
	Expr *Expr
	From int
	To   int

	// RangeMembershipGate operands.
	Selector ColumnID
	Value    ColumnID
	Lo, Hi   rune

	Tag string
}

func (g *Gate) String() string {
	if g.Kind == RangeMembershipGate {
		return fmt.Sprintf("%s[%d,%d): %q <= c%d <= %q (gated by c%d)",
			g.Kind, g.From, g.To, g.Lo, g.Value, g.Hi, g.Selector)
	}
	return fmt.Sprintf("%s[%d,%d): %s = 0", g.Kind, g.From, g.To, g.Expr)
}

// GateRegistry receives assembled gates. The concrete backend decides how to
// realize them.
type GateRegistry interface {
	AddGate(g *Gate)
}

// GateSet is the default in-memory registry.
type GateSet struct {
	gates []*Gate
}

// NewGateSet creates an empty gate set.
func NewGateSet() *GateSet {
	return &GateSet{}
}

// AddGate appends a gate. Gates with an empty row span are dropped.
func (s *GateSet) AddGate(g *Gate) {
	if g.From >= g.To {
		return
	}
	s.gates = append(s.gates, g)
}

// Gates returns the assembled gates in registration order.
func (s *GateSet) Gates() []*Gate {
	return s.gates
}

// ConstraintAssembler emits the per-column boolean and membership gates for
// every section.
type ConstraintAssembler struct {
	sections  []pattern.Section
	layout    *CircuitLayout
	threshold int
}

// NewConstraintAssembler creates an assembler for the given compiled shape.
// threshold is the accepted-set size above which contiguous classes switch
// to the range-check encoding.
func NewConstraintAssembler(sections []pattern.Section, layout *CircuitLayout, threshold int) *ConstraintAssembler {
	return &ConstraintAssembler{sections: sections, layout: layout, threshold: threshold}
}

// Assemble registers the gates for all sections. Fails on a section with an
// empty accepted set, which no input could ever satisfy.
func (a *ConstraintAssembler) Assemble(reg GateRegistry) error {
	for i, sec := range a.sections {
		if sec.Size() == 0 {
			return &EmptyAcceptedSetError{Section: i}
		}
		pair := a.layout.Pairs[i]
		rng := a.layout.Ranges[i]
		s := CellExpr(pair.Selector)

		reg.AddGate(&Gate{
			Kind: BooleanGate,
			Expr: MulExpr(s, SubExpr(ConstExpr(1), s)),
			From: rng.Start,
			To:   rng.End,
			Tag:  fmt.Sprintf("section %d selector boolean", i),
		})

		if sec.Kind == pattern.Range && sec.Size() > a.threshold {
			reg.AddGate(&Gate{
				Kind:     RangeMembershipGate,
				From:     rng.Start,
				To:       rng.End,
				Selector: pair.Selector,
				Value:    pair.Value,
				Lo:       sec.Lo,
				Hi:       sec.Hi,
				Tag:      fmt.Sprintf("section %d range membership %s", i, sec),
			})
		} else {
			reg.AddGate(&Gate{
				Kind: MembershipGate,
				Expr: membershipExpr(pair, sec),
				From: rng.Start,
				To:   rng.End,
				Tag:  fmt.Sprintf("section %d membership %s", i, sec),
			})
		}

		// Pin the selector to zero outside the section's capacity.
		reg.AddGate(&Gate{
			Kind: SelectorDomainGate,
			Expr: CellExpr(pair.Selector),
			From: 0,
			To:   rng.Start,
			Tag:  fmt.Sprintf("section %d selector off before range", i),
		})
		reg.AddGate(&Gate{
			Kind: SelectorDomainGate,
			Expr: CellExpr(pair.Selector),
			From: rng.End,
			To:   a.layout.Rows,
			Tag:  fmt.Sprintf("section %d selector off after range", i),
		})
	}
	return nil
}

// membershipExpr builds s * prod(c_j - v) over the accepted set.
func membershipExpr(pair ColumnPair, sec pattern.Section) *Expr {
	v := CellExpr(pair.Value)
	expr := CellExpr(pair.Selector)
	for _, c := range sec.Accepted() {
		expr = MulExpr(expr, SubExpr(ConstExpr(int64(c)), v))
	}
	return expr
}
