package circuit

import (
	"errors"
	"testing"

	"github.com/zkmatch-xyz/go-zkmatch/pattern"
)

func gatesOfKind(gates []*Gate, kind GateKind) []*Gate {
	var out []*Gate
	for _, g := range gates {
		if g.Kind == kind {
			out = append(out, g)
		}
	}
	return out
}

func TestConstraintAssembler_MembershipDegree(t *testing.T) {
	// [abc] has k=3 accepted code points; the membership gate must have
	// degree k+1 (selector times k linear factors).
	secs := mustParse(t, "[abc]{2}", pattern.NewConfig(2))
	layout, err := PlanLayout(secs, 2)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}

	gates := NewGateSet()
	if err := NewConstraintAssembler(secs, layout, pattern.DefaultRangeCheckThreshold).Assemble(gates); err != nil {
		t.Fatalf("assemble error: %v", err)
	}

	membership := gatesOfKind(gates.Gates(), MembershipGate)
	if len(membership) != 1 {
		t.Fatalf("expected 1 membership gate, got %d", len(membership))
	}
	if deg := membership[0].Expr.Degree(); deg != 4 {
		t.Errorf("membership degree = %d, want 4", deg)
	}
	if membership[0].From != 0 || membership[0].To != 2 {
		t.Errorf("membership span = [%d,%d), want [0,2)", membership[0].From, membership[0].To)
	}

	boolean := gatesOfKind(gates.Gates(), BooleanGate)
	if len(boolean) != 1 || boolean[0].Expr.Degree() != 2 {
		t.Errorf("expected one degree-2 boolean gate, got %v", boolean)
	}
}

func TestConstraintAssembler_RangeEncodingAboveThreshold(t *testing.T) {
	secs := mustParse(t, "[a-z]{3}", pattern.NewConfig(3))
	layout, err := PlanLayout(secs, 3)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}

	// 26 > 8: the contiguous class must use the range-check encoding
	// rather than a degree-27 product.
	gates := NewGateSet()
	if err := NewConstraintAssembler(secs, layout, pattern.DefaultRangeCheckThreshold).Assemble(gates); err != nil {
		t.Fatalf("assemble error: %v", err)
	}
	if n := len(gatesOfKind(gates.Gates(), RangeMembershipGate)); n != 1 {
		t.Errorf("expected 1 range-membership gate, got %d", n)
	}
	if n := len(gatesOfKind(gates.Gates(), MembershipGate)); n != 0 {
		t.Errorf("expected no product membership gate, got %d", n)
	}

	// A threshold above the class size keeps the product encoding.
	gates = NewGateSet()
	if err := NewConstraintAssembler(secs, layout, 26).Assemble(gates); err != nil {
		t.Fatalf("assemble error: %v", err)
	}
	membership := gatesOfKind(gates.Gates(), MembershipGate)
	if len(membership) != 1 {
		t.Fatalf("expected 1 membership gate, got %d", len(membership))
	}
	if deg := membership[0].Expr.Degree(); deg != 27 {
		t.Errorf("membership degree = %d, want 27", deg)
	}
}

func TestConstraintAssembler_SelectorDomain(t *testing.T) {
	cfg := pattern.NewConfig(4)
	secs := mustParse(t, "a[0-9]{2}b", cfg)
	layout, err := PlanLayout(secs, 4)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}

	gates := NewGateSet()
	if err := NewConstraintAssembler(secs, layout, cfg.Threshold()).Assemble(gates); err != nil {
		t.Fatalf("assemble error: %v", err)
	}

	// First section [0,1): one trailing domain gate [1,4). Middle section
	// [1,3): both sides. Last section [3,4): one leading gate [0,3).
	domain := gatesOfKind(gates.Gates(), SelectorDomainGate)
	if len(domain) != 4 {
		t.Fatalf("expected 4 selector-domain gates, got %d", len(domain))
	}
	covered := make([]int, 4)
	for _, g := range domain {
		for r := g.From; r < g.To; r++ {
			covered[r]++
		}
	}
	// Every row is outside exactly two of the three section ranges.
	for r, n := range covered {
		if n != 2 {
			t.Errorf("row %d pinned by %d domain gates, want 2", r, n)
		}
	}
}

func TestConstraintAssembler_EmptyAcceptedSet(t *testing.T) {
	secs := []pattern.Section{{Kind: pattern.Set, Chars: nil, Min: 1, Max: 2}}
	layout, err := PlanLayout(secs, 2)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}

	gates := NewGateSet()
	err = NewConstraintAssembler(secs, layout, pattern.DefaultRangeCheckThreshold).Assemble(gates)
	var ease *EmptyAcceptedSetError
	if !errors.As(err, &ease) {
		t.Fatalf("expected EmptyAcceptedSetError, got %v", err)
	}
	if ease.Section != 0 {
		t.Errorf("section = %d, want 0", ease.Section)
	}
}

func TestSequencingAssembler_Gates(t *testing.T) {
	cfg := pattern.NewConfig(4)
	secs := mustParse(t, "a[0-9]{2}b", cfg)
	layout, err := PlanLayout(secs, 4)
	if err != nil {
		t.Fatalf("plan error: %v", err)
	}

	gates := NewGateSet()
	NewSequencingAssembler(secs, layout).Assemble(gates)

	for _, kind := range []GateKind{
		SelectorSumGate, DoneInitGate, DoneBooleanGate, DoneMonotoneGate,
		AccLinkGate, AccTransitionGate, AccBoundaryGate,
	} {
		if n := len(gatesOfKind(gates.Gates(), kind)); n != 1 {
			t.Errorf("expected 1 %v gate, got %d", kind, n)
		}
	}

	sum := gatesOfKind(gates.Gates(), SelectorSumGate)[0]
	if sum.From != 0 || sum.To != 4 {
		t.Errorf("selector-sum span = [%d,%d), want [0,4)", sum.From, sum.To)
	}
	trans := gatesOfKind(gates.Gates(), AccTransitionGate)[0]
	if trans.To != 3 {
		t.Errorf("transition gate must stop one row early, got To=%d", trans.To)
	}
	if off := trans.Expr.MaxOffset(); off != 1 {
		t.Errorf("transition gate max offset = %d, want 1", off)
	}
}

func TestSequencingAssembler_LegalStarts(t *testing.T) {
	tests := []struct {
		pattern string
		want    int // number of factors in the boundary product
	}{
		{"a{3}", 1},          // must start at section 0
		{"a?b{2}", 2},        // section 0 skippable: 0 or 1
		{"a?b?c{1}", 3},      // two skippable prefixes
		{"a{0,2}b{0,2}", 2},  // all skippable: stop list at first required... none, all listed
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			secs := mustParse(t, tt.pattern, pattern.NewConfig(0))
			sa := NewSequencingAssembler(secs, &CircuitLayout{})
			if got := len(sa.legalStarts()); got != tt.want {
				t.Errorf("legal starts = %d, want %d", got, tt.want)
			}
		})
	}
}
