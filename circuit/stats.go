package circuit

import (
	"fmt"
	"strings"
)

// Stats summarizes a compiled shape. MaxDegree is the dominant proving-cost
// signal: membership gates have degree k+1 for a k-character class, so a
// [a-z] class below the range-check threshold costs a degree-27 gate.
type Stats struct {
	Rows        int
	Columns     int
	Sections    int
	Gates       int
	MaxDegree   int
	GatesByKind map[GateKind]int
}

// ComputeStats derives statistics from a planned layout and gate set.
func ComputeStats(layout *CircuitLayout, gates []*Gate) Stats {
	s := Stats{
		Rows:        layout.Rows,
		Columns:     layout.NumColumns,
		Sections:    len(layout.Pairs),
		Gates:       len(gates),
		GatesByKind: make(map[GateKind]int),
	}
	for _, g := range gates {
		s.GatesByKind[g.Kind]++
		deg := 2 // range-membership lowers to degree-2 products plus decompositions
		if g.Expr != nil {
			deg = g.Expr.Degree()
		}
		if deg > s.MaxDegree {
			s.MaxDegree = deg
		}
	}
	return s
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows: %d\n", s.Rows)
	fmt.Fprintf(&b, "columns: %d (%d sections)\n", s.Columns, s.Sections)
	fmt.Fprintf(&b, "gates: %d\n", s.Gates)
	fmt.Fprintf(&b, "max gate degree: %d\n", s.MaxDegree)
	for kind := BooleanGate; kind <= AccBoundaryGate; kind++ {
		if n := s.GatesByKind[kind]; n > 0 {
			fmt.Fprintf(&b, "  %-18s %d\n", kind.String()+":", n)
		}
	}
	return b.String()
}
