package circuit

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/consensys/gnark/frontend"
)

// GridCircuit realizes a compiled shape as a gnark circuit. The grid is one
// secret slice of cells per column; Define replays every gate at every row
// of its span. The pattern itself is baked into the constraint structure,
// so the proof states "my private input matches the pattern" without
// revealing the input.
type GridCircuit struct {
	// PatternDigest is the sole public input: a commitment to the
	// (pattern, config) pair the shape was compiled from.
	PatternDigest frontend.Variable `gnark:",public"`

	Cells [][]frontend.Variable

	gates  []*Gate
	digest *big.Int
}

// NewGridCircuit builds the compile-time template: cells allocated to the
// layout's shape, values unset.
func NewGridCircuit(c *Compiled) *GridCircuit {
	g := &GridCircuit{
		Cells:  make([][]frontend.Variable, c.Layout.NumColumns),
		gates:  c.Gates,
		digest: c.Digest,
	}
	for i := range g.Cells {
		g.Cells[i] = make([]frontend.Variable, c.Layout.Rows)
	}
	return g
}

// NewGridAssignment builds the witness-side assignment for one row
// assignment: selector and value cells per the active section, accumulator
// holding the active section index, done flag raised on padding rows.
func NewGridAssignment(c *Compiled, ra *RowAssignment) *GridCircuit {
	g := &GridCircuit{
		Cells: make([][]frontend.Variable, c.Layout.NumColumns),
	}
	for i := range g.Cells {
		g.Cells[i] = make([]frontend.Variable, c.Layout.Rows)
		for r := range g.Cells[i] {
			g.Cells[i][r] = 0
		}
	}
	for r := 0; r < c.Layout.Rows; r++ {
		row := ra.Rows[r]
		if row.Section >= 0 {
			pair := c.Layout.Pairs[row.Section]
			g.Cells[pair.Value][r] = int(row.Value)
			g.Cells[pair.Selector][r] = 1
		} else {
			g.Cells[c.Layout.Done][r] = 1
		}
		g.Cells[c.Layout.Acc][r] = ra.Acc(r)
	}
	g.PatternDigest = c.Digest
	return g
}

// Define evaluates every gate at every row of its span and asserts the
// polynomial is zero. Range-membership gates lower to selector-gated binary
// decompositions of v-lo and hi-v.
func (g *GridCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(g.PatternDigest, g.digest)
	for _, gate := range g.gates {
		if gate.Kind == RangeMembershipGate {
			g.defineRangeMembership(api, gate)
			continue
		}
		for r := gate.From; r < gate.To; r++ {
			api.AssertIsEqual(g.eval(api, gate.Expr, r), 0)
		}
	}
	return nil
}

func (g *GridCircuit) eval(api frontend.API, e *Expr, row int) frontend.Variable {
	switch e.Kind {
	case ExprCell:
		return g.Cells[e.Col][row+e.Offset]
	case ExprConst:
		return e.Value
	case ExprAdd:
		return api.Add(g.eval(api, e.Left, row), g.eval(api, e.Right, row))
	case ExprSub:
		return api.Sub(g.eval(api, e.Left, row), g.eval(api, e.Right, row))
	case ExprMul:
		return api.Mul(g.eval(api, e.Left, row), g.eval(api, e.Right, row))
	default:
		panic(fmt.Sprintf("unknown expression kind %d", e.Kind))
	}
}

// defineRangeMembership enforces lo <= v <= hi when the selector is on.
// With s boolean, s*(v-lo) and s*(hi-v) both fit in rangeBits(hi-lo) bits
// only when the value lies in the interval; when s is zero both products
// vanish and the decomposition is trivially satisfiable.
func (g *GridCircuit) defineRangeMembership(api frontend.API, gate *Gate) {
	nbBits := rangeBits(gate.Lo, gate.Hi)
	for r := gate.From; r < gate.To; r++ {
		s := g.Cells[gate.Selector][r]
		v := g.Cells[gate.Value][r]
		api.ToBinary(api.Mul(s, api.Sub(v, int64(gate.Lo))), nbBits)
		api.ToBinary(api.Mul(s, api.Sub(int64(gate.Hi), v)), nbBits)
	}
}

// rangeBits returns the smallest bit width strictly covering hi-lo.
func rangeBits(lo, hi rune) int {
	width := uint(hi - lo)
	if width == 0 {
		return 1
	}
	return bits.Len(width)
}
