package circuit

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"sort"

	"github.com/zkmatch-xyz/go-zkmatch/pattern"
)

// Compiled is the immutable output of compiling one (pattern, config) pair:
// the section list, the grid layout, and the full gate set. It is safe to
// share across concurrent witness computations and proof requests.
type Compiled struct {
	Pattern  string
	Config   pattern.Config
	Sections []pattern.Section
	Layout   *CircuitLayout
	Gates    []*Gate
	Stats    Stats

	// Digest commits to the (pattern, config) pair. It is exposed as the
	// circuit's only public input, binding every proof to the shape it was
	// generated against.
	Digest *big.Int
}

// Compile runs the full shape pipeline: parse the pattern into sections,
// plan the grid layout, and assemble the membership and sequencing gates.
// All failures are terminal; no partial shape is ever returned.
func Compile(expr string, cfg pattern.Config) (*Compiled, error) {
	if cfg.MaxInputLength <= 0 {
		return nil, fmt.Errorf("circuit: MaxInputLength must be positive, got %d", cfg.MaxInputLength)
	}

	sections, err := pattern.Parse(expr, cfg)
	if err != nil {
		return nil, err
	}

	layout, err := PlanLayout(sections, cfg.MaxInputLength)
	if err != nil {
		return nil, err
	}

	gates := NewGateSet()
	ca := NewConstraintAssembler(sections, layout, cfg.Threshold())
	if err := ca.Assemble(gates); err != nil {
		return nil, err
	}
	sa := NewSequencingAssembler(sections, layout)
	sa.Assemble(gates)

	return &Compiled{
		Pattern:  expr,
		Config:   cfg,
		Sections: sections,
		Layout:   layout,
		Gates:    gates.Gates(),
		Stats:    ComputeStats(layout, gates.Gates()),
		Digest:   shapeDigest(expr, cfg),
	}, nil
}

// shapeDigest hashes the pattern text and the layout-affecting parts of the
// config. Truncated to 31 bytes so the value fits every pairing-friendly
// scalar field.
func shapeDigest(expr string, cfg pattern.Config) *big.Int {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00", expr, cfg.MaxInputLength, cfg.Threshold())
	symbols := make([]string, 0, len(cfg.QuantifierBounds))
	for sym := range cfg.QuantifierBounds {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		b := cfg.QuantifierBounds[sym]
		fmt.Fprintf(h, "%s=%d,%d\x00", sym, b.Min, b.Max)
	}
	sum := h.Sum(nil)
	return new(big.Int).SetBytes(sum[:31])
}

// AssignWitness produces the concrete row assignment for one input string.
// It is a pure function of the compiled shape and the input; independent
// inputs may be assigned in parallel against the same shape.
func (c *Compiled) AssignWitness(input string) (*RowAssignment, error) {
	return assignRows(c.Sections, c.Layout.Rows, input)
}
