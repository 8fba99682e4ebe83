package pattern

// Bound gives the repeat bounds substituted for a quantifier that carries no
// explicit upper bound in the pattern text.
type Bound struct {
	Min int
	Max int
}

// Config controls compilation of a pattern into a fixed-shape circuit.
type Config struct {
	// MaxInputLength is the total row budget L of the circuit grid. The
	// sum of all section capacities must equal it exactly.
	MaxInputLength int

	// QuantifierBounds maps a quantifier symbol ("+" or "*") to the bounds
	// used when the pattern omits an explicit upper bound. An open-ended
	// {m,} borrows the "*" entry's Max. A missing entry makes the
	// quantifier unbounded and compilation fails.
	QuantifierBounds map[string]Bound

	// RangeCheckThreshold is the accepted-set size above which a
	// contiguous class is encoded as two ordered range checks instead of
	// a degree-k+1 membership product. Zero selects DefaultRangeCheckThreshold.
	RangeCheckThreshold int
}

// DefaultRangeCheckThreshold is the class size above which range-kind
// sections switch to the two-sided range-check encoding.
const DefaultRangeCheckThreshold = 8

// NewConfig returns a Config with the given row budget and no quantifier
// bounds: patterns using + or * will fail to compile until bounds are set.
func NewConfig(maxInputLength int) Config {
	return Config{
		MaxInputLength:   maxInputLength,
		QuantifierBounds: map[string]Bound{},
	}
}

// WithBound returns a copy of the config with the bound for one quantifier
// symbol set.
func (c Config) WithBound(symbol string, min, max int) Config {
	bounds := make(map[string]Bound, len(c.QuantifierBounds)+1)
	for k, v := range c.QuantifierBounds {
		bounds[k] = v
	}
	bounds[symbol] = Bound{Min: min, Max: max}
	c.QuantifierBounds = bounds
	return c
}

// Threshold returns the effective range-check threshold.
func (c Config) Threshold() int {
	if c.RangeCheckThreshold > 0 {
		return c.RangeCheckThreshold
	}
	return DefaultRangeCheckThreshold
}
