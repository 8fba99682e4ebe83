package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/zkmatch-xyz/go-zkmatch/pattern"
)

// boundFlags collects repeated --bound flags of the form "+=1,8".
type boundFlags map[string]pattern.Bound

func (b boundFlags) String() string {
	parts := make([]string, 0, len(b))
	for sym, bound := range b {
		parts = append(parts, fmt.Sprintf("%s=%d,%d", sym, bound.Min, bound.Max))
	}
	return strings.Join(parts, " ")
}

func (b boundFlags) Set(value string) error {
	sym, spec, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("bound %q: want symbol=min,max", value)
	}
	minStr, maxStr, ok := strings.Cut(spec, ",")
	if !ok {
		return fmt.Errorf("bound %q: want symbol=min,max", value)
	}
	minVal, err := strconv.Atoi(strings.TrimSpace(minStr))
	if err != nil {
		return fmt.Errorf("bound %q: %w", value, err)
	}
	maxVal, err := strconv.Atoi(strings.TrimSpace(maxStr))
	if err != nil {
		return fmt.Errorf("bound %q: %w", value, err)
	}
	b[strings.TrimSpace(sym)] = pattern.Bound{Min: minVal, Max: maxVal}
	return nil
}

// configFlags registers the shared pattern-config flags on fs and returns
// a builder to call after parsing.
func configFlags(fs *flag.FlagSet) func() pattern.Config {
	maxLen := fs.Int("max-len", 0, "Fixed input length in characters (required)")
	threshold := fs.Int("range-threshold", pattern.DefaultRangeCheckThreshold,
		"Contiguous class size above which range checks replace membership products")
	bounds := boundFlags{}
	fs.Var(bounds, "bound", "Quantifier bound as symbol=min,max (repeatable), e.g. --bound '+=1,8'")

	return func() pattern.Config {
		cfg := pattern.NewConfig(*maxLen)
		cfg.RangeCheckThreshold = *threshold
		for sym, b := range bounds {
			cfg = cfg.WithBound(sym, b.Min, b.Max)
		}
		return cfg
	}
}
