package circuit

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zkmatch-xyz/go-zkmatch/pattern"
)

func TestCompile_Deterministic(t *testing.T) {
	cfg := pattern.NewConfig(7).WithBound("+", 1, 2)
	a := mustCompile(t, `\{[a-z]+":x\}`, cfg)
	b := mustCompile(t, `\{[a-z]+":x\}`, cfg)

	if !reflect.DeepEqual(a.Sections, b.Sections) {
		t.Error("sections differ between identical compilations")
	}
	if !reflect.DeepEqual(a.Layout, b.Layout) {
		t.Error("layouts differ between identical compilations")
	}
	if !reflect.DeepEqual(a.Gates, b.Gates) {
		t.Error("gate sets differ between identical compilations")
	}
	if a.Digest.Cmp(b.Digest) != 0 {
		t.Error("digests differ between identical compilations")
	}
}

func TestCompile_DigestBindsPatternAndConfig(t *testing.T) {
	base := mustCompile(t, "[a-z]{3}", pattern.NewConfig(3))

	other := mustCompile(t, "[a-y]{3}", pattern.NewConfig(3))
	if base.Digest.Cmp(other.Digest) == 0 {
		t.Error("different patterns share a digest")
	}

	cfg := pattern.NewConfig(3)
	cfg.RangeCheckThreshold = 30
	reconfigured := mustCompile(t, "[a-z]{3}", cfg)
	if base.Digest.Cmp(reconfigured.Digest) == 0 {
		t.Error("different configs share a digest")
	}
}

func TestCompile_PairPerSection(t *testing.T) {
	cfg := pattern.NewConfig(6).WithBound("*", 0, 2)
	c := mustCompile(t, "a[bc]*[0-9]{2}d?", cfg)
	if len(c.Layout.Pairs) != len(c.Sections) {
		t.Errorf("got %d pairs for %d sections", len(c.Layout.Pairs), len(c.Sections))
	}
	if c.Stats.Sections != len(c.Sections) {
		t.Errorf("stats sections = %d, want %d", c.Stats.Sections, len(c.Sections))
	}
	if c.Stats.Columns != c.Layout.NumColumns {
		t.Errorf("stats columns = %d, want %d", c.Stats.Columns, c.Layout.NumColumns)
	}
}

// Scenario D: an unbounded quantifier cannot compile.
func TestCompile_UnboundedRepetition(t *testing.T) {
	_, err := Compile("[a-z]+", pattern.NewConfig(10))
	var ure *pattern.UnboundedRepetitionError
	if !errors.As(err, &ure) {
		t.Fatalf("expected UnboundedRepetitionError, got %v", err)
	}
}

func TestCompile_RowBudgetMismatch(t *testing.T) {
	_, err := Compile("[a-z]{3}", pattern.NewConfig(5))
	var loe *LayoutOverflowError
	if !errors.As(err, &loe) {
		t.Fatalf("expected LayoutOverflowError, got %v", err)
	}
}

func TestCompile_InvalidRowBudget(t *testing.T) {
	if _, err := Compile("abc", pattern.NewConfig(0)); err == nil {
		t.Error("expected error for non-positive row budget")
	}
}

func TestStats_MaxDegree(t *testing.T) {
	// Below the threshold the [0-7] class (k=8) compiles to a degree-9
	// product; the stats must surface it as the dominant cost.
	c := mustCompile(t, "[0-7]{2}", pattern.NewConfig(2))
	if c.Stats.MaxDegree != 9 {
		t.Errorf("max degree = %d, want 9", c.Stats.MaxDegree)
	}
	if c.Stats.GatesByKind[MembershipGate] != 1 {
		t.Errorf("membership gate count = %d, want 1", c.Stats.GatesByKind[MembershipGate])
	}
	if s := c.Stats.String(); s == "" {
		t.Error("empty stats rendering")
	}
}

// The compiled shape is shared read-only across goroutines; concurrent
// witness assignment against one shape must be race-free.
func TestAssignWitness_ConcurrentReuse(t *testing.T) {
	c := mustCompile(t, "[a-z]{3}", pattern.NewConfig(3))

	inputs := []string{"cat", "dog", "zzz", "ca1", "abcd"}
	done := make(chan error, len(inputs)*8)
	for i := 0; i < 8; i++ {
		go func() {
			for _, in := range inputs {
				_, err := c.AssignWitness(in)
				done <- err
			}
		}()
	}
	failures := 0
	for i := 0; i < len(inputs)*8; i++ {
		if err := <-done; err != nil {
			failures++
		}
	}
	// "ca1" and "abcd" fail for every goroutine, the rest succeed.
	if failures != 2*8 {
		t.Errorf("got %d failures, want %d", failures, 2*8)
	}
}
