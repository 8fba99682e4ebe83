package prover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
)

func TestCompiledPattern_SaveAndLoad(t *testing.T) {
	shape := mustShape(t, "[abc]{2}", 2)

	p := NewProver()
	cc, err := p.CompilePattern("pair", shape)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "pair")

	if err := cc.SaveTo(dir); err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, name := range []string{"circuit.r1cs", "proving.key", "verifying.key", "circuit.hash"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected file %s: %v", name, err)
		}
	}

	loaded, err := LoadFrom(dir, ecc.BN254)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Prove with the loaded keys — this verifies the round-trip is correct.
	loaded.Name = "pair"
	loaded.Shape = shape
	p.StorePattern("pair", loaded)

	if err := p.Verify("pair", "ca"); err != nil {
		t.Fatalf("verify with loaded keys failed: %v", err)
	}
}

func TestLoadOrCompile_Fresh(t *testing.T) {
	dir := t.TempDir()
	p := NewProverWithKeyDir(dir)

	cc, err := p.LoadOrCompile("pair", mustShape(t, "[abc]{2}", 2))
	if err != nil {
		t.Fatalf("load or compile: %v", err)
	}

	if cc.Constraints == 0 {
		t.Error("expected non-zero constraints")
	}

	for _, name := range []string{"circuit.r1cs", "proving.key", "verifying.key", "circuit.hash"} {
		path := filepath.Join(dir, "pair", name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected file %s: %v", path, err)
		}
	}
}

func TestLoadOrCompile_CacheHit(t *testing.T) {
	dir := t.TempDir()
	shape := mustShape(t, "[abc]{2}", 2)

	// First run — generates and saves keys.
	p1 := NewProverWithKeyDir(dir)
	cc1, err := p1.LoadOrCompile("pair", shape)
	if err != nil {
		t.Fatalf("first compile: %v", err)
	}

	sol1, err := p1.ExportVerifier("pair")
	if err != nil {
		t.Fatalf("export verifier 1: %v", err)
	}

	// Second run — should load from disk.
	p2 := NewProverWithKeyDir(dir)
	cc2, err := p2.LoadOrCompile("pair", shape)
	if err != nil {
		t.Fatalf("second compile: %v", err)
	}

	if cc1.Constraints != cc2.Constraints {
		t.Errorf("constraint count mismatch: %d vs %d", cc1.Constraints, cc2.Constraints)
	}

	// Verifying keys produce identical Solidity verifiers.
	sol2, err := p2.ExportVerifier("pair")
	if err != nil {
		t.Fatalf("export verifier 2: %v", err)
	}
	if sol1 != sol2 {
		t.Error("exported Solidity verifiers differ — keys were not reused")
	}

	// Prove with the loaded keys.
	if err := p2.Verify("pair", "bc"); err != nil {
		t.Fatalf("verify with cached keys failed: %v", err)
	}
}

func TestLoadOrCompile_ShapeChanged(t *testing.T) {
	dir := t.TempDir()

	// First run with one shape.
	p1 := NewProverWithKeyDir(dir)
	if _, err := p1.LoadOrCompile("test", mustShape(t, "[abc]{2}", 2)); err != nil {
		t.Fatalf("first compile: %v", err)
	}
	sol1, err := p1.ExportVerifier("test")
	if err != nil {
		t.Fatalf("export verifier 1: %v", err)
	}

	// Second run with a different shape under the same name.
	// The hash should differ, triggering regeneration.
	p2 := NewProverWithKeyDir(dir)
	if _, err := p2.LoadOrCompile("test", mustShape(t, "[0-9]{2}", 2)); err != nil {
		t.Fatalf("second compile: %v", err)
	}
	sol2, err := p2.ExportVerifier("test")
	if err != nil {
		t.Fatalf("export verifier 2: %v", err)
	}

	if sol1 == sol2 {
		t.Error("expected different verifiers after shape change")
	}
}
