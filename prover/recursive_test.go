package prover

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
)

func TestCurveConfigs(t *testing.T) {
	configs := []struct {
		name     string
		config   CurveConfig
		expected ecc.ID
		role     CurveRole
	}{
		{"BN254", BN254Config, ecc.BN254, RoleWrapper},
		{"BLS12-377", BLS12_377Config, ecc.BLS12_377, RoleInner},
		{"BW6-761", BW6_761Config, ecc.BW6_761, RoleAggregation},
	}

	for _, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			if tc.config.ID != tc.expected {
				t.Errorf("expected curve ID %v, got %v", tc.expected, tc.config.ID)
			}
			if tc.config.Role != tc.role {
				t.Errorf("expected role %v, got %v", tc.role, tc.config.Role)
			}
			if tc.config.Name == "" {
				t.Error("expected non-empty name")
			}
			if tc.config.FieldSize == 0 {
				t.Error("expected non-zero field size")
			}
		})
	}
}

func TestNewCurveProver(t *testing.T) {
	configs := []CurveConfig{BN254Config, BLS12_377Config, BW6_761Config}

	for _, config := range configs {
		t.Run(config.Name, func(t *testing.T) {
			prover := NewCurveProver(config)
			if prover == nil {
				t.Fatal("expected non-nil prover")
			}
			if prover.CurveID() != config.ID {
				t.Errorf("expected curve ID %v, got %v", config.ID, prover.CurveID())
			}
			if prover.Config().Name != config.Name {
				t.Errorf("expected config name %s, got %s", config.Name, prover.Config().Name)
			}
			if len(prover.ListCircuits()) != 0 {
				t.Error("expected empty circuit list for new prover")
			}
		})
	}
}

func TestRecursionStack(t *testing.T) {
	stack := NewRecursionStack()
	if stack == nil {
		t.Fatal("expected non-nil recursion stack")
	}

	if stack.Inner.CurveID() != ecc.BLS12_377 {
		t.Errorf("expected inner prover on BLS12-377, got %v", stack.Inner.CurveID())
	}
	if stack.Aggregation.CurveID() != ecc.BW6_761 {
		t.Errorf("expected aggregation prover on BW6-761, got %v", stack.Aggregation.CurveID())
	}
	if stack.Wrapper.CurveID() != ecc.BN254 {
		t.Errorf("expected wrapper prover on BN254, got %v", stack.Wrapper.CurveID())
	}

	if stack.GetProver(RoleInner) != stack.Inner {
		t.Error("GetProver(RoleInner) should return Inner prover")
	}
	if stack.GetProver(RoleAggregation) != stack.Aggregation {
		t.Error("GetProver(RoleAggregation) should return Aggregation prover")
	}
	if stack.GetProver(RoleWrapper) != stack.Wrapper {
		t.Error("GetProver(RoleWrapper) should return Wrapper prover")
	}
}

func TestCurveProver_RegisterPattern(t *testing.T) {
	// The grid circuit must compile on the inner recursion curve too.
	prover := NewCurveProver(BLS12_377Config)

	shape := mustShape(t, "[abc]{2}", 2)
	if err := prover.RegisterPattern("pair", shape); err != nil {
		t.Fatalf("register on BLS12-377 failed: %v", err)
	}

	cc, ok := prover.GetCircuit("pair")
	if !ok {
		t.Fatal("pattern not found after registration")
	}
	if cc.Shape != shape {
		t.Error("expected shape to be attached to the compiled circuit")
	}
	if cc.Curve != ecc.BLS12_377 {
		t.Errorf("expected BLS12-377 circuit, got %v", cc.Curve)
	}
	if cc.PublicVars != 2 { // the constant one-wire plus the digest
		t.Errorf("public vars = %d, want 2", cc.PublicVars)
	}
}

func TestCompileInnerPlaceholder(t *testing.T) {
	ccs, err := CompileInnerPlaceholder()
	if err != nil {
		t.Fatalf("failed to compile inner placeholder: %v", err)
	}
	if ccs == nil {
		t.Fatal("expected non-nil constraint system")
	}

	// One public input (the digest) plus gnark's constant "1".
	if ccs.GetNbPublicVariables() != 2 {
		t.Errorf("expected 2 public variables, got %d", ccs.GetNbPublicVariables())
	}
}

func TestCompileAggregationPlaceholder(t *testing.T) {
	ccs, err := CompileAggregationPlaceholder()
	if err != nil {
		t.Fatalf("failed to compile aggregation placeholder: %v", err)
	}
	if ccs == nil {
		t.Fatal("expected non-nil constraint system")
	}

	// Digest and match count plus gnark's constant "1".
	if ccs.GetNbPublicVariables() != 3 {
		t.Errorf("expected 3 public variables, got %d", ccs.GetNbPublicVariables())
	}
}

func TestNewMatchAggregatorCircuit(t *testing.T) {
	numProofs := 4 // Use smaller number for faster test

	circuit, err := NewMatchAggregatorCircuit(numProofs)
	if err != nil {
		t.Fatalf("failed to create aggregator circuit: %v", err)
	}

	if circuit == nil {
		t.Fatal("expected non-nil circuit")
	}
	if circuit.NumProofs != numProofs {
		t.Errorf("expected NumProofs=%d, got %d", numProofs, circuit.NumProofs)
	}
	if len(circuit.InnerProofs) != numProofs {
		t.Errorf("expected %d inner proofs, got %d", numProofs, len(circuit.InnerProofs))
	}
	if len(circuit.InnerWitnesses) != numProofs {
		t.Errorf("expected %d inner witnesses, got %d", numProofs, len(circuit.InnerWitnesses))
	}
}

func TestNewWrapperCircuit(t *testing.T) {
	circuit, err := NewWrapperCircuit()
	if err != nil {
		t.Fatalf("failed to create wrapper circuit: %v", err)
	}

	if circuit == nil {
		t.Fatal("expected non-nil circuit")
	}
}

func TestMatchBatchWitnessValidation(t *testing.T) {
	// Empty witness
	emptyWitness := &MatchBatchWitness{
		InnerProofs: []groth16.Proof{},
	}

	if _, err := emptyWitness.ToAssignment(); err == nil {
		t.Error("expected error for empty witness")
	}

	// Mismatched counts
	mismatchedWitness := &MatchBatchWitness{
		InnerProofs:    make([]groth16.Proof, 4),
		InnerWitnesses: make([]witness.Witness, 3),
	}

	if _, err := mismatchedWitness.ToAssignment(); err == nil {
		t.Error("expected error for mismatched witness counts")
	}
}

func TestPipelineConfig(t *testing.T) {
	config := DefaultPipelineConfig()

	if config.BatchSize != DefaultAggregationSize {
		t.Errorf("expected default batch size %d, got %d",
			DefaultAggregationSize, config.BatchSize)
	}
}

func TestAggregatedMatchProof(t *testing.T) {
	proof := AggregatedMatchProof{
		PatternDigest: big.NewInt(12345),
		MatchCount:    8,
		PublicInputs: []*big.Int{
			big.NewInt(12345),
			big.NewInt(8),
		},
	}

	if proof.MatchCount != 8 {
		t.Error("unexpected match count")
	}
	if proof.PatternDigest.Cmp(proof.PublicInputs[0]) != 0 {
		t.Error("digest should lead the public inputs")
	}
}

func TestWrappedProof(t *testing.T) {
	wrapped := WrappedProof{
		A:             [2]*big.Int{big.NewInt(1), big.NewInt(2)},
		B:             [2][2]*big.Int{{big.NewInt(3), big.NewInt(4)}, {big.NewInt(5), big.NewInt(6)}},
		C:             [2]*big.Int{big.NewInt(7), big.NewInt(8)},
		RawProof:      [8]*big.Int{},
		PublicInputs:  []string{"0x1", "0x2"},
		PatternDigest: big.NewInt(1),
		MatchCount:    8,
	}

	if len(wrapped.PublicInputs) != 2 {
		t.Errorf("expected 2 public inputs, got %d", len(wrapped.PublicInputs))
	}
	if wrapped.MatchCount != 8 {
		t.Error("unexpected match count")
	}
}

// A witness rebuilt from extracted public inputs must carry the same values
// back out, on both the aggregation and wrapper curves.
func TestPublicWitnessFromInputs_RoundTrip(t *testing.T) {
	digest := new(big.Int).Lsh(big.NewInt(0xabcdef), 220)

	for _, tc := range []struct {
		name  string
		curve ecc.ID
	}{
		{"BW6-761", ecc.BW6_761},
		{"BN254", ecc.BN254},
	} {
		t.Run(tc.name, func(t *testing.T) {
			inputs := []*big.Int{digest, big.NewInt(8)}

			w := publicWitnessFromInputs(inputs, tc.curve)
			if w == nil {
				t.Fatal("witness construction failed")
			}

			got := extractPublicInputs(w, tc.curve)
			if len(got) != len(inputs) {
				t.Fatalf("got %d public inputs, want %d", len(got), len(inputs))
			}
			for i := range inputs {
				if got[i].Cmp(inputs[i]) != 0 {
					t.Errorf("input %d = %v, want %v", i, got[i], inputs[i])
				}
			}
		})
	}
}
