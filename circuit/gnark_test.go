package circuit

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/zkmatch-xyz/go-zkmatch/pattern"
)

func TestGridCircuit_Compile(t *testing.T) {
	c := mustCompile(t, "a[0-9]{2}b", pattern.NewConfig(4))

	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewGridCircuit(c))
	if err != nil {
		t.Fatalf("circuit compilation failed: %v", err)
	}

	t.Logf("grid circuit for %q: %d constraints, %d secret vars",
		c.Pattern, cs.GetNbConstraints(), cs.GetNbSecretVariables())

	if cs.GetNbPublicVariables() != 2 { // the constant one-wire plus the digest
		t.Errorf("public variables = %d, want 2", cs.GetNbPublicVariables())
	}
	wantSecret := c.Layout.NumColumns * c.Layout.Rows
	if cs.GetNbSecretVariables() != wantSecret {
		t.Errorf("secret variables = %d, want %d", cs.GetNbSecretVariables(), wantSecret)
	}
}

func TestGridCircuit_ProveAndVerify(t *testing.T) {
	c := mustCompile(t, "a[0-9]{2}b", pattern.NewConfig(4))

	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewGridCircuit(c))
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	ra, err := c.AssignWitness("a42b")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	witness, err := frontend.NewWitness(NewGridAssignment(c, ra), ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("witness failed: %v", err)
	}

	proof, err := groth16.Prove(cs, pk, witness)
	if err != nil {
		t.Fatalf("prove failed: %v", err)
	}

	publicWitness, err := witness.Public()
	if err != nil {
		t.Fatalf("public witness failed: %v", err)
	}
	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestGridCircuit_ProveProductEncoding(t *testing.T) {
	// [abc] stays below the range-check threshold: exercises the
	// degree-k+1 membership product end to end.
	c := mustCompile(t, "[abc]{2}", pattern.NewConfig(2))

	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewGridCircuit(c))
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	ra, err := c.AssignWitness("cb")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	witness, err := frontend.NewWitness(NewGridAssignment(c, ra), ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("witness failed: %v", err)
	}
	proof, err := groth16.Prove(cs, pk, witness)
	if err != nil {
		t.Fatalf("prove failed: %v", err)
	}
	publicWitness, _ := witness.Public()
	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestGridCircuit_TamperedWitnessFails(t *testing.T) {
	c := mustCompile(t, "[abc]{2}", pattern.NewConfig(2))

	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewGridCircuit(c))
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	pk, _, err := groth16.Setup(cs)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	ra, err := c.AssignWitness("ab")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	// Swap in a value outside the accepted set while its selector is on.
	assignment := NewGridAssignment(c, ra)
	assignment.Cells[c.Layout.Pairs[0].Value][0] = int('z')

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("witness failed: %v", err)
	}
	if _, err := groth16.Prove(cs, pk, witness); err == nil {
		t.Error("expected proof to fail for out-of-set value")
	}
}
