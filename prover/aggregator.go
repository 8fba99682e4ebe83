package prover

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
)

// DefaultAggregationSize is the default number of match proofs to aggregate.
const DefaultAggregationSize = 8

// MatchAggregatorCircuit verifies N BLS12-377 match proofs for the same
// pattern and aggregates them into one proof. It runs on BW6-761, where
// BLS12-377 verification is "native" (BW6-761's base field equals
// BLS12-377's scalar field).
//
// Public inputs:
//   - PatternDigest: digest of the shared pattern shape
//   - MatchCount: number of aggregated match proofs
//
// Private inputs:
//   - InnerProofs: the N BLS12-377 Groth16 proofs to verify
//   - InnerWitnesses: public witnesses for each inner proof
//   - InnerVK: verifying key for the grid circuit (shared for all)
type MatchAggregatorCircuit struct {
	// Public inputs
	PatternDigest frontend.Variable `gnark:",public"`
	MatchCount    frontend.Variable `gnark:",public"`

	// Number of proofs to aggregate (fixed at compile time)
	NumProofs int

	// Inner proofs and witnesses (BLS12-377)
	InnerProofs    []stdgroth16.Proof[sw_bls12377.G1Affine, sw_bls12377.G2Affine]
	InnerWitnesses []stdgroth16.Witness[sw_bls12377.ScalarField]
	InnerVK        stdgroth16.VerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT]
}

// Define implements the aggregation circuit constraints.
func (c *MatchAggregatorCircuit) Define(api frontend.API) error {
	if c.NumProofs < 1 {
		return fmt.Errorf("NumProofs must be at least 1")
	}

	// Create recursive verifier for BLS12-377 proofs
	verifier, err := stdgroth16.NewVerifier[sw_bls12377.ScalarField, sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](api)
	if err != nil {
		return fmt.Errorf("failed to create verifier: %w", err)
	}

	for i := 0; i < c.NumProofs; i++ {
		if err := verifier.AssertProof(c.InnerVK, c.InnerProofs[i], c.InnerWitnesses[i], stdgroth16.WithCompleteArithmetic()); err != nil {
			return fmt.Errorf("failed to verify inner proof %d: %w", i, err)
		}

		// Grid circuit public inputs: [patternDigest]. BLS12-377 scalars
		// are native in BW6-761, so the single limb carries the full value.
		innerDigest := c.InnerWitnesses[i].Public[0]
		api.AssertIsEqual(innerDigest.Limbs[0], c.PatternDigest)
	}

	api.AssertIsEqual(c.MatchCount, c.NumProofs)

	return nil
}

// InnerMatchPlaceholder mirrors the public input layout of a grid circuit.
// Used only to derive the structure for placeholder VK/proof/witness
// generation; every grid circuit exposes exactly one public input.
type InnerMatchPlaceholder struct {
	PatternDigest frontend.Variable `gnark:",public"`
	Dummy         frontend.Variable
}

func (c *InnerMatchPlaceholder) Define(api frontend.API) error {
	api.AssertIsDifferent(c.Dummy, 0)
	return nil
}

// CompileInnerPlaceholder compiles a minimal grid-shaped circuit to get the
// structure needed for placeholder VK, proof, and witness generation.
func CompileInnerPlaceholder() (constraint.ConstraintSystem, error) {
	circuit := &InnerMatchPlaceholder{}
	return frontend.Compile(ecc.BLS12_377.ScalarField(), r1cs.NewBuilder, circuit)
}

// NewMatchAggregatorCircuit creates a new aggregator circuit with
// placeholder values. Used for circuit compilation (trusted setup). One
// aggregator setup serves every pattern: all grid circuits share the same
// public input layout.
func NewMatchAggregatorCircuit(numProofs int) (*MatchAggregatorCircuit, error) {
	innerCCS, err := CompileInnerPlaceholder()
	if err != nil {
		return nil, fmt.Errorf("failed to compile inner placeholder: %w", err)
	}

	circuit := &MatchAggregatorCircuit{
		NumProofs:      numProofs,
		InnerProofs:    make([]stdgroth16.Proof[sw_bls12377.G1Affine, sw_bls12377.G2Affine], numProofs),
		InnerWitnesses: make([]stdgroth16.Witness[sw_bls12377.ScalarField], numProofs),
	}

	circuit.InnerVK = stdgroth16.PlaceholderVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](innerCCS)

	for i := 0; i < numProofs; i++ {
		circuit.InnerProofs[i] = stdgroth16.PlaceholderProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](innerCCS)
		circuit.InnerWitnesses[i] = stdgroth16.PlaceholderWitness[sw_bls12377.ScalarField](innerCCS)
	}

	return circuit, nil
}

// MatchBatchWitness holds the witness values for aggregation.
type MatchBatchWitness struct {
	PatternDigest  *big.Int
	InnerProofs    []groth16.Proof
	InnerWitnesses []witness.Witness
	InnerVK        groth16.VerifyingKey
}

// ToAssignment converts a MatchBatchWitness to a circuit assignment.
func (w *MatchBatchWitness) ToAssignment() (*MatchAggregatorCircuit, error) {
	numProofs := len(w.InnerProofs)
	if numProofs == 0 {
		return nil, fmt.Errorf("no inner proofs provided")
	}
	if len(w.InnerWitnesses) != numProofs {
		return nil, fmt.Errorf("witness count mismatch: %d proofs, %d witnesses", numProofs, len(w.InnerWitnesses))
	}

	circuit := &MatchAggregatorCircuit{
		PatternDigest:  w.PatternDigest,
		MatchCount:     numProofs,
		NumProofs:      numProofs,
		InnerProofs:    make([]stdgroth16.Proof[sw_bls12377.G1Affine, sw_bls12377.G2Affine], numProofs),
		InnerWitnesses: make([]stdgroth16.Witness[sw_bls12377.ScalarField], numProofs),
	}

	vk, err := stdgroth16.ValueOfVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](w.InnerVK)
	if err != nil {
		return nil, fmt.Errorf("failed to convert VK: %w", err)
	}
	circuit.InnerVK = vk

	for i := 0; i < numProofs; i++ {
		proof, err := stdgroth16.ValueOfProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](w.InnerProofs[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert proof %d: %w", i, err)
		}
		circuit.InnerProofs[i] = proof

		wit, err := stdgroth16.ValueOfWitness[sw_bls12377.ScalarField](w.InnerWitnesses[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert witness %d: %w", i, err)
		}
		circuit.InnerWitnesses[i] = wit
	}

	return circuit, nil
}

// RegisterMatchAggregator registers the aggregator circuit with a
// CurveProver. The prover must be configured for BW6-761.
func RegisterMatchAggregator(prover *CurveProver, numProofs int) error {
	if prover.CurveID() != ecc.BW6_761 {
		return fmt.Errorf("aggregator circuit requires BW6-761 prover, got %s", prover.Config().Name)
	}

	circuit, err := NewMatchAggregatorCircuit(numProofs)
	if err != nil {
		return fmt.Errorf("failed to create aggregator circuit: %w", err)
	}

	name := fmt.Sprintf("aggregate%d", numProofs)
	return prover.RegisterCircuit(name, circuit)
}

// AggregatedMatchProof represents the output of proof aggregation.
type AggregatedMatchProof struct {
	// Final proof (BW6-761) ready for wrapper or direct verification
	Proof         groth16.Proof
	VerifyingKey  groth16.VerifyingKey
	PublicInputs  []*big.Int
	PatternDigest *big.Int
	MatchCount    int
}

// GetNativeProverOptions returns the prover options needed for generating
// inner match proofs that will be verified in the aggregation circuit.
func GetNativeProverOptions() backend.ProverOption {
	return stdgroth16.GetNativeProverOptions(ecc.BW6_761.ScalarField(), ecc.BLS12_377.ScalarField())
}

// GetNativeVerifierOptions returns the verifier options for verifying
// proofs that were generated with GetNativeProverOptions.
func GetNativeVerifierOptions() backend.VerifierOption {
	return stdgroth16.GetNativeVerifierOptions(ecc.BW6_761.ScalarField(), ecc.BLS12_377.ScalarField())
}
