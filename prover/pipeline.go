package prover

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"

	zcircuit "github.com/zkmatch-xyz/go-zkmatch/circuit"
)

// BatchPipeline manages the multi-stage recursive proof generation.
// It orchestrates three provers:
//   - Inner (BLS12-377): generates individual match proofs
//   - Aggregation (BW6-761): aggregates N match proofs into one
//   - Wrapper (BN254): wraps the aggregation proof for Ethereum
//
// Aggregation batches are per pattern; every proof in a batch must carry
// the same pattern digest.
type BatchPipeline struct {
	innerProver *CurveProver // BLS12-377
	aggProver   *CurveProver // BW6-761
	wrapProver  *CurveProver // BN254

	batchSize int // Proofs per aggregation (e.g., 8)

	mu      sync.Mutex
	pending map[string][]*MatchProofResult
}

// MatchProofResult contains the result of generating an inner match proof.
type MatchProofResult struct {
	Pattern       string
	PatternDigest *big.Int
	Proof         groth16.Proof
	PublicWitness witness.Witness
}

// PipelineConfig configures the batch pipeline.
type PipelineConfig struct {
	// BatchSize is the number of match proofs to aggregate (default: 8)
	BatchSize int
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BatchSize: DefaultAggregationSize,
	}
}

// NewBatchPipeline creates a new batch pipeline. Running the two trusted
// setups (aggregator and wrapper) is expensive; construct the pipeline once
// and reuse it.
func NewBatchPipeline(config PipelineConfig) (*BatchPipeline, error) {
	if config.BatchSize < 1 {
		config.BatchSize = DefaultAggregationSize
	}

	innerProver := NewCurveProver(BLS12_377Config)
	aggProver := NewCurveProver(BW6_761Config)
	wrapProver := NewCurveProver(BN254Config)

	if err := RegisterMatchAggregator(aggProver, config.BatchSize); err != nil {
		return nil, fmt.Errorf("failed to register aggregator circuit: %w", err)
	}

	if err := RegisterWrapperCircuit(wrapProver); err != nil {
		return nil, fmt.Errorf("failed to register wrapper circuit: %w", err)
	}

	return &BatchPipeline{
		innerProver: innerProver,
		aggProver:   aggProver,
		wrapProver:  wrapProver,
		batchSize:   config.BatchSize,
		pending:     make(map[string][]*MatchProofResult),
	}, nil
}

// RegisterPattern registers a pattern's grid circuit for inner proof
// generation. This must be called before ProveMatch can be used.
func (p *BatchPipeline) RegisterPattern(name string, shape *zcircuit.Compiled) error {
	return p.innerProver.RegisterPattern(name, shape)
}

// ProveMatch generates a BLS12-377 proof that input matches the named
// pattern, using the native prover options required for later aggregation.
func (p *BatchPipeline) ProveMatch(ctx context.Context, pattern, input string) (*MatchProofResult, error) {
	cc, ok := p.innerProver.GetCircuit(pattern)
	if !ok || cc.Shape == nil {
		return nil, fmt.Errorf("pattern %q not registered", pattern)
	}

	ra, err := cc.Shape.AssignWitness(input)
	if err != nil {
		return nil, &AssignmentError{Pattern: pattern, Err: err}
	}

	result, err := p.innerProver.Prove(pattern, zcircuit.NewGridAssignment(cc.Shape, ra), GetNativeProverOptions())
	if err != nil {
		return nil, fmt.Errorf("inner proof generation failed: %w", err)
	}

	return &MatchProofResult{
		Pattern:       pattern,
		PatternDigest: cc.Shape.Digest,
		Proof:         result.Proof,
		PublicWitness: result.PublicWitness,
	}, nil
}

// AddPending adds a match proof to the pattern's pending buffer.
// Returns true if the buffer is full and ready for aggregation.
func (p *BatchPipeline) AddPending(proof *MatchProofResult) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[proof.Pattern] = append(p.pending[proof.Pattern], proof)
	return len(p.pending[proof.Pattern]) >= p.batchSize
}

// PendingCount returns the number of pending match proofs for a pattern.
func (p *BatchPipeline) PendingCount(pattern string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending[pattern])
}

// DrainPending returns and clears the pattern's pending match proofs.
func (p *BatchPipeline) DrainPending(pattern string) []*MatchProofResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	proofs := p.pending[pattern]
	delete(p.pending, pattern)
	return proofs
}

// Aggregate combines N match proofs into one aggregated proof.
func (p *BatchPipeline) Aggregate(ctx context.Context, matchProofs []*MatchProofResult) (*AggregatedMatchProof, error) {
	if len(matchProofs) != p.batchSize {
		return nil, fmt.Errorf("expected %d match proofs, got %d", p.batchSize, len(matchProofs))
	}

	// All proofs in a batch must attest to the same pattern shape.
	digest := matchProofs[0].PatternDigest
	for i := 1; i < len(matchProofs); i++ {
		if matchProofs[i].PatternDigest.Cmp(digest) != 0 {
			return nil, fmt.Errorf("digest mismatch at proof %d: pattern %q does not belong to the batch",
				i, matchProofs[i].Pattern)
		}
	}

	cc, ok := p.innerProver.GetCircuit(matchProofs[0].Pattern)
	if !ok {
		return nil, fmt.Errorf("pattern %q not registered", matchProofs[0].Pattern)
	}

	batchWitness := &MatchBatchWitness{
		PatternDigest:  digest,
		InnerProofs:    make([]groth16.Proof, len(matchProofs)),
		InnerWitnesses: make([]witness.Witness, len(matchProofs)),
		InnerVK:        cc.VerifyingKey,
	}

	for i, mp := range matchProofs {
		batchWitness.InnerProofs[i] = mp.Proof
		batchWitness.InnerWitnesses[i] = mp.PublicWitness
	}

	assignment, err := batchWitness.ToAssignment()
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregator assignment: %w", err)
	}

	// The aggregation proof is itself verified inside the BN254 wrapper,
	// so it must be generated with the wrapper's native options.
	circuitName := fmt.Sprintf("aggregate%d", p.batchSize)
	aggResult, err := p.aggProver.Prove(circuitName, assignment, GetWrapperProverOptions())
	if err != nil {
		return nil, fmt.Errorf("aggregation proof generation failed: %w", err)
	}

	return &AggregatedMatchProof{
		Proof:         aggResult.Proof,
		VerifyingKey:  aggResult.VerifyingKey,
		PublicInputs:  extractPublicInputs(aggResult.PublicWitness, ecc.BW6_761),
		PatternDigest: digest,
		MatchCount:    len(matchProofs),
	}, nil
}

// Wrap wraps an aggregation proof for Ethereum submission.
func (p *BatchPipeline) Wrap(ctx context.Context, aggProof *AggregatedMatchProof) (*WrappedProof, error) {
	circuitName := fmt.Sprintf("aggregate%d", p.batchSize)
	cc, ok := p.aggProver.GetCircuit(circuitName)
	if !ok {
		return nil, fmt.Errorf("aggregator circuit not registered")
	}

	wrapWitness := &WrapperWitness{
		PatternDigest:      aggProof.PatternDigest,
		MatchCount:         aggProof.MatchCount,
		AggregationProof:   aggProof.Proof,
		AggregationWitness: publicWitnessFromInputs(aggProof.PublicInputs, ecc.BW6_761),
		AggregationVK:      cc.VerifyingKey,
	}

	assignment, err := wrapWitness.ToAssignment()
	if err != nil {
		return nil, fmt.Errorf("failed to create wrapper assignment: %w", err)
	}

	wrapResult, err := p.wrapProver.Prove("wrapper", assignment)
	if err != nil {
		return nil, fmt.Errorf("wrapper proof generation failed: %w", err)
	}

	rawProof := extractRawProof(wrapResult.Proof)
	publicInputs := extractPublicInputStrings(wrapResult.PublicWitness, ecc.BN254)

	return &WrappedProof{
		A:             [2]*big.Int{rawProof[0], rawProof[1]},
		B:             [2][2]*big.Int{{rawProof[2], rawProof[3]}, {rawProof[4], rawProof[5]}},
		C:             [2]*big.Int{rawProof[6], rawProof[7]},
		RawProof:      rawProof,
		PublicInputs:  publicInputs,
		PatternDigest: aggProof.PatternDigest,
		MatchCount:    aggProof.MatchCount,
	}, nil
}

// FullAggregate performs the complete pipeline:
// 1. Verifies the match proofs share one pattern digest
// 2. Aggregates them into one proof
// 3. Wraps for Ethereum submission
func (p *BatchPipeline) FullAggregate(ctx context.Context, matchProofs []*MatchProofResult) (*WrappedProof, error) {
	aggProof, err := p.Aggregate(ctx, matchProofs)
	if err != nil {
		return nil, fmt.Errorf("aggregation failed: %w", err)
	}

	wrapped, err := p.Wrap(ctx, aggProof)
	if err != nil {
		return nil, fmt.Errorf("wrapping failed: %w", err)
	}

	return wrapped, nil
}

// fieldElementSize returns the serialized size of a scalar field element.
func fieldElementSize(curve ecc.ID) int {
	return (curve.ScalarField().BitLen() + 7) / 8
}

// extractPublicInputs extracts public inputs from a witness.
func extractPublicInputs(w witness.Witness, curve ecc.ID) []*big.Int {
	if w == nil {
		return nil
	}

	pubBytes, err := w.MarshalBinary()
	if err != nil {
		return nil
	}

	// Header: nb public, nb secret, vector length, each a big-endian uint32.
	const headerSize = 12
	elementSize := fieldElementSize(curve)

	if len(pubBytes) < headerSize {
		return nil
	}

	data := pubBytes[headerSize:]
	numElements := len(data) / elementSize
	inputs := make([]*big.Int, numElements)

	for i := 0; i < numElements; i++ {
		start := i * elementSize
		end := start + elementSize
		if end <= len(data) {
			inputs[i] = new(big.Int).SetBytes(data[start:end])
		}
	}

	return inputs
}

// extractPublicInputStrings extracts public inputs as hex strings.
func extractPublicInputStrings(w witness.Witness, curve ecc.ID) []string {
	inputs := extractPublicInputs(w, curve)
	strs := make([]string, len(inputs))
	for i, input := range inputs {
		if input != nil {
			strs[i] = fmt.Sprintf("0x%064x", input)
		}
	}
	return strs
}

// extractRawProof extracts the 8 proof elements from a groth16 proof.
func extractRawProof(proof groth16.Proof) [8]*big.Int {
	result := [8]*big.Int{}
	for i := range result {
		result[i] = big.NewInt(0)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return result
	}
	proofBytes := buf.Bytes()

	// Uncompressed format: A (64 bytes) + B (128 bytes) + C (64 bytes) = 256 bytes
	if len(proofBytes) >= 256 {
		result[0] = new(big.Int).SetBytes(proofBytes[0:32])    // A.X
		result[1] = new(big.Int).SetBytes(proofBytes[32:64])   // A.Y
		result[2] = new(big.Int).SetBytes(proofBytes[64:96])   // B.X[0]
		result[3] = new(big.Int).SetBytes(proofBytes[96:128])  // B.X[1]
		result[4] = new(big.Int).SetBytes(proofBytes[128:160]) // B.Y[0]
		result[5] = new(big.Int).SetBytes(proofBytes[160:192]) // B.Y[1]
		result[6] = new(big.Int).SetBytes(proofBytes[192:224]) // C.X
		result[7] = new(big.Int).SetBytes(proofBytes[224:256]) // C.Y
	}

	return result
}

// publicWitnessFromInputs creates a public-only witness from input values.
// This is used to reconstruct a witness for verification.
func publicWitnessFromInputs(inputs []*big.Int, curve ecc.ID) witness.Witness {
	w, err := witness.New(curve.ScalarField())
	if err != nil {
		return nil
	}

	values := make(chan any, len(inputs))
	for _, input := range inputs {
		if input == nil {
			input = big.NewInt(0)
		}
		values <- input
	}
	close(values)

	if err := w.Fill(len(inputs), 0, values); err != nil {
		return nil
	}
	return w
}

// BatchSize returns the number of proofs per aggregation.
func (p *BatchPipeline) BatchSize() int {
	return p.batchSize
}

// InnerProver returns the inner prover (BLS12-377).
func (p *BatchPipeline) InnerProver() *CurveProver {
	return p.innerProver
}

// AggProver returns the aggregation prover (BW6-761).
func (p *BatchPipeline) AggProver() *CurveProver {
	return p.aggProver
}

// WrapProver returns the wrapper prover (BN254).
func (p *BatchPipeline) WrapProver() *CurveProver {
	return p.wrapProver
}
