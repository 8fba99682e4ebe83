// Package prover turns compiled pattern shapes into Groth16 proving
// infrastructure: per-pattern trusted setup, proof generation over secret
// inputs, local verification, Solidity verifier export, and key
// persistence. Proofs reveal only the pattern digest; the matched input
// stays in the secret witness.
package prover

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/zkmatch-xyz/go-zkmatch/circuit"
)

// Prover manages pattern registration, trusted setup, and proof generation.
type Prover struct {
	mu       sync.RWMutex
	patterns map[string]*CompiledPattern
	curve    ecc.ID
	keyDir   string
}

// CompiledPattern holds a pattern's shape, constraint system, and keys.
type CompiledPattern struct {
	Name         string
	Shape        *circuit.Compiled
	CS           constraint.ConstraintSystem
	ProvingKey   groth16.ProvingKey
	VerifyingKey groth16.VerifyingKey
	Constraints  int
	PublicVars   int
	PrivateVars  int
}

// ProofResult contains the generated proof and public inputs.
type ProofResult struct {
	// Proof points for Solidity verification
	A [2]*big.Int    `json:"a"`
	B [2][2]*big.Int `json:"b"`
	C [2]*big.Int    `json:"c"`

	// Raw proof as flat array for submission: [A.X, A.Y, B.X[0], B.X[1], B.Y[0], B.Y[1], C.X, C.Y]
	RawProof []*big.Int `json:"raw_proof"`

	// Public inputs (as hex strings for Solidity); for a grid circuit this
	// is the pattern digest
	PublicInputs []string `json:"public_inputs"`

	// Metadata
	Pattern     string `json:"pattern"`
	Constraints int    `json:"constraints"`
}

// NewProver creates a new prover instance.
func NewProver() *Prover {
	return &Prover{
		patterns: make(map[string]*CompiledPattern),
		curve:    ecc.BN254, // Ethereum's alt_bn128
	}
}

// NewProverWithKeyDir creates a prover that persists setup keys under dir.
// LoadOrCompile reuses keys from dir across process restarts.
func NewProverWithKeyDir(dir string) *Prover {
	p := NewProver()
	p.keyDir = dir
	return p
}

// RegisterPattern builds the grid circuit for shape, runs trusted setup,
// and stores the result under name.
func (p *Prover) RegisterPattern(name string, shape *circuit.Compiled) error {
	cc, err := p.CompilePattern(name, shape)
	if err != nil {
		return err
	}
	p.StorePattern(name, cc)
	return nil
}

// CompilePattern compiles a pattern's grid circuit and runs trusted setup
// without storing it. Useful for parallel compilation where storage
// happens later.
func (p *Prover) CompilePattern(name string, shape *circuit.Compiled) (*CompiledPattern, error) {
	cs, err := frontend.Compile(p.curve.ScalarField(), r1cs.NewBuilder, circuit.NewGridCircuit(shape))
	if err != nil {
		return nil, fmt.Errorf("circuit compilation failed: %w", err)
	}

	// Trusted setup (in production, use ceremony or universal setup)
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}

	return &CompiledPattern{
		Name:         name,
		Shape:        shape,
		CS:           cs,
		ProvingKey:   pk,
		VerifyingKey: vk,
		Constraints:  cs.GetNbConstraints(),
		PublicVars:   cs.GetNbPublicVariables(),
		PrivateVars:  cs.GetNbSecretVariables(),
	}, nil
}

// StorePattern stores a pre-compiled pattern in the prover's registry.
func (p *Prover) StorePattern(name string, cc *CompiledPattern) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.patterns[name] = cc
}

// GetPattern returns a compiled pattern by name.
func (p *Prover) GetPattern(name string) (*CompiledPattern, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cc, ok := p.patterns[name]
	return cc, ok
}

// ListPatterns returns all registered pattern names.
func (p *Prover) ListPatterns() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.patterns))
	for name := range p.patterns {
		names = append(names, name)
	}
	return names
}

// Prove generates a Groth16 proof that input matches the named pattern.
// The input never leaves the secret witness; a failed match surfaces as
// an AssignmentError before any proving work starts.
func (p *Prover) Prove(name, input string) (*ProofResult, error) {
	p.mu.RLock()
	cc, ok := p.patterns[name]
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("pattern %q not registered", name)
	}

	ra, err := cc.Shape.AssignWitness(input)
	if err != nil {
		return nil, &AssignmentError{Pattern: name, Err: err}
	}

	fullWitness, err := frontend.NewWitness(circuit.NewGridAssignment(cc.Shape, ra), p.curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}

	proof, err := groth16.Prove(cc.CS, cc.ProvingKey, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}

	publicWitness, err := fullWitness.Public()
	if err != nil {
		return nil, fmt.Errorf("public witness extraction failed: %w", err)
	}

	result, err := proofToSolidity(proof, publicWitness, cc)
	if err != nil {
		return nil, fmt.Errorf("proof conversion failed: %w", err)
	}

	return result, nil
}

// Verify proves and verifies locally that input matches the named pattern.
func (p *Prover) Verify(name, input string) error {
	p.mu.RLock()
	cc, ok := p.patterns[name]
	p.mu.RUnlock()

	if !ok {
		return fmt.Errorf("pattern %q not registered", name)
	}

	ra, err := cc.Shape.AssignWitness(input)
	if err != nil {
		return &AssignmentError{Pattern: name, Err: err}
	}

	fullWitness, err := frontend.NewWitness(circuit.NewGridAssignment(cc.Shape, ra), p.curve.ScalarField())
	if err != nil {
		return fmt.Errorf("witness creation failed: %w", err)
	}

	proof, err := groth16.Prove(cc.CS, cc.ProvingKey, fullWitness)
	if err != nil {
		return fmt.Errorf("proof generation failed: %w", err)
	}

	publicWitness, err := fullWitness.Public()
	if err != nil {
		return fmt.Errorf("public witness extraction failed: %w", err)
	}

	return groth16.Verify(proof, cc.VerifyingKey, publicWitness)
}

// proofToSolidity converts a gnark proof to Solidity-compatible format.
func proofToSolidity(proof groth16.Proof, publicWitness witness.Witness, cc *CompiledPattern) (*ProofResult, error) {
	result := &ProofResult{
		Pattern:     cc.Name,
		Constraints: cc.Constraints,
	}

	pubBytes, err := publicWitness.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal public witness: %w", err)
	}

	// Parse public inputs (each is 32 bytes for BN254). Skip the 12-byte
	// header: nb public, nb secret, vector length, each a big-endian uint32.
	const headerSize = 12
	const elementSize = 32

	if len(pubBytes) >= headerSize {
		data := pubBytes[headerSize:]
		numElements := len(data) / elementSize
		result.PublicInputs = make([]string, numElements)

		for i := 0; i < numElements; i++ {
			start := i * elementSize
			end := start + elementSize
			if end <= len(data) {
				val := new(big.Int).SetBytes(data[start:end])
				result.PublicInputs[i] = fmt.Sprintf("0x%064x", val)
			}
		}
	}

	// Extract proof points using WriteTo interface
	var proofBuf bytes.Buffer
	if _, err := proof.WriteTo(&proofBuf); err != nil {
		return nil, fmt.Errorf("marshal proof: %w", err)
	}
	proofBytes := proofBuf.Bytes()

	// gnark may serialize either compressed (A 32 + B 64 + C 32) or
	// uncompressed (A 64 + B 128 + C 64) points.
	result.A[0] = big.NewInt(0)
	result.A[1] = big.NewInt(0)
	result.B[0][0] = big.NewInt(0)
	result.B[0][1] = big.NewInt(0)
	result.B[1][0] = big.NewInt(0)
	result.B[1][1] = big.NewInt(0)
	result.C[0] = big.NewInt(0)
	result.C[1] = big.NewInt(0)

	if len(proofBytes) >= 256 {
		// A point (G1): bytes 0-63
		result.A[0] = new(big.Int).SetBytes(proofBytes[0:32])
		result.A[1] = new(big.Int).SetBytes(proofBytes[32:64])

		// B point (G2): bytes 64-191
		result.B[0][0] = new(big.Int).SetBytes(proofBytes[64:96])
		result.B[0][1] = new(big.Int).SetBytes(proofBytes[96:128])
		result.B[1][0] = new(big.Int).SetBytes(proofBytes[128:160])
		result.B[1][1] = new(big.Int).SetBytes(proofBytes[160:192])

		// C point (G1): bytes 192-255
		result.C[0] = new(big.Int).SetBytes(proofBytes[192:224])
		result.C[1] = new(big.Int).SetBytes(proofBytes[224:256])
	} else if len(proofBytes) >= 128 {
		// Compressed: real use would decompress before L1 submission.
		result.A[0] = new(big.Int).SetBytes(proofBytes[0:32])
		result.B[0][0] = new(big.Int).SetBytes(proofBytes[32:64])
		result.B[0][1] = new(big.Int).SetBytes(proofBytes[64:96])
		result.C[0] = new(big.Int).SetBytes(proofBytes[96:128])
	}

	result.RawProof = []*big.Int{
		result.A[0], result.A[1],
		result.B[0][0], result.B[0][1],
		result.B[1][0], result.B[1][1],
		result.C[0], result.C[1],
	}

	return result, nil
}

// ExportVerifier exports the Solidity verifier for a pattern.
func (p *Prover) ExportVerifier(name string) (string, error) {
	p.mu.RLock()
	cc, ok := p.patterns[name]
	p.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("pattern %q not registered", name)
	}

	var buf []byte
	w := &byteWriter{buf: &buf}
	err := cc.VerifyingKey.ExportSolidity(w)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	return string(buf), nil
}

// byteWriter is a simple io.Writer that appends to a byte slice.
type byteWriter struct {
	buf *[]byte
}

func (w *byteWriter) Write(p []byte) (n int, err error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

// ============ Parallel Proving ============

// ProofJob represents a proof generation job.
type ProofJob struct {
	ID      int
	Pattern string
	Input   string
}

// ProofJobResult is the result of a proof generation job.
type ProofJobResult struct {
	ID     int
	Proof  *ProofResult
	Error  error
	TimeMs int64
}

// ProveParallel generates multiple proofs concurrently.
// The number of concurrent workers is limited by maxWorkers.
// Results are returned in the same order as the input jobs.
func (p *Prover) ProveParallel(jobs []ProofJob, maxWorkers int) []ProofJobResult {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	numJobs := len(jobs)
	results := make([]ProofJobResult, numJobs)

	jobChan := make(chan ProofJob, numJobs)
	resultChan := make(chan ProofJobResult, numJobs)

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				start := time.Now()
				proof, err := p.Prove(job.Pattern, job.Input)
				resultChan <- ProofJobResult{
					ID:     job.ID,
					Proof:  proof,
					Error:  err,
					TimeMs: time.Since(start).Milliseconds(),
				}
			}
		}()
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for result := range resultChan {
		results[result.ID] = result
	}

	return results
}

// ProofPool manages a pool of proof workers for continuous proving.
type ProofPool struct {
	prover     *Prover
	jobs       chan ProofJob
	results    chan ProofJobResult
	numWorkers int
	wg         sync.WaitGroup
	closed     bool
	mu         sync.Mutex
}

// NewProofPool creates a new proof worker pool.
func NewProofPool(prover *Prover, numWorkers int) *ProofPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}

	pool := &ProofPool{
		prover:     prover,
		jobs:       make(chan ProofJob, numWorkers*2),
		results:    make(chan ProofJobResult, numWorkers*2),
		numWorkers: numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

func (pool *ProofPool) worker() {
	defer pool.wg.Done()
	for job := range pool.jobs {
		start := time.Now()
		proof, err := pool.prover.Prove(job.Pattern, job.Input)
		pool.results <- ProofJobResult{
			ID:     job.ID,
			Proof:  proof,
			Error:  err,
			TimeMs: time.Since(start).Milliseconds(),
		}
	}
}

// Submit adds a proof job to the pool.
func (pool *ProofPool) Submit(job ProofJob) error {
	pool.mu.Lock()
	if pool.closed {
		pool.mu.Unlock()
		return fmt.Errorf("pool is closed")
	}
	pool.mu.Unlock()

	pool.jobs <- job
	return nil
}

// Results returns the channel for receiving proof results.
func (pool *ProofPool) Results() <-chan ProofJobResult {
	return pool.results
}

// Close shuts down the proof pool.
func (pool *ProofPool) Close() {
	pool.mu.Lock()
	pool.closed = true
	pool.mu.Unlock()

	close(pool.jobs)
	pool.wg.Wait()
	close(pool.results)
}

// NumWorkers returns the number of workers in the pool.
func (pool *ProofPool) NumWorkers() int {
	return pool.numWorkers
}
