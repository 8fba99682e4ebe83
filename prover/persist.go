package prover

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/zkmatch-xyz/go-zkmatch/circuit"
)

// SaveTo persists a compiled pattern's constraint system and keys to dir.
// Creates dir if it does not exist. Files written:
//
//	circuit.r1cs    — constraint system
//	proving.key     — proving key
//	verifying.key   — verifying key
//	circuit.hash    — SHA-256 of the constraint system (hex)
func (cc *CompiledPattern) SaveTo(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}

	if err := writeFile(filepath.Join(dir, "circuit.r1cs"), cc.CS); err != nil {
		return fmt.Errorf("save constraint system: %w", err)
	}
	if err := writeFile(filepath.Join(dir, "proving.key"), cc.ProvingKey); err != nil {
		return fmt.Errorf("save proving key: %w", err)
	}
	if err := writeFile(filepath.Join(dir, "verifying.key"), cc.VerifyingKey); err != nil {
		return fmt.Errorf("save verifying key: %w", err)
	}

	hash, err := hashConstraintSystem(cc.CS)
	if err != nil {
		return fmt.Errorf("hash constraint system: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "circuit.hash"), []byte(hash), 0o644); err != nil {
		return fmt.Errorf("save circuit hash: %w", err)
	}

	return nil
}

// LoadFrom loads a compiled pattern from dir. The curve must match what was
// used during setup (typically ecc.BN254 for Ethereum). The caller is
// responsible for reattaching the pattern shape; only the constraint system
// and keys live on disk.
func LoadFrom(dir string, curve ecc.ID) (*CompiledPattern, error) {
	cs := groth16.NewCS(curve)
	if err := readFile(filepath.Join(dir, "circuit.r1cs"), cs); err != nil {
		return nil, fmt.Errorf("load constraint system: %w", err)
	}

	pk := groth16.NewProvingKey(curve)
	if err := readFile(filepath.Join(dir, "proving.key"), pk); err != nil {
		return nil, fmt.Errorf("load proving key: %w", err)
	}

	vk := groth16.NewVerifyingKey(curve)
	if err := readFile(filepath.Join(dir, "verifying.key"), vk); err != nil {
		return nil, fmt.Errorf("load verifying key: %w", err)
	}

	return &CompiledPattern{
		CS:           cs,
		ProvingKey:   pk,
		VerifyingKey: vk,
		Constraints:  cs.GetNbConstraints(),
		PublicVars:   cs.GetNbPublicVariables(),
		PrivateVars:  cs.GetNbSecretVariables(),
	}, nil
}

// LoadOrCompile returns the compiled pattern for shape, reusing setup keys
// persisted under the prover's key directory when the constraint system
// hash matches. A stale or missing key set triggers a fresh setup which is
// then saved for the next run. Without a key directory this degrades to
// RegisterPattern.
func (p *Prover) LoadOrCompile(name string, shape *circuit.Compiled) (*CompiledPattern, error) {
	if p.keyDir == "" {
		cc, err := p.CompilePattern(name, shape)
		if err != nil {
			return nil, err
		}
		p.StorePattern(name, cc)
		return cc, nil
	}

	cs, err := frontend.Compile(p.curve.ScalarField(), r1cs.NewBuilder, circuit.NewGridCircuit(shape))
	if err != nil {
		return nil, fmt.Errorf("circuit compilation failed: %w", err)
	}
	hash, err := hashConstraintSystem(cs)
	if err != nil {
		return nil, fmt.Errorf("hash constraint system: %w", err)
	}

	dir := filepath.Join(p.keyDir, name)
	if saved, readErr := os.ReadFile(filepath.Join(dir, "circuit.hash")); readErr == nil && string(saved) == hash {
		cc, loadErr := LoadFrom(dir, p.curve)
		if loadErr == nil {
			cc.Name = name
			cc.Shape = shape
			p.StorePattern(name, cc)
			return cc, nil
		}
		// Corrupt key files fall through to regeneration.
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	cc := &CompiledPattern{
		Name:         name,
		Shape:        shape,
		CS:           cs,
		ProvingKey:   pk,
		VerifyingKey: vk,
		Constraints:  cs.GetNbConstraints(),
		PublicVars:   cs.GetNbPublicVariables(),
		PrivateVars:  cs.GetNbSecretVariables(),
	}
	if err := cc.SaveTo(dir); err != nil {
		return nil, err
	}
	p.StorePattern(name, cc)
	return cc, nil
}

func writeFile(path string, src io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = src.WriteTo(f)
	return err
}

func readFile(path string, dst io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = dst.ReadFrom(f)
	return err
}

// hashConstraintSystem returns a hex-encoded SHA-256 hash of the serialized
// constraint system. Used for cache invalidation when the circuit changes.
func hashConstraintSystem(cs constraint.ConstraintSystem) (string, error) {
	h := sha256.New()
	if _, err := cs.WriteTo(h); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
