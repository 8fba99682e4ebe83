package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zkmatch-xyz/go-zkmatch/circuit"
	"github.com/zkmatch-xyz/go-zkmatch/proofstore"
	"github.com/zkmatch-xyz/go-zkmatch/prover"
)

func prove(args []string) error {
	fs := flag.NewFlagSet("prove", flag.ExitOnError)
	buildConfig := configFlags(fs)
	keyDir := fs.String("key-dir", "", "Directory for persisted setup keys (reused across runs)")
	storePath := fs.String("store", "", "SQLite database to record the proof in")
	outputFile := fs.String("output", "", "Write the proof JSON to file instead of stdout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zkmatch prove <pattern> <input> --max-len N [options]

Generate a Groth16 proof that the input matches the pattern. The input
stays in the secret witness; the proof exposes only the pattern digest.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # One-off proof
  zkmatch prove '[0-9]{4}' 1234 --max-len 4

  # Reuse setup keys and record the proof
  zkmatch prove '[0-9]{4}' 1234 --max-len 4 --key-dir keys --store proofs.db
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("pattern and input required")
	}
	expr, input := fs.Arg(0), fs.Arg(1)

	shape, err := circuit.Compile(expr, buildConfig())
	if err != nil {
		return err
	}

	var p *prover.Prover
	if *keyDir != "" {
		p = prover.NewProverWithKeyDir(*keyDir)
		if _, err := p.LoadOrCompile(expr, shape); err != nil {
			return err
		}
	} else {
		p = prover.NewProver()
		if err := p.RegisterPattern(expr, shape); err != nil {
			return err
		}
	}

	start := time.Now()
	result, err := p.Prove(expr, input)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Fprintf(os.Stderr, "Proof generated in %s (%d constraints)\n", elapsed, result.Constraints)

	if *storePath != "" {
		store, err := proofstore.New(*storePath)
		if err != nil {
			return err
		}
		defer store.Close()
		rec, err := store.SaveProof(context.Background(), result, expr, shape.Digest, elapsed.Milliseconds())
		if err != nil {
			return fmt.Errorf("store proof: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Stored as %s\n", rec.ID)
	}

	out := os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
