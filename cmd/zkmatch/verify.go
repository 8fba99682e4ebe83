package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zkmatch-xyz/go-zkmatch/circuit"
	"github.com/zkmatch-xyz/go-zkmatch/prover"
)

func verify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	buildConfig := configFlags(fs)
	keyDir := fs.String("key-dir", "", "Directory for persisted setup keys (reused across runs)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zkmatch verify <pattern> <input> --max-len N [options]

Generate a proof and verify it against the verifying key in one step.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  zkmatch verify '[0-9]{4}' 1234 --max-len 4
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

	if err := p.Verify(expr, input); err != nil {
		return err
	}

	fmt.Printf("Verified: proof of match for %s (digest 0x%x)\n", expr, shape.Digest)
	return nil
}
