package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zkmatch-xyz/go-zkmatch/circuit"
	"github.com/zkmatch-xyz/go-zkmatch/prover"
)

func verifier(args []string) error {
	fs := flag.NewFlagSet("verifier", flag.ExitOnError)
	buildConfig := configFlags(fs)
	keyDir := fs.String("key-dir", "", "Directory for persisted setup keys (reused across runs)")
	outputFile := fs.String("output", "", "Write the Solidity verifier to file instead of stdout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zkmatch verifier <pattern> --max-len N [options]

Export the Solidity verifier contract for a pattern. On-chain callers can
check match proofs against the pattern digest without seeing inputs.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  zkmatch verifier '[0-9]{4}' --max-len 4 --output PinVerifier.sol
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("pattern required")
	}
	expr := fs.Arg(0)

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

	solidity, err := p.ExportVerifier(expr)
	if err != nil {
		return err
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(solidity), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s (%d bytes)\n", *outputFile, len(solidity))
		return nil
	}
	fmt.Print(solidity)
	return nil
}
