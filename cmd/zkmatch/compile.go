package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/zkmatch-xyz/go-zkmatch/circuit"
)

func compile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	buildConfig := configFlags(fs)
	outputJSON := fs.Bool("json", false, "Output shape stats as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zkmatch compile <pattern> --max-len N [options]

Compile a pattern into its circuit shape and print layout and gate stats.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Three lowercase letters then two digits
  zkmatch compile '[a-z]{3}[0-9]{2}' --max-len 5

  # Bounded repetition via quantifier bounds
  zkmatch compile 'x[a-f]+' --max-len 4 --bound '+=1,3'

  # Machine-readable stats
  zkmatch compile '[0-9]{4}' --max-len 4 --json
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("pattern required")
	}

	shape, err := circuit.Compile(fs.Arg(0), buildConfig())
	if err != nil {
		return err
	}

	if *outputJSON {
		out := map[string]any{
			"pattern":    shape.Pattern,
			"digest":     fmt.Sprintf("0x%x", shape.Digest),
			"rows":       shape.Layout.Rows,
			"columns":    shape.Layout.NumColumns,
			"sections":   len(shape.Sections),
			"gates":      shape.Stats.Gates,
			"max_degree": shape.Stats.MaxDegree,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Pattern: %s\n", shape.Pattern)
	fmt.Printf("Digest:  0x%x\n", shape.Digest)
	fmt.Println()
	fmt.Println("Sections:")
	for i, sec := range shape.Sections {
		rng := shape.Layout.Ranges[i]
		fmt.Printf("  %d: %s rows [%d,%d)\n", i, sec.String(), rng.Start, rng.End)
	}
	fmt.Println()
	fmt.Println(shape.Stats.String())
	return nil
}
