package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/zkmatch-xyz/go-zkmatch/circuit"
	"github.com/zkmatch-xyz/go-zkmatch/pattern"
	"github.com/zkmatch-xyz/go-zkmatch/prover"
)

// patternSpec is one entry in the --patterns registry file.
type patternSpec struct {
	Name           string           `json:"name"`
	Pattern        string           `json:"pattern"`
	MaxLen         int              `json:"max_len"`
	RangeThreshold int              `json:"range_threshold,omitempty"`
	Bounds         map[string][]int `json:"bounds,omitempty"`
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "Listen address")
	patternsFile := fs.String("patterns", "", "JSON file with the patterns to register (required)")
	keyDir := fs.String("key-dir", "", "Directory for persisted setup keys (reused across restarts)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zkmatch serve --patterns <patterns.json> [options]

Run the HTTP proving service. Endpoints:

  GET  /health              service status and registered patterns
  GET  /patterns            pattern metadata
  GET  /patterns/{name}     single pattern metadata
  POST /prove/{name}        {"input": "..."} -> proof
  GET  /verifier/{name}     Solidity verifier export

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Patterns file format:
  [
    {"name": "pin", "pattern": "[0-9]{4}", "max_len": 4},
    {"name": "tag", "pattern": "x[a-f]+", "max_len": 4, "bounds": {"+": [1, 3]}}
  ]
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *patternsFile == "" {
		fs.Usage()
		return fmt.Errorf("patterns file required")
	}

	data, err := os.ReadFile(*patternsFile)
	if err != nil {
		return fmt.Errorf("read patterns: %w", err)
	}
	var specs []patternSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return fmt.Errorf("parse patterns: %w", err)
	}
	if len(specs) == 0 {
		return fmt.Errorf("no patterns in %s", *patternsFile)
	}

	var p *prover.Prover
	if *keyDir != "" {
		p = prover.NewProverWithKeyDir(*keyDir)
	} else {
		p = prover.NewProver()
	}

	for _, spec := range specs {
		cfg := pattern.NewConfig(spec.MaxLen)
		if spec.RangeThreshold > 0 {
			cfg.RangeCheckThreshold = spec.RangeThreshold
		}
		for sym, b := range spec.Bounds {
			if len(b) != 2 {
				return fmt.Errorf("pattern %q: bound %q wants [min, max]", spec.Name, sym)
			}
			cfg = cfg.WithBound(sym, b[0], b[1])
		}

		shape, err := circuit.Compile(spec.Pattern, cfg)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", spec.Name, err)
		}

		if *keyDir != "" {
			_, err = p.LoadOrCompile(spec.Name, shape)
		} else {
			err = p.RegisterPattern(spec.Name, shape)
		}
		if err != nil {
			return fmt.Errorf("pattern %q: %w", spec.Name, err)
		}

		slog.Info("Pattern registered",
			"name", spec.Name,
			"pattern", spec.Pattern,
			"rows", shape.Layout.Rows,
			"gates", shape.Stats.Gates,
		)
	}

	service := prover.NewService(p)
	slog.Info("Proving service listening", "addr", *addr, "patterns", len(specs))
	return http.ListenAndServe(*addr, service.Handler())
}
