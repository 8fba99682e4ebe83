package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "compile":
		if err := compile(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "match":
		if err := match(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "prove":
		if err := prove(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "verify":
		if err := verify(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "verifier":
		if err := verifier(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "serve":
		if err := serve(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("zkmatch version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`zkmatch - zero-knowledge pattern matching toolkit

Usage:
  zkmatch <command> [options]

Commands:
  compile    Compile a pattern into a circuit shape and show its stats
  match      Check an input against a compiled pattern (no proving)
  prove      Generate a Groth16 proof that an input matches a pattern
  verify     Prove and verify locally in one step
  verifier   Export the Solidity verifier for a pattern
  serve      Run the HTTP proving service
  help       Show this help message
  version    Show version information

Examples:
  # Inspect the circuit for a pattern
  zkmatch compile '[a-z]{3}[0-9]{2}' --max-len 5

  # Dry-run the matcher
  zkmatch match '[a-z]{3}[0-9]{2}' abc42 --max-len 5

  # Generate a proof and store it
  zkmatch prove '[0-9]{4}' 1234 --max-len 4 --store proofs.db

  # Serve registered patterns over HTTP
  zkmatch serve --patterns patterns.json --addr :8080

For command-specific help, run:
  zkmatch <command> --help`)
}
