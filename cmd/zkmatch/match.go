package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zkmatch-xyz/go-zkmatch/circuit"
)

func match(args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	buildConfig := configFlags(fs)
	showRows := fs.Bool("rows", false, "Print the row assignment grid")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zkmatch match <pattern> <input> --max-len N [options]

Run the witness assigner without proving. Exits non-zero when the input
does not match.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  zkmatch match '[a-z]{3}[0-9]{2}' abc42 --max-len 5
  zkmatch match 'a[0-9]{2}b' a42b --max-len 4 --rows
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return fmt.Errorf("pattern and input required")
	}

	shape, err := circuit.Compile(fs.Arg(0), buildConfig())
	if err != nil {
		return err
	}

	ra, err := shape.AssignWitness(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("no match: %w", err)
	}

	fmt.Printf("Match: %q satisfies %s\n", fs.Arg(1), shape.Pattern)

	if *showRows {
		fmt.Println()
		fmt.Println("row  section  value  acc  done")
		for r, row := range ra.Rows {
			section := fmt.Sprintf("%d", row.Section)
			value := fmt.Sprintf("%q", row.Value)
			if row.Section < 0 {
				section = "-"
				value = "pad"
			}
			done := 0
			if ra.Done(r) {
				done = 1
			}
			fmt.Printf("%3d  %7s  %5s  %3d  %4d\n", r, section, value, ra.Acc(r), done)
		}
	}
	return nil
}
