package prover

import "fmt"

// AssignmentError wraps a witness assignment failure for a registered
// pattern. The offending input is deliberately not recorded: inputs are
// secret witness material and must not leak into logs or API responses.
type AssignmentError struct {
	Pattern string
	Err     error
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("witness assignment for pattern %q failed: %v", e.Pattern, e.Err)
}

func (e *AssignmentError) Unwrap() error {
	return e.Err
}
