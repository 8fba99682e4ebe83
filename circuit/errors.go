package circuit

import "fmt"

// LayoutOverflowError reports that the section capacities do not sum to the
// configured row budget. Compilation is terminal; the caller must adjust the
// row budget or the quantifier bounds.
type LayoutOverflowError struct {
	Capacity int
	Rows     int
}

func (e *LayoutOverflowError) Error() string {
	return fmt.Sprintf("circuit: section capacities sum to %d, row budget is %d", e.Capacity, e.Rows)
}

// EmptyAcceptedSetError reports a section whose accepted code-point set is
// empty: an unsatisfiable pattern fragment.
type EmptyAcceptedSetError struct {
	Section int
}

func (e *EmptyAcceptedSetError) Error() string {
	return fmt.Sprintf("circuit: section %d has an empty accepted set", e.Section)
}

// NoMatchError reports that the input diverged from the pattern: the named
// section consumed fewer characters than its minimum before the input
// position was rejected. Recoverable per input; the compiled shape stays
// valid.
type NoMatchError struct {
	Section int
	Pos     int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("circuit: no match for section %d at input position %d", e.Section, e.Pos)
}

// LengthMismatchError reports that matching finished without consuming
// exactly the row budget. Recoverable per input.
type LengthMismatchError struct {
	Rows     int
	Consumed int
	InputLen int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("circuit: consumed %d of %d input characters, row budget is %d",
		e.Consumed, e.InputLen, e.Rows)
}
