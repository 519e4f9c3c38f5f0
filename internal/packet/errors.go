package packet

import "fmt"

// BufferTooSmallError is returned when the caller's buffer cannot hold the
// frame a strategy was asked to build (spec.md §4.4 Errors).
type BufferTooSmallError struct {
	Need int
	Got  int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("buffer too small: need %d bytes, got %d", e.Need, e.Got)
}

// FamilyMismatchError is returned when a strategy is invoked against a
// target whose address family it cannot serve. Per spec.md §7 this "should
// be impossible after C5 pruning" — it exists as a bug-bucket signal, not a
// path any correctly wired caller should hit.
type FamilyMismatchError struct {
	Kind   string
	Family string
}

func (e *FamilyMismatchError) Error() string {
	return fmt.Sprintf("protocol family mismatch: %s cannot target %s", e.Kind, e.Family)
}
