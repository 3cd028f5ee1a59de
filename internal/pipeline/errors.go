package pipeline

import (
	"fmt"

	"github.com/molscope/molscope/internal/lod"
)

// ValidationError rejects a structure before any synthesis is dispatched.
// No session exists when it is returned.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "structure rejected: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SynthesisError reports a geometry stage that failed after dispatch. The
// session keeps the last tier it delivered; the error exists for display,
// not recovery.
type SynthesisError struct {
	Session uint64
	Tier    lod.Tier
	Err     error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed at %s (session %d): %v", e.Tier, e.Session, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
