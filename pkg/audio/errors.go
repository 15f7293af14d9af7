// ABOUTME: Audio buffer error types
// ABOUTME: Reports out-of-range sample positions that were clamped
package audio

import "fmt"

// InvalidRangeError reports a position or range outside [0, Total].
// It arises from routine boundary gestures, so callers clamp and continue.
type InvalidRangeError struct {
	Start int
	End   int
	Total int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("range [%d, %d) outside buffer of %d samples", e.Start, e.End, e.Total)
}
