package obsio

import "fmt"

// LengthError reports a length prefix that exceeds the caller's bound.
// It usually means the stream is corrupt or misaligned.
type LengthError struct {
	Got int
	Max int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("obsio: length prefix %d exceeds limit %d", e.Got, e.Max)
}
