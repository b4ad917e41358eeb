package pipeline

import "fmt"

// UpstreamError is a model call failure that aborted a run. Index is the
// perspective index for fan-out stages and -1 otherwise.
type UpstreamError struct {
	Stage string
	Index int
	Err   error
}

func (e *UpstreamError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s #%d: %v", e.Stage, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
