package ir

import "fmt"

// MalformedInputError reports an unreadable or corrupt artifact. It is
// fatal: the run aborts rather than analyzing a partial module.
type MalformedInputError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed input %s: %s", e.Path, e.Reason)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }
