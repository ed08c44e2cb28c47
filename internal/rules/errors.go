package rules

import "fmt"

// ConfigurationError reports a missing or invalid rule table. Fatal: the
// engine refuses to run with a taxonomy it cannot trust.
type ConfigurationError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rule table %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("rule table %s: %s", e.Source, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
