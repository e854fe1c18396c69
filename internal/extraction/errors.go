package extraction

import "fmt"

// InputError reports an analysis response that cannot be navigated
type InputError struct {
	Reason string
	Cause  error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid analysis response: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid analysis response: %s", e.Reason)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}
