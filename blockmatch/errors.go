package blockmatch

import "fmt"

// ParameterError reports a rejected block matcher parameter edit. The
// matcher's prior state is always preserved when one is returned.
type ParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid value %v for %s: %s", e.Value, e.Field, e.Reason)
}

func newParameterError(field string, value float64, reason string) error {
	return &ParameterError{Field: field, Value: value, Reason: reason}
}
