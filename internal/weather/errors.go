package weather

import (
	"fmt"
	"strings"
)

// ParseError reports a response body that is not valid JSON or lacks fields
// the transform depends on.
type ParseError struct {
	Missing []string
	Err     error
}

func (e *ParseError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("parse observation: missing required fields: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("parse observation: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingDataError reports a field that was present but carried no usable
// value, such as an empty condition list.
type MissingDataError struct {
	Field string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing data: %s is empty", e.Field)
}
