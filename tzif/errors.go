package tzif

import (
	"errors"
	"fmt"

	"github.com/ngrash/tzoffset/internal/bytereader"
)

// ErrMalformed reports structurally invalid TZif data.
var ErrMalformed = errors.New("malformed tzif data")

// ErrTruncated reports data that ends before a complete file was read.
var ErrTruncated = bytereader.ErrTruncated

// FormatError describes why data was rejected. It matches ErrMalformed.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "tzif: " + e.Reason
}

func (e *FormatError) Unwrap() error {
	return ErrMalformed
}

func malformedf(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}
