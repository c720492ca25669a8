package signal

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyRecording = errors.New("recording has no samples")
	ErrLengthMismatch = errors.New("channel length does not match time axis")
)

// DataFormatError reports an unusable recording. It is fatal at load time.
type DataFormatError struct {
	Source string
	Line   int // 1-based, 0 when not tied to a row
	Column int // 0-based, -1 when not tied to a column
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	msg := fmt.Sprintf("data format error in %s", e.Source)
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Column >= 0 {
		msg += fmt.Sprintf(" column %d", e.Column)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataFormatError) Unwrap() error {
	return e.Err
}

// IsDataFormat reports whether err is, or wraps, a DataFormatError.
func IsDataFormat(err error) bool {
	var dfe *DataFormatError
	return errors.As(err, &dfe)
}
