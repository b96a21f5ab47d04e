package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDiscriminant  = errors.New("protocol: unknown discriminant")
	ErrTruncated            = errors.New("protocol: truncated data")
	ErrLengthPrefixOverflow = errors.New("protocol: length prefix overflow")
	ErrInvalidDirection     = errors.New("protocol: invalid direction")
	ErrNilPayload           = errors.New("protocol: nil payload")
)

// UnknownDiscriminantError reports a discriminant with no variant in the
// direction's taxonomy.
type UnknownDiscriminantError struct {
	Direction Direction
	Value     uint32
}

func (e *UnknownDiscriminantError) Error() string {
	return fmt.Sprintf("protocol: unknown %s discriminant %d", e.Direction, e.Value)
}

func (e *UnknownDiscriminantError) Unwrap() error { return ErrUnknownDiscriminant }

// TruncatedError reports a field that runs past the end of the buffer.
type TruncatedError struct {
	Expected  int
	Remaining int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("protocol: truncated data: need %d bytes, have %d", e.Expected, e.Remaining)
}

func (e *TruncatedError) Unwrap() error { return ErrTruncated }

// LengthPrefixOverflowError is returned by Encode when a variable-length
// field does not fit its length prefix.
type LengthPrefixOverflowError struct {
	Field string
	Len   int
	Max   int
}

func (e *LengthPrefixOverflowError) Error() string {
	return fmt.Sprintf("protocol: %s length %d exceeds prefix max %d", e.Field, e.Len, e.Max)
}

func (e *LengthPrefixOverflowError) Unwrap() error { return ErrLengthPrefixOverflow }
