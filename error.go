package peblar

import (
	"errors"
	"fmt"
)

// error kinds, test them with errors.Is.
var (
	// ErrUnsupportedOperation the register has no decoder (read) or encoder (write),
	// or a write targets a read-only band.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrOutOfRange the address does not fall in any band.
	ErrOutOfRange = errors.New("address out of range")
	// ErrNotImplemented the band is recognized but not supported (discrete input).
	ErrNotImplemented = errors.New("not implemented")
	// ErrReadFailed the transport returned no data or a failure.
	ErrReadFailed = errors.New("read failed")
	// ErrWriteFailed the transport reported a failed write.
	ErrWriteFailed = errors.New("write failed")
	// ErrDecodeFault wire data violated a domain constraint.
	ErrDecodeFault = errors.New("decode fault")
	// ErrEncodeFault the value can not be represented by the encoder.
	ErrEncodeFault = errors.New("encode fault")
)

// RegisterError records a failed register operation.
type RegisterError struct {
	Op       string // "read" or "write"
	Register string // catalog name, empty for an unnamed spec
	Address  uint16
	Err      error
}

func (e *RegisterError) Error() string {
	if e.Register == "" {
		return fmt.Sprintf("peblar: %s %d: %v", e.Op, e.Address, e.Err)
	}
	return fmt.Sprintf("peblar: %s %s(%d): %v", e.Op, e.Register, e.Address, e.Err)
}

func (e *RegisterError) Unwrap() error { return e.Err }

// decodeFault wraps a codec violation in ErrDecodeFault.
func decodeFault(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDecodeFault, fmt.Sprintf(format, v...))
}

// encodeFault wraps an unrepresentable value in ErrEncodeFault.
func encodeFault(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrEncodeFault, fmt.Sprintf(format, v...))
}
