package utils

import "fmt"

// NoSPSError is returned when a buffer, record or description holds no usable
// sequence parameter set.
type NoSPSError struct {
	Source string
}

// Error returns the error message for NoSPSError.
func (e NoSPSError) Error() string {
	if e.Source == "" {
		return "No SPS found"
	}
	return fmt.Sprintf("No SPS found in %s", e.Source)
}

// NilPacketError represents an error indicating that provided packet is nil.
type NilPacketError struct {
}

// Error method implementation for NilPacketError.
func (NilPacketError) Error() string {
	return "nil packet"
}

// UnsupportedEncodingError is returned for an input encoding that is not understood.
type UnsupportedEncodingError struct {
	Encoding string
}

func (e UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("Unsupported encoding %q", e.Encoding)
}
