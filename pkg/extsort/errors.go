package extsort

import "errors"

var (
	// ErrNoInput is returned when the input file does not exist.
	ErrNoInput = errors.New("input file does not exist")

	// ErrUnknownCodec is returned for a chunk codec name that is not registered.
	ErrUnknownCodec = errors.New("unknown chunk codec")
)
