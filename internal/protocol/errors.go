package protocol

import "errors"

var (
	ErrMalformedElement = errors.New("protocol: malformed element")
	ErrEmptyElement     = errors.New("protocol: empty element")
	ErrTrailingData     = errors.New("protocol: trailing data after element")
	ErrMissingTag       = errors.New("protocol: element tag required")
)
