package mailauth

import "errors"

var (
	ErrMalformedMessage = errors.New("mailauth: malformed message header")
	ErrMalformedReport  = errors.New("mailauth: malformed report")
)
