package message

import "errors"

// ErrMalformedBuffer is returned when a buffer is empty or shorter than its
// kind requires.
var ErrMalformedBuffer = errors.New("message: malformed buffer")
