package message

import (
	"bufio"
	"fmt"
	"io"
)

// Reader splits a raw byte stream into messages. A recognized status byte is
// followed by as many data bytes as its kind requires. Any other byte is
// returned on its own.
//
// Realtime bytes (0xF8-0xFF) may appear between a status byte and its data
// bytes. They are returned as single byte messages in stream order and do not
// count as data bytes of the message they interrupt.
type Reader struct {
	rd      *bufio.Reader
	pending []byte
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{rd: bufio.NewReader(r)}
}

func isRealtime(b byte) bool {
	return b >= 0xF8
}

// ReadMessage returns the next message. It returns io.EOF when the stream
// ends on a message boundary. When the stream ends inside a message, the
// bytes read so far are returned together with an error wrapping
// ErrMalformedBuffer.
func (r *Reader) ReadMessage() ([]byte, error) {
	if r.pending == nil {
		status, err := r.rd.ReadByte()
		if err != nil {
			return nil, err
		}
		kind, _ := Classify(status)
		if kind == Unknown {
			return []byte{status}, nil
		}
		r.pending = make([]byte, 1, 1+kind.DataLen())
		r.pending[0] = status
	}

	kind, _ := Classify(r.pending[0])
	for len(r.pending) < 1+kind.DataLen() {
		b, err := r.rd.ReadByte()
		if err != nil {
			partial := r.pending
			r.pending = nil
			if err == io.EOF {
				return partial, fmt.Errorf("%w: stream ended inside %s", ErrMalformedBuffer, kind)
			}
			return partial, err
		}
		if isRealtime(b) {
			return []byte{b}, nil
		}
		r.pending = append(r.pending, b)
	}

	msg := r.pending
	r.pending = nil
	return msg, nil
}
