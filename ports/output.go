package ports

import (
	"sync"

	"gitlab.com/gomidi/midi"
)

func newOutput(name string, port midi.Out) *Output {
	return &Output{name: name, port: port, open: true}
}

// Output is an open output connection. Bytes written to it are passed to the
// port unchanged.
type Output struct {
	sync.RWMutex
	name    string
	port    midi.Out
	open    bool
	written uint64
}

// Name returns the registry key of the output.
func (o *Output) Name() string {
	return o.name
}

// IsOpen returns wether the connection is open
func (o *Output) IsOpen() (open bool) {
	o.RLock()
	open = o.open
	o.RUnlock()
	return
}

// Written returns the number of messages written so far.
func (o *Output) Written() (n uint64) {
	o.RLock()
	n = o.written
	o.RUnlock()
	return
}

// Write writes raw MIDI bytes to the output port.
// If the connection is closed, it returns midi.ErrPortClosed
func (o *Output) Write(b []byte) (int, error) {
	o.Lock()
	defer o.Unlock()
	if !o.open {
		return 0, midi.ErrPortClosed
	}
	n, err := o.port.Write(b)
	if err == nil {
		o.written++
	}
	return n, err
}

// Close closes the output port. Closing twice is a no-op.
func (o *Output) Close() error {
	o.Lock()
	defer o.Unlock()
	if !o.open {
		return nil
	}
	o.open = false
	return o.port.Close()
}
