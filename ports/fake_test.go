package ports

import (
	"errors"
	"sync"

	"gitlab.com/gomidi/midi"
)

var errFakeOpen = errors.New("fake: open refused")

type fakeDriver struct {
	ins     []midi.In
	outs    []midi.Out
	listErr error
}

func (d *fakeDriver) Ins() ([]midi.In, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.ins, nil
}

func (d *fakeDriver) Outs() ([]midi.Out, error) {
	return d.outs, nil
}

func (d *fakeDriver) String() string { return "fake" }
func (d *fakeDriver) Close() error   { return nil }

type fakeIn struct {
	mu       sync.Mutex
	number   int
	name     string
	open     bool
	openErr  error
	listener func([]byte, int64)
}

func (f *fakeIn) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	return nil
}

func (f *fakeIn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return nil
}

func (f *fakeIn) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeIn) Number() int             { return f.number }
func (f *fakeIn) String() string          { return f.name }
func (f *fakeIn) Underlying() interface{} { return nil }

func (f *fakeIn) SetListener(fn func(data []byte, deltaMicroseconds int64)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = fn
	return nil
}

func (f *fakeIn) StopListening() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = nil
	return nil
}

// deliver simulates the driver invoking the listener.
func (f *fakeIn) deliver(data []byte, delta int64) bool {
	f.mu.Lock()
	fn := f.listener
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(data, delta)
	return true
}

func (f *fakeOut) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

type fakeOut struct {
	mu      sync.Mutex
	number  int
	name    string
	open    bool
	openErr error
	writes  [][]byte
	loop    *fakeIn // receives every write, like a through port
}

func (f *fakeOut) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	return nil
}

func (f *fakeOut) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	return nil
}

func (f *fakeOut) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeOut) Number() int             { return f.number }
func (f *fakeOut) String() string          { return f.name }
func (f *fakeOut) Underlying() interface{} { return nil }

func (f *fakeOut) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := append([]byte(nil), b...)
	f.writes = append(f.writes, msg)
	if f.loop != nil {
		go f.loop.deliver(msg, 0)
	}
	return len(b), nil
}
