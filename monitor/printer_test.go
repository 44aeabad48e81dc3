package monitor

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type recordingRelay struct {
	mu   sync.Mutex
	msgs [][]byte
	err  error
}

func (r *recordingRelay) Broadcast(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, append([]byte(nil), data...))
	return nil
}

func TestHandlePrintsDecodedEvent(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, Options{Client: "midi-spliff", Logger: zerolog.Nop()})

	p.Handle("Keystep", 1200, []byte{0x91, 0x40, 0x7F})

	line := out.String()
	for _, want := range []string{"[midi-spliff] Keystep: ", "NoteOn", " channel 1 key 64 velocity 127 @ 1200 ", "91 40 7F"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q is missing %q", line, want)
		}
	}
	if s := p.Stats(); s.Decoded != 1 || s.Malformed != 0 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestHandleMalformedLogsAndContinues(t *testing.T) {
	var out, logBuf bytes.Buffer
	p := NewPrinter(&out, Options{Client: "midi-spliff", Logger: zerolog.New(&logBuf)})

	p.Handle("Keystep", 5, []byte{0x90})
	p.Handle("Keystep", 6, []byte{0xC3, 0x05})

	if !strings.Contains(logBuf.String(), "could not decode message") || !strings.Contains(logBuf.String(), `"data":"90"`) {
		t.Fatalf("expected per-message diagnostic, got %q", logBuf.String())
	}
	if strings.Count(out.String(), "\n") != 1 || !strings.Contains(out.String(), "ProgramChange") {
		t.Fatalf("expected only the valid message printed, got %q", out.String())
	}
	if s := p.Stats(); s.Malformed != 1 || s.Decoded != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestHandleHidesUnknown(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, Options{Client: "c", Logger: zerolog.Nop(), HideUnknown: true})

	p.Handle("Clock", 0, []byte{0xF8})
	if out.Len() != 0 {
		t.Fatalf("unknown message should be hidden, got %q", out.String())
	}

	p = NewPrinter(&out, Options{Client: "c", Logger: zerolog.Nop()})
	p.Handle("Clock", 0, []byte{0xF8})
	if !strings.Contains(out.String(), "Unknown") {
		t.Fatalf("unknown message should be printed, got %q", out.String())
	}
	if s := p.Stats(); s.Unknown != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestHandleRelaysRawBytes(t *testing.T) {
	relay := &recordingRelay{}
	var out bytes.Buffer
	p := NewPrinter(&out, Options{Client: "c", Logger: zerolog.Nop(), Relay: relay})

	p.Handle("Keys", 0, []byte{0xF0, 0x7E, 0xF7})
	p.Handle("Keys", 0, []byte{0x90})

	if len(relay.msgs) != 2 || !bytes.Equal(relay.msgs[0], []byte{0xF0, 0x7E, 0xF7}) {
		t.Fatalf("expected raw pass-through of every message, got %v", relay.msgs)
	}
	if s := p.Stats(); s.Relayed != 2 {
		t.Fatalf("unexpected stats: %+v", s)
	}

	relay.err = errors.New("port gone")
	p.Handle("Keys", 0, []byte{0x80, 0x3C, 0x00})
	if !strings.Contains(out.String(), "NoteOff") {
		t.Fatalf("relay failure must not stop printing: %q", out.String())
	}
}

func TestHandleConcurrentPorts(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, Options{Client: "c", Logger: zerolog.Nop()})

	var wg sync.WaitGroup
	for _, port := range []string{"A", "B", "C", "D"} {
		wg.Add(1)
		go func(port string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				p.Handle(port, int64(i), []byte{0xB0, byte(i), 0x01})
			}
		}(port)
	}
	wg.Wait()

	if n := strings.Count(out.String(), "\n"); n != 200 {
		t.Fatalf("expected 200 lines, got %d", n)
	}
	if s := p.Stats(); s.Decoded != 200 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestSetRelayAfterConstruction(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, Options{Client: "c", Logger: zerolog.Nop()})

	p.Handle("Keys", 0, []byte{0x90, 0x40, 0x7F})
	relay := &recordingRelay{}
	p.SetRelay(relay)
	p.Handle("Keys", 1, []byte{0x80, 0x40, 0x00})
	p.SetRelay(nil)
	p.Handle("Keys", 2, []byte{0xC0, 0x01})

	if len(relay.msgs) != 1 || !bytes.Equal(relay.msgs[0], []byte{0x80, 0x40, 0x00}) {
		t.Fatalf("expected only the message handled while the relay was set, got %v", relay.msgs)
	}
	if s := p.Stats(); s.Relayed != 1 || s.Decoded != 3 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}
