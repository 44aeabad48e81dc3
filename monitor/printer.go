// Package monitor turns messages received on input ports into console lines.
package monitor

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"gitlab.com/gomidi/midispliff/message"
)

// Broadcaster forwards raw bytes to the open outputs.
type Broadcaster interface {
	Broadcast(data []byte) error
}

type Options struct {
	Client      string
	Logger      zerolog.Logger
	Relay       Broadcaster // nil disables relaying
	HideUnknown bool
}

// Stats counts handled messages.
type Stats struct {
	Decoded   uint64
	Unknown   uint64
	Malformed uint64
	Relayed   uint64
}

// Printer decodes and prints every message it is handed. It is safe for
// concurrent use by the callbacks of several input ports.
type Printer struct {
	mu          sync.Mutex
	w           io.Writer
	client      string
	log         zerolog.Logger
	relay       Broadcaster
	hideUnknown bool
	labels      map[message.Kind]lipgloss.Style
	dim         lipgloss.Style
	stats       Stats
}

func NewPrinter(w io.Writer, opts Options) *Printer {
	r := lipgloss.NewRenderer(w)
	color := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	return &Printer{
		w:           w,
		client:      opts.Client,
		log:         opts.Logger,
		relay:       opts.Relay,
		hideUnknown: opts.HideUnknown,
		labels: map[message.Kind]lipgloss.Style{
			message.NoteOn:          color("42"),
			message.NoteOff:         color("34"),
			message.AfterTouch:      color("214"),
			message.ControllerValue: color("39"),
			message.ProgramChange:   color("171"),
			message.ChannelPressure: color("208"),
			message.PitchBend:       color("45"),
			message.Unknown:         color("241"),
		},
		dim: color("245"),
	}
}

// SetRelay sets the destination for raw pass-through. Nil disables relaying.
func (p *Printer) SetRelay(b Broadcaster) {
	p.mu.Lock()
	p.relay = b
	p.mu.Unlock()
}

// Handle has the signature of ports.Handler.
func (p *Printer) Handle(port string, deltaMicroseconds int64, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.relay != nil {
		if err := p.relay.Broadcast(data); err != nil {
			p.log.Warn().Err(err).Str("port", port).Msg("relay failed")
		} else {
			p.stats.Relayed++
		}
	}

	ev, err := message.Decode(data)
	if err != nil {
		p.stats.Malformed++
		p.log.Warn().Err(err).Str("port", port).Hex("data", data).Int64("stamp", deltaMicroseconds).Msg("could not decode message")
		return
	}

	if ev.Kind == message.Unknown {
		p.stats.Unknown++
		if p.hideUnknown {
			return
		}
	} else {
		p.stats.Decoded++
	}

	fmt.Fprintln(p.w, p.format(port, deltaMicroseconds, data, ev))
}

func (p *Printer) format(port string, stamp int64, data []byte, ev message.Event) string {
	name := ev.Kind.String()
	detail := strings.TrimPrefix(ev.String(), name)
	return fmt.Sprintf("[%s] %s: %s%s @ %d %s",
		p.client, port, p.labels[ev.Kind].Render(name), detail, stamp,
		p.dim.Render(fmt.Sprintf("[% X]", data)))
}

func (p *Printer) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
