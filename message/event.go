package message

import "fmt"

// Event is one decoded channel voice message. Data2 is only meaningful when
// HasData2 is set, which is exactly the case for kinds with two data bytes.
type Event struct {
	Kind     Kind
	Channel  uint8
	Data1    byte
	Data2    byte
	HasData2 bool
}

// Decode builds an Event from buf, whose first byte is the status byte.
// Bytes beyond the ones the kind requires are ignored. An Unknown status
// yields the zero Event regardless of the remaining content.
func Decode(buf []byte) (Event, error) {
	if len(buf) == 0 {
		return Event{}, fmt.Errorf("%w: empty", ErrMalformedBuffer)
	}

	kind, ch := Classify(buf[0])
	n := kind.DataLen()
	if len(buf) < 1+n {
		return Event{}, fmt.Errorf("%w: %s needs %d data bytes, got %d", ErrMalformedBuffer, kind, n, len(buf)-1)
	}

	ev := Event{Kind: kind, Channel: ch}
	if n > 0 {
		ev.Data1 = buf[1]
	}
	if n > 1 {
		ev.Data2 = buf[2]
		ev.HasData2 = true
	}
	return ev, nil
}

// Value2 returns the second data byte and whether it is present.
func (e Event) Value2() (byte, bool) {
	return e.Data2, e.HasData2
}

// Bend returns the signed 14 bit pitch bend value, centered on 0.
// It returns 0 for any other kind.
func (e Event) Bend() int {
	if e.Kind != PitchBend {
		return 0
	}
	return (int(e.Data1&0x7F) | int(e.Data2&0x7F)<<7) - 8192
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOff, NoteOn:
		return fmt.Sprintf("%s channel %d key %d velocity %d", e.Kind, e.Channel, e.Data1, e.Data2)
	case AfterTouch:
		return fmt.Sprintf("%s channel %d key %d pressure %d", e.Kind, e.Channel, e.Data1, e.Data2)
	case ControllerValue:
		return fmt.Sprintf("%s channel %d controller %d value %d", e.Kind, e.Channel, e.Data1, e.Data2)
	case ProgramChange:
		return fmt.Sprintf("%s channel %d preset %d", e.Kind, e.Channel, e.Data1)
	case ChannelPressure:
		return fmt.Sprintf("%s channel %d pressure %d", e.Kind, e.Channel, e.Data1)
	case PitchBend:
		return fmt.Sprintf("%s channel %d fine %d coarse %d (%d)", e.Kind, e.Channel, e.Data1, e.Data2, e.Bend())
	default:
		return e.Kind.String()
	}
}
