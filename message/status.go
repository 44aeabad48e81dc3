// Package message decodes MIDI channel voice messages from raw wire bytes.
//
// Only the seven channel voice kinds are recognized. System exclusive,
// system common and realtime status bytes, as well as stray data bytes,
// classify as Unknown. Running status is not supported: every buffer
// must start with its status byte.
package message

// Kind is the message kind encoded in the high nibble of a status byte.
type Kind uint8

const (
	Unknown Kind = iota
	NoteOff
	NoteOn
	AfterTouch
	ControllerValue
	ProgramChange
	ChannelPressure
	PitchBend
)

/*
----------------------------------------------------------------------------------
Status    Byte 1    Byte 2    Message           Legend
----------------------------------------------------------------------------------
1000nnnn  0kkkkkkk  0vvvvvvv  Note Off          n=channel k=key v=velocity
1001nnnn  0kkkkkkk  0vvvvvvv  Note On           n=channel k=key v=velocity
1010nnnn  0kkkkkkk  0ppppppp  AfterTouch        n=channel k=key p=pressure
1011nnnn  0ccccccc  0vvvvvvv  Controller Value  n=channel c=controller v=value
1100nnnn  0ppppppp  [none]    Program Change    n=channel p=preset
1101nnnn  0ppppppp  [none]    Channel Pressure  n=channel p=pressure
1110nnnn  0fffffff  0ccccccc  Pitch Bend        n=channel c=coarse f=fine (14 bit)
----------------------------------------------------------------------------------
*/

// kinds is indexed by the high nibble of the status byte.
var kinds = [16]Kind{
	0x8: NoteOff,
	0x9: NoteOn,
	0xA: AfterTouch,
	0xB: ControllerValue,
	0xC: ProgramChange,
	0xD: ChannelPressure,
	0xE: PitchBend,
}

// dataLens is indexed by Kind.
var dataLens = [...]int{
	Unknown:         0,
	NoteOff:         2,
	NoteOn:          2,
	AfterTouch:      2,
	ControllerValue: 2,
	ProgramChange:   1,
	ChannelPressure: 1,
	PitchBend:       2,
}

var names = [...]string{
	Unknown:         "Unknown",
	NoteOff:         "NoteOff",
	NoteOn:          "NoteOn",
	AfterTouch:      "AfterTouch",
	ControllerValue: "ControllerValue",
	ProgramChange:   "ProgramChange",
	ChannelPressure: "ChannelPressure",
	PitchBend:       "PitchBend",
}

// Classify returns the kind and channel of the status byte b.
// Every byte maps to a result; for Unknown the channel is always 0.
func Classify(b byte) (Kind, uint8) {
	k := kinds[b>>4]
	if k == Unknown {
		return Unknown, 0
	}
	return k, b & 0x0F
}

// DataLen returns the number of data bytes following the status byte.
func (k Kind) DataLen() int {
	if int(k) >= len(dataLens) {
		return 0
	}
	return dataLens[k]
}

// HasData2 reports whether messages of this kind carry a second data byte.
func (k Kind) HasData2() bool {
	return k.DataLen() == 2
}

func (k Kind) String() string {
	if int(k) >= len(names) {
		return names[Unknown]
	}
	return names[k]
}
