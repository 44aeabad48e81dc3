// Package ports opens MIDI input and output ports and keeps the open
// connections in a Registry owned by the caller.
package ports

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/gomidi/midi"
)

// Handler receives every message delivered on an input port. It is called
// from the driver's callback context, concurrently across ports.
type Handler func(port string, deltaMicroseconds int64, data []byte)

type Options struct {
	Filter  Filter
	Handler Handler
	Logger  zerolog.Logger
}

// Registry maps port names to open connections.
type Registry struct {
	mu      sync.RWMutex
	inputs  map[string]midi.In
	outputs map[string]*Output
	log     zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		inputs:  make(map[string]midi.In),
		outputs: make(map[string]*Output),
		log:     log,
	}
}

// Connect opens every output and then every input port of drv accepted by
// opts.Filter.
func Connect(drv midi.Driver, opts Options) (*Registry, error) {
	reg := NewRegistry(opts.Logger)
	if err := reg.ConnectOutputs(drv, opts.Filter); err != nil {
		return nil, err
	}
	if err := reg.ConnectInputs(drv, opts.Filter, opts.Handler); err != nil {
		reg.Close()
		return nil, err
	}
	return reg, nil
}

// ConnectInputs opens the accepted input ports of drv and routes their
// messages to handler. A port that fails to open is logged and skipped.
// Only a failure to list the ports is returned.
func (r *Registry) ConnectInputs(drv midi.Driver, f Filter, handler Handler) error {
	if handler == nil {
		handler = func(string, int64, []byte) {}
	}
	ins, err := drv.Ins()
	if err != nil {
		return fmt.Errorf("list inputs: %w", err)
	}
	for _, in := range ins {
		if !f.Match(in.String()) {
			r.log.Debug().Str("port", in.String()).Msg("input filtered")
			continue
		}
		if err := r.addInput(in, handler); err != nil {
			r.log.Warn().Err(err).Str("port", in.String()).Msg("skipping input")
		}
	}
	return nil
}

// ConnectOutputs opens the accepted output ports of drv, skipping the ones
// that fail to open.
func (r *Registry) ConnectOutputs(drv midi.Driver, f Filter) error {
	outs, err := drv.Outs()
	if err != nil {
		return fmt.Errorf("list outputs: %w", err)
	}
	for _, out := range outs {
		if !f.Match(out.String()) {
			r.log.Debug().Str("port", out.String()).Msg("output filtered")
			continue
		}
		if err := r.addOutput(out); err != nil {
			r.log.Warn().Err(err).Str("port", out.String()).Msg("skipping output")
		}
	}
	return nil
}

func (r *Registry) addInput(in midi.In, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := uniqueName(in.String(), func(n string) bool { _, ok := r.inputs[n]; return ok })
	r.log.Info().Str("port", name).Int("number", in.Number()).Msg("[input] connecting")

	if err := in.Open(); err != nil {
		return fmt.Errorf("open input %q: %w", name, err)
	}
	err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
		handler(name, deltaMicroseconds, data)
	})
	if err != nil {
		in.Close()
		return fmt.Errorf("listen on input %q: %w", name, err)
	}
	r.inputs[name] = in
	return nil
}

func (r *Registry) addOutput(out midi.Out) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := uniqueName(out.String(), func(n string) bool { _, ok := r.outputs[n]; return ok })
	r.log.Info().Str("port", name).Int("number", out.Number()).Msg("[output] connecting")

	if err := out.Open(); err != nil {
		return fmt.Errorf("open output %q: %w", name, err)
	}
	r.outputs[name] = newOutput(name, out)
	return nil
}

// uniqueName disambiguates identical devices by appending #2, #3, ...
func uniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		n := fmt.Sprintf("%s #%d", name, i)
		if !taken(n) {
			return n
		}
	}
}

// Inputs returns the sorted names of the open inputs.
func (r *Registry) Inputs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.inputs))
	for n := range r.inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Outputs returns the sorted names of the open outputs.
func (r *Registry) Outputs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.outputs))
	for n := range r.outputs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Output(name string) (*Output, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.outputs[name]
	return o, ok
}

// Broadcast writes data unchanged to every open output that does not share
// its name with an open input. Such pairs are loopback ports (e.g. ALSA
// "Midi Through") or the sending device itself, and writing to them would
// feed the message back into an input.
func (r *Registry) Broadcast(data []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var errs []error
	for name, o := range r.outputs {
		if _, loop := r.inputs[name]; loop {
			continue
		}
		if _, err := o.Write(data); err != nil {
			errs = append(errs, fmt.Errorf("write %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close stops all listeners and closes every port. The registry is empty
// afterwards. The lock is released before ports are stopped so that
// in-flight callbacks calling Broadcast can finish.
func (r *Registry) Close() error {
	r.mu.Lock()
	inputs, outputs := r.inputs, r.outputs
	r.inputs = make(map[string]midi.In)
	r.outputs = make(map[string]*Output)
	r.mu.Unlock()

	var errs []error
	for name, in := range inputs {
		if err := in.StopListening(); err != nil {
			errs = append(errs, fmt.Errorf("stop input %q: %w", name, err))
		}
		if err := in.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input %q: %w", name, err))
		}
		r.log.Debug().Str("port", name).Msg("input closed")
	}
	for name, o := range outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output %q: %w", name, err))
		}
		r.log.Debug().Str("port", name).Msg("output closed")
	}
	return errors.Join(errs...)
}
