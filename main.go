/*

midispliff connects to every MIDI port, decodes the channel voice messages
arriving on the inputs and prints them together with their timestamp and raw
bytes. All outputs are held open and, with --relay, receive every input
message unchanged.

example

midispliff --relay --profile=studio.toml

(monitors all inputs, forwards them to all outputs, press enter to exit)

midicat in -i=10 | midispliff log | midicat out -i=11

(logs a raw MIDI stream from stdin to stderr while passing it through)

*/

package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
	"gitlab.com/metakeule/config"

	"gitlab.com/gomidi/midispliff/logging"
	"gitlab.com/gomidi/midispliff/message"
	"gitlab.com/gomidi/midispliff/monitor"
	"gitlab.com/gomidi/midispliff/ports"
	"gitlab.com/gomidi/midispliff/profile"
)

var (
	cfg = config.MustNew("midispliff", VERSION, "midispliff decodes MIDI from all ports and relays it to all outputs")

	argProfile = cfg.NewString("profile", "path of a TOML profile", config.Shortflag('p'))
	argName    = cfg.NewString("name", "client name printed in front of every message")
	argRelay   = cfg.NewBool("relay", "forward every received message unchanged to all output ports")
	argQuiet   = cfg.NewBool("quiet", "do not print system and unrecognized messages")
	argJson    = cfg.NewBool("json", "return the list in JSON format")

	cmdIns  = cfg.MustCommand("ins", "show the available midi in ports").SkipAllBut("json")
	cmdOuts = cfg.MustCommand("outs", "show the available midi out ports").SkipAllBut("json")

	cmdLog = cfg.MustCommand("log", "pass the midi from stdin to stdout while logging it to stderr").SkipAllBut("profile", "name", "quiet")
)

func main() {
	err := run()

	if err != nil {
		fmt.Fprintln(os.Stderr, cfg.Usage())
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		os.Exit(1)
	}

	os.Exit(0)
}

func run() error {
	err := cfg.Run()

	if err != nil {
		return err
	}

	prof, err := loadProfile()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig(prof.Name)
	logCfg.Level = prof.LogLevel
	log := logging.New(logCfg)

	if cfg.ActiveCommand() == cmdLog {
		return runLog(os.Stdin, os.Stdout, os.Stderr, prof, log)
	}

	drv, err := rtmididrv.New()
	if err != nil {
		return err
	}
	defer drv.Close()

	switch cfg.ActiveCommand() {
	case cmdIns:
		ins, err := drv.Ins()
		if err != nil {
			return err
		}
		return showPorts(os.Stdout, "MIDI inputs", ins, argJson.Get())
	case cmdOuts:
		outs, err := drv.Outs()
		if err != nil {
			return err
		}
		return showPorts(os.Stdout, "MIDI outputs", outs, argJson.Get())
	default:
		return runMonitor(drv, prof, log)
	}
}

// loadProfile reads the profile file and applies the command line flags on top.
func loadProfile() (profile.Profile, error) {
	prof, err := profile.Load(argProfile.Get())
	if err != nil {
		return profile.Profile{}, err
	}
	if name := argName.Get(); name != "" {
		prof.Name = name
	}
	if argRelay.Get() {
		prof.Relay = true
	}
	if argQuiet.Get() {
		prof.HideUnknown = true
	}
	return prof, nil
}

func runMonitor(drv midi.Driver, prof profile.Profile, log zerolog.Logger) error {
	printer := monitor.NewPrinter(os.Stdout, monitor.Options{
		Client:      prof.Name,
		Logger:      log,
		HideUnknown: prof.HideUnknown,
	})

	reg, err := ports.Connect(drv, ports.Options{
		Filter:  ports.Filter{Include: prof.Include, Exclude: prof.Exclude},
		Handler: printer.Handle,
		Logger:  log,
	})
	if err != nil {
		return err
	}
	if prof.Relay {
		printer.SetRelay(reg)
	}

	log.Info().Int("inputs", len(reg.Inputs())).Int("outputs", len(reg.Outputs())).Bool("relay", prof.Relay).Msg("Connections open (press enter to exit) ...")

	waitForExit(os.Stdin)

	stats := printer.Stats()
	log.Info().
		Uint64("decoded", stats.Decoded).
		Uint64("unknown", stats.Unknown).
		Uint64("malformed", stats.Malformed).
		Uint64("relayed", stats.Relayed).
		Msg("Closing connections")
	if prof.Relay {
		for _, name := range reg.Outputs() {
			if o, ok := reg.Output(name); ok {
				log.Debug().Str("port", o.Name()).Uint64("written", o.Written()).Msg("relay output")
			}
		}
	}
	return reg.Close()
}

// waitForExit blocks until a line is read from r, r is exhausted or an
// interrupt arrives.
func waitForExit(r io.Reader) {
	done := make(chan struct{}, 1)
	go func() {
		bufio.NewReader(r).ReadString('\n')
		done <- struct{}{}
	}()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt)
	defer signal.Stop(sigchan)

	select {
	case <-done:
	case <-sigchan:
	}
}

// streamRelay passes raw bytes through to a writer.
type streamRelay struct {
	w io.Writer
}

func (s streamRelay) Broadcast(data []byte) error {
	_, err := s.w.Write(data)
	return err
}

func runLog(in io.Reader, out, errOut io.Writer, prof profile.Profile, log zerolog.Logger) error {
	printer := monitor.NewPrinter(errOut, monitor.Options{
		Client:      prof.Name,
		Logger:      log,
		Relay:       streamRelay{w: out},
		HideUnknown: prof.HideUnknown,
	})

	start := time.Now()
	rd := message.NewReader(in)
	for {
		msg, err := rd.ReadMessage()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, message.ErrMalformedBuffer) {
			printer.Handle("stdin", time.Since(start).Microseconds(), msg)
			log.Warn().Err(err).Msg("incomplete message at end of stream")
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not read from stdin: %w", err)
		}
		printer.Handle("stdin", time.Since(start).Microseconds(), msg)
	}
}

type numberedPort interface {
	Number() int
	String() string
}

func portMap[P numberedPort](ps []P) map[int]string {
	var portm = map[int]string{}

	for _, port := range ps {
		portm[port.Number()] = port.String()
	}
	return portm
}

// showPorts prints the ports as a numbered list under title, or as a JSON
// object mapping port number to name.
func showPorts[P numberedPort](w io.Writer, title string, ps []P, asJson bool) error {
	if asJson {
		return json.NewEncoder(w).Encode(portMap(ps))
	}

	fmt.Fprintln(w, title)

	for _, p := range ps {
		fmt.Fprintf(w, "[%v] %s\n", p.Number(), p.String())
	}

	return nil
}
