// Package profile loads the optional TOML profile for midispliff.
//
//	name = "midi-spliff"
//	relay = false
//	hide_unknown = false
//	log_level = "info"
//
//	[ports]
//	include = ["launchpad"]
//	exclude = ["through"]
package profile

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"gitlab.com/gomidi/midispliff/logging"
)

const DefaultName = "midi-spliff"

type Profile struct {
	Name        string
	Relay       bool
	HideUnknown bool
	LogLevel    zerolog.Level
	Include     []string
	Exclude     []string
}

type fileProfile struct {
	Name        string    `toml:"name"`
	Relay       bool      `toml:"relay"`
	HideUnknown bool      `toml:"hide_unknown"`
	LogLevel    string    `toml:"log_level"`
	Ports       filePorts `toml:"ports"`
}

type filePorts struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

func Default() Profile {
	return Profile{
		Name:     DefaultName,
		LogLevel: zerolog.InfoLevel,
	}
}

// Load overlays the keys defined in the file at path onto Default.
// An empty path returns Default.
func Load(path string) (Profile, error) {
	p := Default()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}

	var raw fileProfile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Profile{}, fmt.Errorf("load profile: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("name") {
		if name := strings.TrimSpace(raw.Name); name != "" {
			p.Name = name
		}
	}
	if meta.IsDefined("relay") {
		p.Relay = raw.Relay
	}
	if meta.IsDefined("hide_unknown") {
		p.HideUnknown = raw.HideUnknown
	}
	if meta.IsDefined("log_level") {
		lvl, ok := logging.ParseLevel(raw.LogLevel)
		if !ok {
			return Profile{}, fmt.Errorf("load profile: invalid log_level %q", raw.LogLevel)
		}
		p.LogLevel = lvl
	}
	if meta.IsDefined("ports", "include") {
		p.Include = normalize(raw.Ports.Include)
	}
	if meta.IsDefined("ports", "exclude") {
		p.Exclude = normalize(raw.Ports.Exclude)
	}
	return p, nil
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
