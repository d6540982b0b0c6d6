// Package config loads and stores the engine-wide rendering and
// compatibility options described by the archive format's configuration
// word. Options are persisted as TOML, matching the layout NoiseTorch
// keeps its own settings in.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Bit is one flag of the configuration word. Values match the archive
// format's documented bit positions so a loaded Options round-trips
// through the word form used by older tooling.
type Bit uint32

const (
	Force16Bit Bit = 1 << iota
	NoVertexBuffer
	HWTextureBlending
	NoFog
	NoDepthTest
	Force60Fps
)

// Options holds the decoded configuration word plus knobs that exist only
// for this module (not present in the original bit layout).
type Options struct {
	Force16Bit        bool
	NoVertexBuffer    bool
	HWTextureBlending bool
	NoFog             bool
	NoDepthTest       bool
	Force60Fps        bool

	// ScriptIndexBase is carried with the other options, but nothing in
	// this module reads it: loaded script ids are used as stored in the
	// archive, with no offset applied.
	ScriptIndexBase int
}

// Word packs o back into the archive's configuration bitword.
func (o Options) Word() uint32 {
	var w Bit
	if o.Force16Bit {
		w |= Force16Bit
	}
	if o.NoVertexBuffer {
		w |= NoVertexBuffer
	}
	if o.HWTextureBlending {
		w |= HWTextureBlending
	}
	if o.NoFog {
		w |= NoFog
	}
	if o.NoDepthTest {
		w |= NoDepthTest
	}
	if o.Force60Fps {
		w |= Force60Fps
	}
	return uint32(w)
}

// FromWord decodes a configuration bitword into Options, leaving
// ScriptIndexBase at zero.
func FromWord(word uint32) Options {
	w := Bit(word)
	return Options{
		Force16Bit:        w&Force16Bit != 0,
		NoVertexBuffer:    w&NoVertexBuffer != 0,
		HWTextureBlending: w&HWTextureBlending != 0,
		NoFog:             w&NoFog != 0,
		NoDepthTest:       w&NoDepthTest != 0,
		Force60Fps:        w&Force60Fps != 0,
	}
}

const fileName = "th06.toml"

// Dir returns the directory configuration is read from and written to,
// honoring XDG_CONFIG_HOME with a $HOME/.config fallback.
func Dir() string {
	return filepath.Join(xdgOrFallback("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config")), "th06")
}

// Load reads Options from the config directory, returning defaults
// (all flags false) if no file exists yet.
func Load() (Options, error) {
	path := filepath.Join(Dir(), fileName)
	if ok, err := exists(path); err != nil {
		return Options{}, fmt.Errorf("config: load: %w", err)
	} else if !ok {
		return Options{}, nil
	}

	var o Options
	if _, err := toml.DecodeFile(path, &o); err != nil {
		return Options{}, fmt.Errorf("config: load: unable to decode %s: %w", path, err)
	}
	return o, nil
}

// Save writes o to the config directory, creating it if necessary.
func Save(o Options) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("config: save: unable to create %s: %w", dir, err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&o); err != nil {
		return fmt.Errorf("config: save: unable to encode: %w", err)
	}

	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("config: save: unable to write %s: %w", path, err)
	}
	return nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func xdgOrFallback(xdg, fallback string) string {
	dir := os.Getenv(xdg)
	if dir == "" {
		return fallback
	}
	if ok, err := exists(dir); !ok || err != nil {
		return fallback
	}
	return dir
}
