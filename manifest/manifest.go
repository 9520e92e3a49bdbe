// Package manifest handles ink.toml runtime configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/chazu/inkcore/vm"

	_ "github.com/tliron/commonlog/simple"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "ink.toml"

// Manifest represents an ink.toml configuration.
type Manifest struct {
	Story   Story   `toml:"story"`
	Runtime Runtime `toml:"runtime"`
	GC      GC      `toml:"gc"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the ink.toml file (set at load time).
	Dir string `toml:"-"`
}

// Story contains story metadata.
type Story struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry"` // compiled story, relative to Dir
}

// Runtime sizes the fixed stacks of each execution context.
type Runtime struct {
	StackSize     int `toml:"stack-size"`
	CallStackSize int `toml:"callstack-size"`
	GlobalsSize   int `toml:"globals-size"`
}

// GC configures string collection.
type GC struct {
	// Threshold is the string count above which a context collects on its
	// own. Zero disables automatic collection.
	Threshold int `toml:"threshold"`
}

// Log configures commonlog output.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"` // empty means stderr
}

// Default returns the configuration used when no ink.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses an ink.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.applyDefaults()

	return &m, nil
}

// FindAndLoad walks up from startDir to find an ink.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Validate rejects negative sizes. Zero sizes are filled with defaults.
func (m *Manifest) Validate() error {
	checks := []struct {
		key string
		n   int
	}{
		{"runtime.stack-size", m.Runtime.StackSize},
		{"runtime.callstack-size", m.Runtime.CallStackSize},
		{"runtime.globals-size", m.Runtime.GlobalsSize},
		{"gc.threshold", m.GC.Threshold},
	}
	for _, c := range checks {
		if c.n < 0 {
			return fmt.Errorf("%s must not be negative (got %d)", c.key, c.n)
		}
	}
	return nil
}

func (m *Manifest) applyDefaults() {
	def := vm.DefaultOptions()
	if m.Runtime.StackSize == 0 {
		m.Runtime.StackSize = def.StackSize
	}
	if m.Runtime.CallStackSize == 0 {
		m.Runtime.CallStackSize = def.CallStackSize
	}
	if m.Runtime.GlobalsSize == 0 {
		m.Runtime.GlobalsSize = def.GlobalsSize
	}
}

// Options returns the context options described by the manifest.
func (m *Manifest) Options() vm.Options {
	return vm.Options{
		StackSize:     m.Runtime.StackSize,
		CallStackSize: m.Runtime.CallStackSize,
		GlobalsSize:   m.Runtime.GlobalsSize,
		GCThreshold:   m.GC.Threshold,
	}
}

// NewContext creates an execution context sized by the manifest.
func (m *Manifest) NewContext() *vm.Context {
	return vm.NewContext(m.Options())
}

// EntryPath returns the absolute path of the compiled story.
func (m *Manifest) EntryPath() string {
	if m.Story.Entry == "" || filepath.IsAbs(m.Story.Entry) {
		return m.Story.Entry
	}
	return filepath.Join(m.Dir, m.Story.Entry)
}

// LogPath returns the absolute log file path, or "" for stderr.
func (m *Manifest) LogPath() string {
	if m.Log.File == "" || filepath.IsAbs(m.Log.File) {
		return m.Log.File
	}
	return filepath.Join(m.Dir, m.Log.File)
}

// ConfigureLogging points commonlog at the configured verbosity and file.
func (m *Manifest) ConfigureLogging() {
	var path *string
	if p := m.LogPath(); p != "" {
		path = &p
	}
	commonlog.Configure(m.Log.Verbosity, path)
}
