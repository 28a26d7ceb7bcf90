package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/mitchellh/go-homedir"

	"go-rhythm/sequencer"
)

// PolicyConfig names the reschedule policy per kind of live edit:
// "restart" or "preserve-phase"
type PolicyConfig struct {
	Tempo   string `json:"tempo,omitempty"`
	Swing   string `json:"swing,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Layers  string `json:"layers,omitempty"`
}

// OutputConfig defines the MIDI output the click plays on
type OutputConfig struct {
	PortName string `json:"portName,omitempty"` // substring match, empty = first port
	Channel  int    `json:"channel,omitempty"`  // 1-16
	SoundSet string `json:"soundSet,omitempty"`
}

// ExerciseConfig picks the starting layers
type ExerciseConfig struct {
	Name   string  `json:"name,omitempty"`
	A      int     `json:"a,omitempty"` // polyrhythm divisions
	B      int     `json:"b,omitempty"`
	Levels int     `json:"levels,omitempty"` // pyramid height
	Beats  float64 `json:"beats,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Tempo    int            `json:"tempo"`
	Swing    float64        `json:"swing"`
	Policies PolicyConfig   `json:"policies"`
	Output   OutputConfig   `json:"output"`
	Exercise ExerciseConfig `json:"exercise"`
	Debug    bool           `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	pol := sequencer.DefaultPolicies()
	return &Config{
		Tempo: sequencer.DefaultTempo,
		Policies: PolicyConfig{
			Tempo:   pol.Tempo.String(),
			Swing:   pol.Swing.String(),
			Pattern: pol.Pattern.String(),
			Layers:  pol.Layers.String(),
		},
		Output: OutputConfig{
			Channel:  10,
			SoundSet: "click",
		},
		Exercise: ExerciseConfig{
			Name:   sequencer.ExercisePolyrhythm,
			A:      3,
			B:      4,
			Levels: 4,
			Beats:  4,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("find home directory"))
	}
	return filepath.Join(home, ".config", "go-rhythm"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the config at path. Fields missing from
// the file keep their defaults; a missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err, fmsg.With("parse config "+path))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create config directory"))
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode config"))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fault.Wrap(err, fmsg.With("write config"))
	}
	return nil
}

// Validate clamps tempo, swing and channel into range and rejects
// unknown policy and exercise names
func (c *Config) Validate() error {
	c.Tempo = sequencer.ClampTempo(c.Tempo)
	if c.Swing < 0 {
		c.Swing = 0
	}
	if c.Swing > 1 {
		c.Swing = 1
	}
	if c.Output.Channel < 1 {
		c.Output.Channel = 1
	}
	if c.Output.Channel > 16 {
		c.Output.Channel = 16
	}
	if _, err := c.EnginePolicies(); err != nil {
		return err
	}
	_, err := c.ExerciseLayers()
	return err
}

// EnginePolicies parses the policy names. Empty names keep the default.
func (c *Config) EnginePolicies() (sequencer.Policies, error) {
	pol := sequencer.DefaultPolicies()
	fields := []struct {
		name string
		dst  *sequencer.Policy
	}{
		{c.Policies.Tempo, &pol.Tempo},
		{c.Policies.Swing, &pol.Swing},
		{c.Policies.Pattern, &pol.Pattern},
		{c.Policies.Layers, &pol.Layers},
	}
	for _, f := range fields {
		if f.name == "" {
			continue
		}
		p, err := sequencer.ParsePolicy(f.name)
		if err != nil {
			return pol, err
		}
		*f.dst = p
	}
	return pol, nil
}

// SetPolicies stores the engine policies by name
func (c *Config) SetPolicies(pol sequencer.Policies) {
	c.Policies = PolicyConfig{
		Tempo:   pol.Tempo.String(),
		Swing:   pol.Swing.String(),
		Pattern: pol.Pattern.String(),
		Layers:  pol.Layers.String(),
	}
}

// ExerciseLayers builds the starting layers of the configured exercise
func (c *Config) ExerciseLayers() ([]*sequencer.Layer, error) {
	e := c.Exercise
	return sequencer.Exercise(e.Name, e.A, e.B, e.Levels, e.Beats)
}

// ControllerOptions turns the config into engine options
func (c *Config) ControllerOptions() ([]sequencer.Option, error) {
	pol, err := c.EnginePolicies()
	if err != nil {
		return nil, err
	}
	return []sequencer.Option{
		sequencer.WithTempo(c.Tempo),
		sequencer.WithSwing(c.Swing),
		sequencer.WithPolicies(pol),
	}, nil
}
