// Package config loads the YAML pipeline description spec §6's CLI surface
// is the alternative to: an ordered list of pass names plus per-pass
// option maps, read with gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maocore/mao/passmgr"
)

// Config is the top-level pipeline description.
type Config struct {
	// Passes lists the passes to run, in order. Required, at least one
	// entry.
	Passes []PassConfig `yaml:"passes"`

	// ApplyToFuncs restricts function passes to functions whose name
	// matches this regex. Optional; empty means every function.
	ApplyToFuncs string `yaml:"apply_to_funcs"`

	// OutputDir is where VCG/DOT dumps are written, when a pass requests
	// one. Defaults to the current directory when omitted.
	OutputDir string `yaml:"output_dir"`
}

// PassConfig names one pipeline stage and its option overrides.
type PassConfig struct {
	// Name is the pass's registered uppercase name. Required.
	Name string `yaml:"name"`

	// Options maps option name to its string-encoded override value,
	// parsed the same way a `--mao=NAME=opt[val]` token's bracketed value
	// is. Optional.
	Options map[string]string `yaml:"options"`
}

// Load reads the YAML file at path, unmarshals it into a Config, applies
// defaults, and validates required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: cannot parse %q: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed for %q: %w", path, err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
}

func validate(cfg *Config) error {
	if len(cfg.Passes) == 0 {
		return fmt.Errorf("passes: at least one pass is required")
	}
	for i, p := range cfg.Passes {
		if p.Name == "" {
			return fmt.Errorf("passes[%d]: name is required", i)
		}
	}
	return nil
}

// ToPipeline converts a loaded Config into the passmgr.PipelineConfig shape
// that passmgr.Manager.Configure consumes.
func (cfg *Config) ToPipeline() passmgr.PipelineConfig {
	pc := passmgr.PipelineConfig{Passes: make([]passmgr.PipelinePass, len(cfg.Passes))}
	for i, p := range cfg.Passes {
		pc.Passes[i] = passmgr.PipelinePass{Name: p.Name, Options: p.Options}
	}
	return pc
}
