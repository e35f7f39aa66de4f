// Package config defines the GoHM daemon configuration: server settings plus
// the scripted health-policy specs loaded from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written as "30s", "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// ServerConfig holds configuration for the GoHM daemon.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`             // Listen address (default ":8080")
	LogLevel        string   `yaml:"log_level"`        // debug, info, warn, error
	LogFormat       string   `yaml:"log_format"`       // text or json
	DBPath          string   `yaml:"db_path"`          // SQLite archive path (default ~/.gohm/gohm.db, ":memory:" for testing)
	ArchiveInterval Duration `yaml:"archive_interval"` // How often the archiver polls contexts

	Policies []PolicySpec `yaml:"policies"`
}

// PolicySpec declares one scripted health policy.
type PolicySpec struct {
	Name     string   `yaml:"name"`
	Interval Duration `yaml:"interval"`

	Sensors    []SensorSpec    `yaml:"sensors"`
	Detectors  []DetectorSpec  `yaml:"detectors"`
	Diagnosers []DiagnoserSpec `yaml:"diagnosers"`
	Resolvers  []ResolverSpec  `yaml:"resolvers"`
}

// SensorSpec runs a command whose stdout parses as a float64 measurement.
type SensorSpec struct {
	Name      string   `yaml:"name"`
	Component string   `yaml:"component"`
	Instance  string   `yaml:"instance"`
	Command   []string `yaml:"command"`
}

// DetectorSpec evaluates a JS expression over `measurements`; a truthy result
// emits one symptom.
type DetectorSpec struct {
	Name        string   `yaml:"name"`
	Expression  string   `yaml:"expression"`
	Assignments []string `yaml:"assignments"`
}

// DiagnoserSpec evaluates a JS expression over `symptoms`; a truthy result
// emits one diagnosis naming the matched symptoms.
type DiagnoserSpec struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// ResolverSpec evaluates a JS expression over `diagnosis`; when truthy, the
// optional command is executed and its output recorded in the action.
type ResolverSpec struct {
	Name       string   `yaml:"name"`
	Expression string   `yaml:"expression"`
	Command    []string `yaml:"command"`
}

// DefaultServerConfig returns sensible defaults. Policies are empty; an
// executor with no policies idles on the fallback cycle delay.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		LogLevel:        "info",
		LogFormat:       "text",
		ArchiveInterval: Duration(5 * time.Second),
	}
}

// Load reads a YAML config file and overlays it on the defaults.
func Load(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the policy specs. Server fields have usable zero values;
// policy mistakes would otherwise only surface mid-cycle.
func (c ServerConfig) Validate() error {
	seen := make(map[string]bool, len(c.Policies))
	for i, p := range c.Policies {
		if p.Name == "" {
			return fmt.Errorf("policies[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("policies[%d]: duplicate policy name %q", i, p.Name)
		}
		seen[p.Name] = true

		if p.Interval <= 0 {
			return fmt.Errorf("policy %q: interval must be positive", p.Name)
		}
		if len(p.Sensors) == 0 {
			return fmt.Errorf("policy %q: at least one sensor is required", p.Name)
		}
		for _, s := range p.Sensors {
			if s.Name == "" {
				return fmt.Errorf("policy %q: sensor name is required", p.Name)
			}
			if len(s.Command) == 0 {
				return fmt.Errorf("policy %q: sensor %q: command is required", p.Name, s.Name)
			}
		}
		for _, d := range p.Detectors {
			if d.Name == "" || d.Expression == "" {
				return fmt.Errorf("policy %q: detectors need name and expression", p.Name)
			}
		}
		for _, d := range p.Diagnosers {
			if d.Name == "" || d.Expression == "" {
				return fmt.Errorf("policy %q: diagnosers need name and expression", p.Name)
			}
		}
		for _, r := range p.Resolvers {
			if r.Name == "" || r.Expression == "" {
				return fmt.Errorf("policy %q: resolvers need name and expression", p.Name)
			}
		}
	}
	return nil
}
