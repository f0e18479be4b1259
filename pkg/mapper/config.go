package mapper

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/apimapper/internal/correlate"
	"github.com/PentesterFlow/apimapper/internal/flows"
	"github.com/PentesterFlow/apimapper/internal/graph"
)

// Config holds all analysis configuration.
type Config struct {
	// Name for produced blueprints
	Name string `json:"name" yaml:"name"`

	// Project the analysis belongs to
	ProjectID string `json:"project_id" yaml:"project_id"`

	// Correlation windows
	Correlation CorrelationConfig `json:"correlation" yaml:"correlation"`

	// Flow mining settings
	Flows FlowConfig `json:"flows" yaml:"flows"`

	// Hub detection settings
	Hubs HubConfig `json:"hubs" yaml:"hubs"`

	// Enrich graphs from captured HTML bodies
	HTMLEnrichment bool `json:"html_enrichment" yaml:"html_enrichment"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Debug mode
	Debug bool `json:"debug" yaml:"debug"`
}

// CorrelationConfig holds the correlation windows.
type CorrelationConfig struct {
	// How long after a user action an exchange may start and still be
	// attributed to it
	ActionWindow time.Duration `json:"action_window" yaml:"action_window"`

	// Maximum gap when pairing a response to its request
	ResponseWindow time.Duration `json:"response_window" yaml:"response_window"`
}

// FlowConfig holds flow mining settings.
type FlowConfig struct {
	// Idle time that splits action groups into sessions
	SessionGap time.Duration `json:"session_gap" yaml:"session_gap"`

	// Minimum actions per session; smaller groups are discarded
	MinActions int `json:"min_actions" yaml:"min_actions"`

	// Sliding-window bounds for recurring pattern mining
	MinWindow int `json:"min_window" yaml:"min_window"`
	MaxWindow int `json:"max_window" yaml:"max_window"`

	// Repetition threshold for a recurring pattern
	MinOccurrences int `json:"min_occurrences" yaml:"min_occurrences"`
}

// HubConfig holds hub detection settings.
type HubConfig struct {
	// Minimum combined score for a node to be tagged a hub
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name: "API Blueprint",
		Correlation: CorrelationConfig{
			ActionWindow:   correlate.DefaultActionWindow,
			ResponseWindow: correlate.DefaultResponseWindow,
		},
		Flows: FlowConfig{
			SessionGap:     flows.DefaultSessionGap,
			MinActions:     flows.DefaultMinActions,
			MinWindow:      flows.DefaultMinWindow,
			MaxWindow:      flows.DefaultMaxWindow,
			MinOccurrences: flows.DefaultMinOccurrences,
		},
		Hubs: HubConfig{
			Threshold: graph.DefaultHubThreshold,
		},
		HTMLEnrichment: true,
		Verbose:        false,
		Debug:          false,
	}
}

// LoadFromFile loads configuration from a file (JSON or YAML).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a file.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Correlation.ActionWindow < 0 {
		return fmt.Errorf("action window must not be negative")
	}

	if c.Correlation.ResponseWindow < 0 {
		return fmt.Errorf("response window must not be negative")
	}

	if c.Flows.SessionGap < 0 {
		return fmt.Errorf("session gap must not be negative")
	}

	if c.Flows.MinWindow != 0 && c.Flows.MinWindow < 2 {
		return fmt.Errorf("pattern window must be at least 2")
	}

	if c.Flows.MaxWindow != 0 && c.Flows.MaxWindow < c.Flows.MinWindow {
		return fmt.Errorf("max pattern window must not be below min")
	}

	if c.Hubs.Threshold < 0 {
		return fmt.Errorf("hub threshold must not be negative")
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}
