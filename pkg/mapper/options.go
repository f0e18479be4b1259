package mapper

import (
	"time"

	"github.com/PentesterFlow/apimapper/internal/flows"
	"github.com/PentesterFlow/apimapper/internal/logger"
)

// Option is a functional option for configuring the Mapper.
type Option func(*Mapper) error

// WithName sets the name given to produced blueprints.
func WithName(name string) Option {
	return func(m *Mapper) error {
		m.config.Name = name
		return nil
	}
}

// WithProject associates produced blueprints with a project.
func WithProject(id string) Option {
	return func(m *Mapper) error {
		m.config.ProjectID = id
		return nil
	}
}

// WithActionWindow sets the action correlation window.
func WithActionWindow(window time.Duration) Option {
	return func(m *Mapper) error {
		m.config.Correlation.ActionWindow = window
		return nil
	}
}

// WithResponseWindow sets the request/response pairing window.
func WithResponseWindow(window time.Duration) Option {
	return func(m *Mapper) error {
		m.config.Correlation.ResponseWindow = window
		return nil
	}
}

// WithSessionGap sets the idle time that splits flow sessions.
func WithSessionGap(gap time.Duration) Option {
	return func(m *Mapper) error {
		m.config.Flows.SessionGap = gap
		return nil
	}
}

// WithPatternWindows bounds the sliding-window sizes used for recurring
// pattern mining.
func WithPatternWindows(min, max int) Option {
	return func(m *Mapper) error {
		if min < 2 {
			min = 2
		}
		if max < min {
			max = min
		}
		m.config.Flows.MinWindow = min
		m.config.Flows.MaxWindow = max
		return nil
	}
}

// WithHubThreshold sets the minimum hub score.
func WithHubThreshold(threshold float64) Option {
	return func(m *Mapper) error {
		m.config.Hubs.Threshold = threshold
		return nil
	}
}

// WithHTMLEnrichment enables/disables graph enrichment from captured
// HTML bodies.
func WithHTMLEnrichment(enabled bool) Option {
	return func(m *Mapper) error {
		m.config.HTMLEnrichment = enabled
		return nil
	}
}

// WithVerbose enables/disables verbose logging.
func WithVerbose(verbose bool) Option {
	return func(m *Mapper) error {
		m.config.Verbose = verbose
		return nil
	}
}

// WithDebug enables/disables debug mode.
func WithDebug(debug bool) Option {
	return func(m *Mapper) error {
		m.config.Debug = debug
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Mapper) error {
		m.logger = l
		return nil
	}
}

// WithIDSource sets the id source for blueprints and flows. Tests use
// this to pin ids.
func WithIDSource(ids flows.IDSource) Option {
	return func(m *Mapper) error {
		m.ids = ids
		return nil
	}
}

// WithConfig sets the entire configuration.
func WithConfig(config *Config) Option {
	return func(m *Mapper) error {
		m.config = config
		return nil
	}
}
