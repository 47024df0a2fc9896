package logging

import "time"

// Config tunes the router's buffering and severity floor.
type Config struct {
	EnabledSinks     []string
	BufferSize       int
	MinimumSeverity  Severity
	DropWarnInterval time.Duration
}

// DefaultConfig returns the router's baseline settings. The server starts
// from these and then narrows EnabledSinks to "stdout-json" alone.
func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{"console", "stdout-json"},
		BufferSize:       512,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 5 * time.Second,
	}
}

// HasSink reports whether name is among the enabled sinks.
func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if s == name {
			return true
		}
	}
	return false
}
