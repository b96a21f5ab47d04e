package config

import (
	"github.com/danmuck/slimectl/internal/logging"
)

// LoggingOverrides maps the [log] table onto the logger setup. Environment
// variables still take precedence inside logging.Configure.
func (c Config) LoggingOverrides() func(*logging.Config) {
	return func(lc *logging.Config) {
		if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
			lc.Level = lvl
		}
		if c.Log.File != "" {
			lc.File = c.Log.File
		}
		if c.Log.NoColor {
			lc.NoColor = true
		}
	}
}
