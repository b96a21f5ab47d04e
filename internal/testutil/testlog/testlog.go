package testlog

import (
	"testing"

	"github.com/danmuck/slimectl/internal/logging"
	"github.com/rs/zerolog/log"
)

// Start routes the global logger through the test profile and tags the
// current test so interleaved tracker logs stay attributable.
func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Str("test", t.Name()).Msg("start")
}
