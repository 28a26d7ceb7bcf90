package sequencer

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// ConfigurationError tags input rejected at a mutator boundary.
// Rejected edits leave the engine untouched, playback continues.
const ConfigurationError ftag.Kind = "CONFIGURATION"

// IsConfigurationError reports whether err was caused by bad input
func IsConfigurationError(err error) bool {
	return err != nil && ftag.Get(err) == ConfigurationError
}

func invalid(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fault.New(msg, ftag.With(ConfigurationError), fmsg.With("invalid rhythm configuration"))
}
