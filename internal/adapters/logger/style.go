package logger

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// Colours and icons used by the pretty handler.
const (
	yellow = "#F59E0B"
	red    = "#D93025"
	slate  = "#667085"

	warningIcon = "!"
	crossIcon   = "✗"
)

// colorProfile honours NO_COLOR and otherwise asks the environment.
func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

func newOutput(w io.Writer) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w, termenv.WithProfile(colorProfile()), termenv.WithTTY(true))
}
