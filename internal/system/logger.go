package system

import (
	"io"
	"os"

	clog "github.com/charmbracelet/log"
)

// Logger is the shared application logger. It prints to stderr at error
// level by default so nothing leaks into the session being voiced; debug
// mode retargets it to a log file.
var Logger = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
	Level:           clog.ErrorLevel,
})

// EnableDebug switches the logger to debug level and redirects output to
// the given writer (normally tdsr.log).
func EnableDebug(w io.Writer) {
	Logger.SetOutput(w)
	Logger.SetLevel(clog.DebugLevel)
}
