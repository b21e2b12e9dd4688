// Package common provides the logging infrastructure shared by every
// component of the catalog service. The logger routes error-level output to
// stderr and everything else to stdout, so containerized and scripted
// deployments can treat the two streams differently.
package common

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// OutputSplitter directs formatted log lines to stderr when they carry the
// error level and to stdout otherwise. It operates on the final formatted
// output, so it works with both the text and the JSON formatter.
type OutputSplitter struct{}

// Write implements io.Writer for the splitter.
func (splitter *OutputSplitter) Write(p []byte) (n int, err error) {
	if bytes.Contains(p, []byte(`level=error`)) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Logger is the global logger instance. All services log through it, either
// directly or via the event bus and LogSubscriber.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(&OutputSplitter{})
}

// ConfigureLogger applies level, format and optional file output from the
// configuration. Unknown levels fall back to info.
func ConfigureLogger(level, format, file string) error {
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Logger.SetLevel(parsed)

	if strings.EqualFold(format, "json") {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		Logger.SetOutput(io.MultiWriter(&OutputSplitter{}, f))
	}
	return nil
}
