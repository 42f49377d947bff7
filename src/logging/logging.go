package logging

import (
	"strings"

	logger "github.com/sirupsen/logrus"
)

// Setup configures the process-wide logger. Unknown levels fall back to debug,
// format "json" selects the JSON formatter and anything else the text one.
func Setup(level, format string) {
	lvl, err := logger.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logger.DebugLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logger.JSONFormatter{})
		return
	}
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}
