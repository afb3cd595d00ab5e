package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

// serviceHook tags every entry with the service name so log aggregation can
// tell this binary apart from the rest of the platform.
type serviceHook struct {
	name string
}

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = h.name
	return nil
}

// InitLogger configures the shared Logger. LOG_LEVEL accepts any logrus
// level name; anything unparseable falls back to info with a warning.
func InitLogger(serviceName string) {
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level := logrus.InfoLevel
	if raw := strings.ToLower(os.Getenv("LOG_LEVEL")); raw != "" {
		parsed, err := logrus.ParseLevel(raw)
		if err != nil {
			Logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", raw)
		} else {
			level = parsed
		}
	}
	Logger.SetLevel(level)

	Logger.AddHook(serviceHook{name: serviceName})
}
