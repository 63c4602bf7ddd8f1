package logger

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

func NewLogger(config *config.Config, name string) hclog.Logger {
	var logLevel hclog.Level
	var jsonFormat bool

	if config != nil && config.Logging.Level != "" {
		logLevel = getLogLevel(strings.ToUpper(config.Logging.Level))
	} else {
		// env variables has the second priority
		logLevelEnv := os.Getenv("LATER_LOG_LEVEL")
		logLevel = getLogLevel(strings.ToUpper(logLevelEnv))
	}
	if config != nil {
		jsonFormat = config.Logging.JSON
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:        name,
		DisableTime: true,
		Output:      os.Stdout,
		Level:       logLevel,
		JSONFormat:  jsonFormat,
	})

	return logger
}

// NewPluginLogger returns the JSON logger plugins use so the host can re-emit their records.
func NewPluginLogger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      getLogLevel(strings.ToUpper(os.Getenv("LATER_LOG_LEVEL"))),
		Output:     os.Stderr,
		JSONFormat: true,
	})
}

func getLogLevel(levelStr string) hclog.Level {
	switch levelStr {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN", "WARNING":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	default:
		return hclog.Warn
	}
}
