package config

import (
	"reflect"
	"strings"
)

var logLevels = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

// setThen provides a utility to select the first value if set, otherwise defaults.
func SetThen[T any](value T, defaultValue T) T {
	if reflect.ValueOf(value).IsZero() {
		return defaultValue
	}
	return value
}

// AdjustLevel moves level by delta steps, where a negative delta is more verbose.
// The result is clamped to the known hclog levels.
func AdjustLevel(level string, delta int) string {
	idx := 3
	for i, l := range logLevels {
		if l == strings.ToUpper(level) {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(logLevels) {
		idx = len(logLevels) - 1
	}
	return logLevels[idx]
}

// Contains reports whether value is present in list.
func Contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
