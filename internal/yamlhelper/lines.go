package yamlhelper

import (
	"strings"
)

// Line is one source line with its 1-based number.
type Line struct {
	Number int
	Text   string
}

// LineOptions controls NormalizedYAML filtering. Comment-only lines are always dropped.
type LineOptions struct {
	RemoveEmpty   bool
	RemoveMarkers bool
}

// DefaultLineOptions drops blank lines and document markers.
func DefaultLineOptions() LineOptions {
	return LineOptions{RemoveEmpty: true, RemoveMarkers: true}
}

// NormalizedYAML splits content into numbered lines and filters them according to opts.
func NormalizedYAML(content []byte, opts LineOptions) []Line {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}

	var lines []Line
	for i, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			continue
		case opts.RemoveMarkers && trimmed == "---":
			continue
		case opts.RemoveEmpty && trimmed == "":
			continue
		}
		lines = append(lines, Line{Number: i + 1, Text: raw})
	}
	return lines
}
