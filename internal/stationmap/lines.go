package stationmap

import (
	"strings"
)

// DisplayName strips internal qualifiers from a route name.
func DisplayName(name string) string {
	if i := strings.Index(name, "||"); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, "|"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// LineKey is the grouping key of a route name.
func LineKey(name string) string {
	return strings.ToLower(DisplayName(name))
}
