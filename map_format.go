package mapdraft

import (
	"fmt"
	"strings"
)

// MapFormat identifies one of the textual .map dialects.
type MapFormat int

const (
	FormatUnknown MapFormat = iota
	FormatStandard
	FormatValve
	FormatQuake2
	FormatQuake3
)

func (f MapFormat) String() string {
	switch f {
	case FormatStandard:
		return "Standard"
	case FormatValve:
		return "Valve"
	case FormatQuake2:
		return "Quake2"
	case FormatQuake3:
		return "Quake3"
	default:
		return "Unknown"
	}
}

func ParseMapFormat(name string) (MapFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "standard":
		return FormatStandard, nil
	case "valve":
		return FormatValve, nil
	case "quake2":
		return FormatQuake2, nil
	case "quake3":
		return FormatQuake3, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown map format %q", name)
	}
}

// faceStyle partitions the formats by brush face grammar. Standard, Quake2
// and Quake3 faces share the paraxial offset syntax; Valve faces carry
// explicit texture axes. Observing both styles in one input is the
// mixed-format condition.
func (f MapFormat) usesValveFaces() bool {
	return f == FormatValve
}
