package fact

import (
	"fmt"
)

// Kind controls how a fact is shown and how its name is placed in the
// fact collection.
type Kind int

const (
	// Core facts are built in. Dotted names expand into nested mappings.
	Core Kind = iota
	// Legacy facts are historical flat names kept for compatibility. They
	// are hidden unless requested and their names are never expanded.
	Legacy
	// Custom facts are supplied by the user (external fact files).
	Custom
	// CustomLegacy facts are user supplied facts with flat names.
	CustomLegacy
)

var kindNames = map[Kind]string{
	Core:         "core",
	Legacy:       "legacy",
	Custom:       "custom",
	CustomLegacy: "custom_legacy",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	return Core, fmt.Errorf("unknown fact kind %q", s)
}

// IsLegacy reports whether facts of this kind keep flat names.
func (k Kind) IsLegacy() bool {
	return k == Legacy || k == CustomLegacy
}

// IsCustom reports whether facts of this kind come from the user.
func (k Kind) IsCustom() bool {
	return k == Custom || k == CustomLegacy
}
