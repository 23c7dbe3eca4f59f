package schema

import "strings"

// InterfaceKind enumerates the field interfaces the engine attaches
// behavior to. Anything else is InterfaceCustom.
type InterfaceKind int

const (
	InterfacePlain InterfaceKind = iota
	InterfacePrimaryKey
	InterfaceStatus
	InterfaceSort
	InterfaceDateCreated
	InterfaceUserCreated
	InterfaceDateModified
	InterfaceUserModified
	InterfaceTranslation
	InterfaceSlug
	InterfacePassword
	InterfaceFile
	InterfaceCustom
)

var interfaceNames = map[string]InterfaceKind{
	"":              InterfacePlain,
	"primary_key":   InterfacePrimaryKey,
	"status":        InterfaceStatus,
	"sort":          InterfaceSort,
	"date_created":  InterfaceDateCreated,
	"user_created":  InterfaceUserCreated,
	"date_modified": InterfaceDateModified,
	"user_modified": InterfaceUserModified,
	"translation":   InterfaceTranslation,
	"slug":          InterfaceSlug,
	"password":      InterfacePassword,
	"file":          InterfaceFile,
	"single_file":   InterfaceFile,
}

// Interface is the behavioral tag of a field. Raw keeps the original string
// so custom interfaces round-trip unchanged.
type Interface struct {
	Kind InterfaceKind
	Raw  string
}

// ParseInterface classifies a raw interface name.
func ParseInterface(raw string) Interface {
	name := strings.TrimSpace(raw)
	if kind, ok := interfaceNames[strings.ToLower(name)]; ok {
		return Interface{Kind: kind, Raw: name}
	}
	return Interface{Kind: InterfaceCustom, Raw: name}
}

func (i Interface) String() string { return i.Raw }

// Is reports whether the interface has the given kind.
func (i Interface) Is(kind InterfaceKind) bool { return i.Kind == kind }

// IsSystem reports whether the interface is managed by the engine rather
// than by the user.
func (i Interface) IsSystem() bool {
	switch i.Kind {
	case InterfacePrimaryKey, InterfaceStatus, InterfaceSort,
		InterfaceDateCreated, InterfaceUserCreated,
		InterfaceDateModified, InterfaceUserModified:
		return true
	}
	return false
}
