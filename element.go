package htmlclean

import "strings"

// FlowKind classifies how an element participates in text flow.
type FlowKind int

const (
	FlowNone FlowKind = iota
	FlowInline
	FlowBlock
)

func (k FlowKind) String() string {
	switch k {
	case FlowInline:
		return "inline"
	case FlowBlock:
		return "block"
	}
	return "none"
}

// StructuralType marks elements that carry layout semantics.
type StructuralType int

const (
	StructuralNone StructuralType = iota
	StructuralTable
)

// ValueKind describes what an attribute value holds and therefore how
// it is checked before being kept.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueURI
	ValueScript
	ValueEnum
	ValueBoolean
)

func (k ValueKind) String() string {
	switch k {
	case ValueURI:
		return "uri"
	case ValueScript:
		return "script"
	case ValueEnum:
		return "enum"
	case ValueBoolean:
		return "boolean"
	}
	return "none"
}

// Element describes a recognized element. Elements are immutable once
// handed out by a Whitelist and are compared by name with SameAs.
type Element struct {
	// Name is the lowercase element name.
	Name string

	// Empty elements never have content or an end tag (<br>, <img>).
	Empty bool

	// OptionalEndTag elements are implicitly closed when a sibling of
	// the same group opens (<td>, <li>, <p>).
	OptionalEndTag bool

	BreaksFlow bool
	Flow       FlowKind
	Structural StructuralType

	unknown bool
}

// SameAs reports whether e and o name the same element.
func (e *Element) SameAs(o *Element) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e == o || strings.EqualFold(e.Name, o.Name)
}

// Unknown reports whether e is a placeholder fabricated for a name no
// whitelist recognized. Only PreserveAll parsing produces these.
func (e *Element) Unknown() bool { return e.unknown }

// IsTable reports whether e is the table element itself.
func (e *Element) IsTable() bool {
	return e.Structural == StructuralTable && e.Name == "table"
}

func (e *Element) String() string { return e.Name }

// Attribute describes a recognized attribute.
type Attribute struct {
	// Name is the lowercase attribute name.
	Name string
	Kind ValueKind

	// Values lists the accepted values of a ValueEnum attribute.
	Values []string

	unknown bool
}

// SameAs reports whether a and o name the same attribute.
func (a *Attribute) SameAs(o *Attribute) bool {
	if a == nil || o == nil {
		return a == o
	}
	return a == o || strings.EqualFold(a.Name, o.Name)
}

// Unknown reports whether a is a placeholder for an unrecognized name.
func (a *Attribute) Unknown() bool { return a.unknown }

func (a *Attribute) String() string { return a.Name }

func (a *Attribute) allows(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, allowed := range a.Values {
		if v == allowed {
			return true
		}
	}
	return false
}
