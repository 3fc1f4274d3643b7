package vdom

import (
	"maps"
	"slices"
)

type valueKind uint8

const (
	valueAbsent valueKind = iota
	valueTrue
	valueFalse
	valueString
)

// AttrValue is an attribute value: a string, true, false, or absent.
// The zero AttrValue is absent. AttrValue is comparable; two values are
// equal when they have the same kind and, for strings, the same text.
type AttrValue struct {
	kind valueKind
	str  string
}

// Absent is the value of an attribute that is not set.
var Absent = AttrValue{}

// String returns a string attribute value.
func String(s string) AttrValue {
	return AttrValue{kind: valueString, str: s}
}

// Bool returns the presence value true or the explicit value false.
func Bool(b bool) AttrValue {
	if b {
		return AttrValue{kind: valueTrue}
	}
	return AttrValue{kind: valueFalse}
}

// IsSet reports whether the value puts the attribute on a live node:
// true for strings and true, false for false and absent.
func (v AttrValue) IsSet() bool {
	return v.kind == valueTrue || v.kind == valueString
}

// IsPresence reports whether the value is true (a valueless attribute).
func (v AttrValue) IsPresence() bool {
	return v.kind == valueTrue
}

// IsString reports whether the value is a string.
func (v AttrValue) IsString() bool {
	return v.kind == valueString
}

// Text returns the string value, or "" for the other kinds.
func (v AttrValue) Text() string {
	return v.str
}

// String returns a debug representation of the value.
func (v AttrValue) String() string {
	switch v.kind {
	case valueTrue:
		return "true"
	case valueFalse:
		return "false"
	case valueString:
		return `"` + v.str + `"`
	default:
		return "absent"
	}
}

// Attrs maps attribute names to values.
type Attrs map[string]AttrValue

// Get returns the value for name, or Absent.
func (a Attrs) Get(name string) AttrValue {
	return a[name]
}

// Has reports whether name is a key of the map, whatever its value.
func (a Attrs) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Keys returns the attribute names in sorted order.
func (a Attrs) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}
