package vdom

import (
	"fmt"
	"strconv"
	"strings"
)

// Attr is an attribute fragment applied to an element under construction.
// A fragment with an empty Key is ignored.
type Attr struct {
	Key   string
	Value AttrValue
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// attr creates an Attr with the given key and value.
func attr(key string, value AttrValue) Attr {
	return Attr{Key: key, Value: value}
}

// Attribute creates an attribute from a loosely typed value. Strings and
// booleans map directly; numbers and fmt.Stringer values are formatted;
// nil yields an absent value.
func Attribute(key string, value any) Attr {
	return attr(key, toAttrValue(value))
}

// BoolAttr sets a valueless attribute when on is true and an explicit false
// otherwise, which removes it from the live node.
func BoolAttr(key string, on bool) Attr { return attr(key, Bool(on)) }

// toAttrValue converts a loosely typed value to an AttrValue.
func toAttrValue(v any) AttrValue {
	switch val := v.(type) {
	case nil:
		return Absent
	case AttrValue:
		return val
	case string:
		return String(val)
	case bool:
		return Bool(val)
	default:
		if s, ok := formatScalar(v); ok {
			return String(s)
		}
		return String(fmt.Sprintf("%v", v))
	}
}

// formatScalar formats numbers and Stringers the way text children are
// coerced.
func formatScalar(v any) (string, bool) {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val), true
	case int8:
		return strconv.FormatInt(int64(val), 10), true
	case int16:
		return strconv.FormatInt(int64(val), 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint8:
		return strconv.FormatUint(uint64(val), 10), true
	case uint16:
		return strconv.FormatUint(uint64(val), 10), true
	case uint32:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}

// Identity attributes

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", String(id)) }

// Class adds classes to the class attribute. Repeated Class fragments on the
// same element merge: tokens are de-duplicated, first occurrence wins.
func Class(classes ...string) Attr {
	joined := strings.Join(strings.Fields(strings.Join(classes, " ")), " ")
	if joined == "" {
		return Attr{}
	}
	return attr("class", String(joined))
}

// ClassIf adds a class conditionally.
func ClassIf(condition bool, class string) Attr {
	if condition {
		return Class(class)
	}
	return Attr{} // Empty attr, will be ignored
}

// Style adds CSS declarations ("color: red") to the style attribute.
// Repeated Style fragments merge per property; a later value wins.
func Style(declarations ...string) Attr {
	return attr("style", String(mergeStyles("", strings.Join(declarations, ";"))))
}

// CSS creates a single style declaration.
func CSS(property, value string) Attr {
	return attr("style", String(property+": "+value))
}

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, String(value)) }

// Accessibility attributes

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", String(role)) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", String(label)) }

// AriaHidden sets the aria-hidden attribute.
func AriaHidden(hidden bool) Attr { return attr("aria-hidden", String(strconv.FormatBool(hidden))) }

// AriaExpanded sets the aria-expanded attribute.
func AriaExpanded(expanded bool) Attr {
	return attr("aria-expanded", String(strconv.FormatBool(expanded)))
}

// TabIndex sets the tabindex attribute.
func TabIndex(index int) Attr { return attr("tabindex", String(strconv.Itoa(index))) }

// Visibility attributes

// Hidden sets the hidden attribute.
func Hidden() Attr { return attr("hidden", Bool(true)) }

// Title sets the title attribute.
func Title(title string) Attr { return attr("title", String(title)) }

// Link attributes

// Href sets the href attribute.
func Href(url string) Attr { return attr("href", String(url)) }

// Target sets the target attribute.
func Target(target string) Attr { return attr("target", String(target)) }

// Rel sets the rel attribute.
func Rel(rel string) Attr { return attr("rel", String(rel)) }

// Form input attributes

// Name sets the name attribute.
func Name(name string) Attr { return attr("name", String(name)) }

// Value sets the value attribute.
func Value(value string) Attr { return attr("value", String(value)) }

// Type sets the type attribute.
func Type(t string) Attr { return attr("type", String(t)) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Attr { return attr("placeholder", String(text)) }

// For sets the for attribute (for labels).
func For(id string) Attr { return attr("for", String(id)) }

// Form state attributes

// Disabled sets or clears the disabled attribute.
func Disabled(on bool) Attr { return BoolAttr("disabled", on) }

// Checked sets or clears the checked attribute.
func Checked(on bool) Attr { return BoolAttr("checked", on) }

// Required sets the required attribute.
func Required() Attr { return attr("required", Bool(true)) }

// Readonly sets the readonly attribute.
func Readonly() Attr { return attr("readonly", Bool(true)) }

// Autofocus sets the autofocus attribute.
func Autofocus() Attr { return attr("autofocus", Bool(true)) }

// Media attributes

// Src sets the src attribute.
func Src(url string) Attr { return attr("src", String(url)) }

// Alt sets the alt attribute.
func Alt(text string) Attr { return attr("alt", String(text)) }

// AttrIf adds any attribute conditionally.
func AttrIf(condition bool, a Attr) Attr {
	if condition {
		return a
	}
	return Attr{}
}

// mergeClasses joins two class lists, dropping repeated tokens while keeping
// first-seen order.
func mergeClasses(existing, added string) string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range []string{existing, added} {
		for _, class := range strings.Fields(list) {
			if seen[class] {
				continue
			}
			seen[class] = true
			out = append(out, class)
		}
	}
	return strings.Join(out, " ")
}

// mergeStyles merges two CSS declaration lists. A property keeps the position
// of its first declaration and the value of its last one. Declarations
// without a property or a value are dropped.
func mergeStyles(existing, added string) string {
	var order []string
	values := make(map[string]string)
	for _, list := range []string{existing, added} {
		for _, decl := range strings.Split(list, ";") {
			prop, val, ok := strings.Cut(decl, ":")
			prop, val = strings.TrimSpace(prop), strings.TrimSpace(val)
			if !ok || prop == "" || val == "" {
				continue
			}
			if _, seen := values[prop]; !seen {
				order = append(order, prop)
			}
			values[prop] = val
		}
	}

	parts := make([]string, 0, len(order))
	for _, prop := range order {
		parts = append(parts, prop+": "+values[prop])
	}
	return strings.Join(parts, "; ")
}
