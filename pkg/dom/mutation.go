package dom

import (
	"fmt"
	"strconv"
)

// Op identifies a render-target primitive in the mutation log.
type Op uint8

const (
	OpCreateElement  Op = 0x01 // Key = tag
	OpCreateText     Op = 0x02 // Value = text
	OpSetAttr        Op = 0x03 // Key = name, Value = value
	OpRemoveAttr     Op = 0x04 // Key = name
	OpAddListener    Op = 0x05 // Key = event
	OpRemoveListener Op = 0x06 // Key = event
	OpAppendChild    Op = 0x07 // Child appended to Target
	OpReplaceChild   Op = 0x08 // Child replaces Old under Target
	OpRemoveChild    Op = 0x09 // Child removed from Target
	OpSetText        Op = 0x0A // Value = text
)

// String returns the string representation of the Op.
func (op Op) String() string {
	switch op {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpAddListener:
		return "AddListener"
	case OpRemoveListener:
		return "RemoveListener"
	case OpAppendChild:
		return "AppendChild"
	case OpReplaceChild:
		return "ReplaceChild"
	case OpRemoveChild:
		return "RemoveChild"
	case OpSetText:
		return "SetText"
	default:
		return "Op(" + strconv.Itoa(int(op)) + ")"
	}
}

// Valid reports whether op is a known operation.
func (op Op) Valid() bool {
	return op >= OpCreateElement && op <= OpSetText
}

// Mutation is one successful primitive applied to a Document.
type Mutation struct {
	Op     Op
	Target uint64 // Node the primitive was called on (or created)
	Child  uint64 // Appended, inserted or removed child
	Old    uint64 // Replaced child
	Key    string // Tag, attribute name or event name
	Value  string // Attribute value or text
}

// String returns a compact, stable form used by the CLI and in tests.
func (m Mutation) String() string {
	switch m.Op {
	case OpCreateElement:
		return fmt.Sprintf("#%d = <%s>", m.Target, m.Key)
	case OpCreateText:
		return fmt.Sprintf("#%d = text %q", m.Target, m.Value)
	case OpSetAttr:
		return fmt.Sprintf("#%d.%s = %q", m.Target, m.Key, m.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("#%d.%s removed", m.Target, m.Key)
	case OpAddListener:
		return fmt.Sprintf("#%d on %s", m.Target, m.Key)
	case OpRemoveListener:
		return fmt.Sprintf("#%d off %s", m.Target, m.Key)
	case OpAppendChild:
		return fmt.Sprintf("#%d append #%d", m.Target, m.Child)
	case OpReplaceChild:
		return fmt.Sprintf("#%d replace #%d with #%d", m.Target, m.Old, m.Child)
	case OpRemoveChild:
		return fmt.Sprintf("#%d remove #%d", m.Target, m.Child)
	case OpSetText:
		return fmt.Sprintf("#%d text = %q", m.Target, m.Value)
	default:
		return m.Op.String()
	}
}
