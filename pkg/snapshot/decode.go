package snapshot

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/livetree/pkg/vdom"
)

// Decoding errors. Every error returned by Parse and Load is an *Error
// wrapping one of these.
var (
	ErrSyntax      = errors.New("snapshot: invalid syntax")
	ErrRoot        = errors.New("snapshot: document must describe exactly one node")
	ErrMissingTag  = errors.New("snapshot: element without a tag")
	ErrUnsupported = errors.New("snapshot: unsupported node")
	ErrUnknownKey  = errors.New("snapshot: unknown key")
	ErrAttrValue   = errors.New("snapshot: invalid attribute value")
)

// Error locates a decoding failure. Line and Column are 1-based and zero
// when unknown.
type Error struct {
	File   string
	Line   int
	Column int
	Err    error
	Detail string
}

func (e *Error) Error() string {
	pos := e.File
	if e.Line > 0 {
		if pos == "" {
			pos = "line"
		}
		pos += ":" + strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column)
	}
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if pos == "" {
		return msg
	}
	return pos + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Load reads the snapshot file at path.
func Load(path string, reg *Registry) (vdom.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := decoder{file: path, reg: reg}
	return d.decode(data)
}

// Parse decodes a snapshot document. A nil reg uses a fresh Registry.
func Parse(data []byte, reg *Registry) (vdom.Node, error) {
	d := decoder{reg: reg}
	return d.decode(data)
}

type decoder struct {
	file string
	reg  *Registry
}

func (d *decoder) fail(n *yaml.Node, err error, format string, args ...any) error {
	e := &Error{File: d.file, Err: err}
	if n != nil {
		e.Line, e.Column = n.Line, n.Column
	}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}

func (d *decoder) decode(data []byte) (vdom.Node, error) {
	if d.reg == nil {
		d.reg = NewRegistry()
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{File: d.file, Err: ErrSyntax, Detail: err.Error()}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, d.fail(nil, ErrRoot, "empty document")
	}

	root := doc.Content[0]
	nodes, err := d.nodes(root, nil)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, d.fail(root, ErrRoot, "found %d nodes", len(nodes))
	}
	return nodes[0], nil
}

// nodes appends the snapshot nodes n describes to out.
func (d *decoder) nodes(n *yaml.Node, out []vdom.Node) ([]vdom.Node, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return d.nodes(n.Alias, out)

	case yaml.ScalarNode:
		s, ok, err := d.text(n)
		if err != nil || !ok {
			return out, err
		}
		return append(out, vdom.Text(s)), nil

	case yaml.SequenceNode:
		var err error
		for _, c := range n.Content {
			if out, err = d.nodes(c, out); err != nil {
				return out, err
			}
		}
		return out, nil

	case yaml.MappingNode:
		node, err := d.mapping(n)
		if err != nil {
			return out, err
		}
		return append(out, node), nil

	default:
		return out, d.fail(n, ErrUnsupported, "")
	}
}

// text converts a scalar child. ok is false for values the builders drop.
func (d *decoder) text(n *yaml.Node) (s string, ok bool, err error) {
	switch n.ShortTag() {
	case "!!null", "!!bool":
		return "", false, nil
	case "!!int":
		var v int64
		if err := n.Decode(&v); err != nil {
			// Out of int64 range; keep the literal.
			return n.Value, true, nil
		}
		return strconv.FormatInt(v, 10), true, nil
	case "!!float":
		var v float64
		if err := n.Decode(&v); err != nil {
			return "", false, d.fail(n, ErrUnsupported, "%v", err)
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	default:
		return n.Value, n.Value != "", nil
	}
}

func (d *decoder) mapping(n *yaml.Node) (vdom.Node, error) {
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, d.fail(k, ErrUnknownKey, "keys must be strings")
		}
		fields[k.Value] = v
	}

	if _, ok := fields["tag"]; ok {
		return d.element(n, fields)
	}
	if v, ok := fields["text"]; ok {
		if len(fields) > 1 {
			return nil, d.fail(n, ErrUnknownKey, "a text node only has a text key")
		}
		if v.Kind != yaml.ScalarNode {
			return nil, d.fail(v, ErrUnsupported, "text must be a scalar")
		}
		s, _, err := d.text(v)
		if err != nil {
			return nil, err
		}
		return vdom.Text(s), nil
	}
	return nil, d.fail(n, ErrMissingTag, "")
}

func (d *decoder) element(n *yaml.Node, fields map[string]*yaml.Node) (vdom.Node, error) {
	for i := 0; i < len(n.Content); i += 2 {
		switch k := n.Content[i]; k.Value {
		case "tag", "attrs", "class", "style", "on", "children":
		default:
			return nil, d.fail(k, ErrUnknownKey, "%q", k.Value)
		}
	}

	tagNode := fields["tag"]
	if tagNode.Kind != yaml.ScalarNode || tagNode.ShortTag() != "!!str" || tagNode.Value == "" {
		return nil, d.fail(tagNode, ErrMissingTag, "tag must be a non-empty string")
	}

	var args []any

	if v, ok := fields["attrs"]; ok {
		attrs, err := d.attrs(v)
		if err != nil {
			return nil, err
		}
		args = append(args, attrs)
	}

	if v, ok := fields["class"]; ok {
		a, err := d.class(v)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}

	if v, ok := fields["style"]; ok {
		attrs, err := d.style(v)
		if err != nil {
			return nil, err
		}
		args = append(args, attrs)
	}

	if v, ok := fields["on"]; ok {
		ls, err := d.listeners(v)
		if err != nil {
			return nil, err
		}
		args = append(args, ls)
	}

	if v, ok := fields["children"]; ok {
		children, err := d.nodes(v, nil)
		if err != nil {
			return nil, err
		}
		args = append(args, children)
	}

	return vdom.El(tagNode.Value, args...), nil
}

func (d *decoder) attrs(n *yaml.Node) ([]vdom.Attr, error) {
	if n.ShortTag() == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, d.fail(n, ErrAttrValue, "attrs must be a mapping")
	}
	out := make([]vdom.Attr, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind == yaml.AliasNode {
			v = v.Alias
		}
		if v.Kind != yaml.ScalarNode {
			return nil, d.fail(v, ErrAttrValue, "%s must be a string, number or boolean", k.Value)
		}
		val, err := d.attrValue(v)
		if err != nil {
			return nil, err
		}
		out = append(out, vdom.Attribute(k.Value, val))
	}
	return out, nil
}

func (d *decoder) attrValue(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.fail(n, ErrAttrValue, "%v", err)
		}
		return b, nil
	default:
		s, _, err := d.text(n)
		return s, err
	}
}

func (d *decoder) class(n *yaml.Node) (vdom.Attr, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return vdom.Class(n.Value), nil
	case yaml.SequenceNode:
		names := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return vdom.Attr{}, d.fail(c, ErrAttrValue, "class names must be strings")
			}
			names = append(names, c.Value)
		}
		return vdom.Class(names...), nil
	default:
		return vdom.Attr{}, d.fail(n, ErrAttrValue, "class must be a string or a list")
	}
}

func (d *decoder) style(n *yaml.Node) ([]vdom.Attr, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return []vdom.Attr{vdom.Style(n.Value)}, nil
	case yaml.MappingNode:
		out := make([]vdom.Attr, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return nil, d.fail(v, ErrAttrValue, "style %s must be a scalar", k.Value)
			}
			out = append(out, vdom.CSS(k.Value, v.Value))
		}
		return out, nil
	default:
		return nil, d.fail(n, ErrAttrValue, "style must be a string or a mapping")
	}
}

func (d *decoder) listeners(n *yaml.Node) ([]vdom.Listener, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.fail(n, ErrUnsupported, "on must map events to handler names")
	}
	out := make([]vdom.Listener, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch {
		case v.ShortTag() == "!!null":
			out = append(out, vdom.On(k.Value, nil))
		case v.Kind == yaml.ScalarNode && v.Value != "":
			out = append(out, vdom.On(k.Value, d.reg.Handler(v.Value)))
		default:
			return nil, d.fail(v, ErrUnsupported, "handler for %s must be a name", k.Value)
		}
	}
	return out, nil
}
