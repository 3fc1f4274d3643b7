package snapshot

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/livetree/pkg/vdom"
)

// ErrUnnamedHandler is returned by Marshal for a handler the registry did
// not create.
var ErrUnnamedHandler = errors.New("snapshot: handler has no name")

// Marshal encodes n as a snapshot document that Parse turns back into an
// equivalent tree. Handlers are written by their registry name.
func Marshal(n vdom.Node, reg *Registry) ([]byte, error) {
	y, err := encodeNode(n, reg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(y); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNode(n vdom.Node, reg *Registry) (*yaml.Node, error) {
	switch v := n.(type) {
	case *vdom.TextNode:
		if v == nil {
			return nil, vdom.ErrNilNode
		}
		if v.Value == "" {
			// A bare empty string would be dropped.
			return mapping(str("text"), str("")), nil
		}
		return str(v.Value), nil

	case *vdom.Element:
		if v == nil {
			return nil, vdom.ErrNilNode
		}
		return encodeElement(v, reg)

	default:
		return nil, vdom.ErrNilNode
	}
}

func encodeElement(el *vdom.Element, reg *Registry) (*yaml.Node, error) {
	out := mapping(str("tag"), str(el.Tag))

	if keys := el.Attrs.Keys(); len(keys) > 0 {
		attrs := mapping()
		for _, k := range keys {
			v := el.Attrs[k]
			var val *yaml.Node
			switch {
			case v.IsString():
				val = str(v.Text())
			case v.IsPresence():
				val = scalar("!!bool", "true")
			case v == vdom.Bool(false):
				val = scalar("!!bool", "false")
			default:
				continue
			}
			attrs.Content = append(attrs.Content, str(k), val)
		}
		if len(attrs.Content) > 0 {
			out.Content = append(out.Content, str("attrs"), attrs)
		}
	}

	if events := el.Handlers.Events(); len(events) > 0 {
		on := mapping()
		for _, ev := range events {
			h := el.Handlers[ev]
			if h == nil {
				continue
			}
			name, ok := reg.Name(h)
			if !ok {
				return nil, fmt.Errorf("%w: %s on <%s>", ErrUnnamedHandler, ev, el.Tag)
			}
			on.Content = append(on.Content, str(ev), str(name))
		}
		if len(on.Content) > 0 {
			out.Content = append(out.Content, str("on"), on)
		}
	}

	if len(el.Children) > 0 {
		children := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, c := range el.Children {
			y, err := encodeNode(c, reg)
			if err != nil {
				return nil, err
			}
			children.Content = append(children.Content, y)
		}
		out.Content = append(out.Content, str("children"), children)
	}
	return out, nil
}

func mapping(kv ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: kv}
}

func str(s string) *yaml.Node { return scalar("!!str", s) }

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
