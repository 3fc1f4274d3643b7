package dom

import (
	"bufio"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/vango-dev/livetree/pkg/vdom"
)

// IDAttr is the attribute MarkIDs writes on every element.
const IDAttr = "data-lt-id"

type htmlConfig struct {
	markIDs bool
	inner   bool
}

// HTMLOption configures serialization.
type HTMLOption func(*htmlConfig)

// MarkIDs writes each element's node id as a data-lt-id attribute, so a
// client can address nodes of a server-rendered page.
func MarkIDs() HTMLOption {
	return func(c *htmlConfig) { c.markIDs = true }
}

// Inner serializes only the children of the node.
func Inner() HTMLOption {
	return func(c *htmlConfig) { c.inner = true }
}

// WriteHTML serializes n and its subtree to w. Attributes are written in
// sorted order, an attribute with an empty value is written bare, and void
// elements get no closing tag.
func WriteHTML(w io.Writer, n *Node, opts ...HTMLOption) error {
	var cfg htmlConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	bw := bufio.NewWriter(w)
	n.doc.mu.Lock()
	if cfg.inner {
		for _, c := range n.children {
			writeNode(bw, c, &cfg)
		}
	} else {
		writeNode(bw, n, &cfg)
	}
	n.doc.mu.Unlock()
	return bw.Flush()
}

// HTML returns the serialization of n.
func HTML(n *Node, opts ...HTMLOption) string {
	var sb strings.Builder
	_ = WriteHTML(&sb, n, opts...)
	return sb.String()
}

// writeNode writes one node. bufio.Writer keeps the first error and reports
// it from Flush, so individual writes are unchecked.
func writeNode(w *bufio.Writer, n *Node, cfg *htmlConfig) {
	if n.IsText() {
		w.WriteString(escapeHTML(n.text))
		return
	}

	w.WriteByte('<')
	w.WriteString(n.tag)
	if cfg.markIDs {
		w.WriteString(" " + IDAttr + `="`)
		w.WriteString(strconv.FormatUint(n.id, 10))
		w.WriteByte('"')
	}
	for _, name := range slices.Sorted(maps.Keys(n.attrs)) {
		w.WriteByte(' ')
		w.WriteString(name)
		if v := n.attrs[name]; v != "" {
			w.WriteString(`="`)
			w.WriteString(escapeAttr(v))
			w.WriteByte('"')
		}
	}
	w.WriteByte('>')

	if vdom.IsVoidElement(n.tag) {
		return
	}
	for _, c := range n.children {
		writeNode(w, c, cfg)
	}
	w.WriteString("</")
	w.WriteString(n.tag)
	w.WriteByte('>')
}
