// Package snapshot reads and writes snapshot trees as YAML.
//
// A snapshot file describes one root node:
//
//	tag: div
//	class: [counter, big]
//	attrs:
//	  id: main
//	  hidden: false
//	on:
//	  click: increment
//	children:
//	  - tag: span
//	    children: [0]
//	  - " clicks"
//
// Strings and numbers are text nodes; empty strings, null and booleans are
// dropped like the builders drop them. Sequences are flattened into the
// surrounding child list. A mapping with a tag key is an element and one
// with a text key is a text node. The class and style shorthands merge with
// attrs.class and attrs.style the way repeated Class and Style fragments do.
//
// Handler names resolve through a Registry. The same name always yields the
// same *vdom.Handler, so reloading an unchanged file never re-registers
// listeners. JSON is valid YAML and is accepted as well.
package snapshot
