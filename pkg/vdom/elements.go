package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// El creates an element with the given tag.
//
// Arguments can be: nil, Attr, []Attr, Listener, []Listener, Node, []Node,
// []*Element, []*TextNode, []any (flattened recursively), string, numbers,
// fmt.Stringer and bool. Strings, numbers and Stringers become text
// children; empty strings, false and nil are dropped. Attribute fragments
// apply in order: class and style merge, any other key is overwritten by a
// later fragment. A later Listener for the same event replaces an earlier one.
func El(tag string, args ...any) *Element {
	return createElement(tag, args)
}

// createElement creates a new Element with the given tag and arguments.
func createElement(tag string, args []any) *Element {
	el := &Element{
		Tag:      tag,
		Attrs:    make(Attrs),
		Handlers: make(Handlers),
		Children: make([]Node, 0, len(args)),
	}
	for _, arg := range args {
		el.apply(arg)
	}
	return el
}

// apply folds one builder argument into the element.
func (el *Element) apply(arg any) {
	switch v := arg.(type) {
	case nil:
		// Ignore nil (allows conditional children and attributes)

	case Attr:
		el.mergeAttr(v)

	case []Attr:
		for _, a := range v {
			el.mergeAttr(a)
		}

	case Listener:
		el.listen(v)

	case []Listener:
		for _, l := range v {
			el.listen(l)
		}

	case Node:
		if !isNil(v) {
			el.Children = append(el.Children, v)
		}

	case []Node:
		for _, child := range v {
			el.apply(child)
		}

	case []*Element:
		for _, child := range v {
			el.apply(child)
		}

	case []*TextNode:
		for _, child := range v {
			el.apply(child)
		}

	case []any:
		for _, child := range v {
			el.apply(child)
		}

	case string:
		if v != "" {
			el.Children = append(el.Children, Text(v))
		}

	case bool:
		// Booleans render nothing; false is the usual result of a
		// short-circuited condition.

	default:
		if s, ok := formatScalar(v); ok {
			el.Children = append(el.Children, Text(s))
		}
	}
}

// mergeAttr folds an attribute fragment into Attrs.
func (el *Element) mergeAttr(a Attr) {
	if a.IsEmpty() {
		return
	}
	prev, ok := el.Attrs[a.Key]
	if ok && prev.IsString() && a.Value.IsString() {
		switch a.Key {
		case "class":
			a.Value = String(mergeClasses(prev.Text(), a.Value.Text()))
		case "style":
			a.Value = String(mergeStyles(prev.Text(), a.Value.Text()))
		}
	}
	el.Attrs[a.Key] = a.Value
}

// listen folds a handler fragment into Handlers.
func (el *Element) listen(l Listener) {
	if l.Event == "" {
		return
	}
	el.Handlers[l.Event] = l.Handler
}

// Document structure elements

func Html(args ...any) *Element { return createElement("html", args) }
func Head(args ...any) *Element { return createElement("head", args) }
func Body(args ...any) *Element { return createElement("body", args) }

// Content sectioning elements

func Header(args ...any) *Element  { return createElement("header", args) }
func Footer(args ...any) *Element  { return createElement("footer", args) }
func Main(args ...any) *Element    { return createElement("main", args) }
func Nav(args ...any) *Element     { return createElement("nav", args) }
func Section(args ...any) *Element { return createElement("section", args) }
func Article(args ...any) *Element { return createElement("article", args) }
func Aside(args ...any) *Element   { return createElement("aside", args) }
func H1(args ...any) *Element      { return createElement("h1", args) }
func H2(args ...any) *Element      { return createElement("h2", args) }
func H3(args ...any) *Element      { return createElement("h3", args) }

// Text content elements

func Div(args ...any) *Element  { return createElement("div", args) }
func P(args ...any) *Element    { return createElement("p", args) }
func Span(args ...any) *Element { return createElement("span", args) }
func Pre(args ...any) *Element  { return createElement("pre", args) }
func Ul(args ...any) *Element   { return createElement("ul", args) }
func Ol(args ...any) *Element   { return createElement("ol", args) }
func Li(args ...any) *Element   { return createElement("li", args) }
func Hr(args ...any) *Element   { return createElement("hr", args) }

// Inline text semantics

func A(args ...any) *Element      { return createElement("a", args) }
func Strong(args ...any) *Element { return createElement("strong", args) }
func Em(args ...any) *Element     { return createElement("em", args) }
func Code(args ...any) *Element   { return createElement("code", args) }
func Small(args ...any) *Element  { return createElement("small", args) }
func Br(args ...any) *Element     { return createElement("br", args) }

// Form elements

func Form(args ...any) *Element     { return createElement("form", args) }
func Input(args ...any) *Element    { return createElement("input", args) }
func Textarea(args ...any) *Element { return createElement("textarea", args) }
func Select(args ...any) *Element   { return createElement("select", args) }
func Option(args ...any) *Element   { return createElement("option", args) }
func Button(args ...any) *Element   { return createElement("button", args) }
func Label(args ...any) *Element    { return createElement("label", args) }

// Table elements

func Table(args ...any) *Element { return createElement("table", args) }
func Thead(args ...any) *Element { return createElement("thead", args) }
func Tbody(args ...any) *Element { return createElement("tbody", args) }
func Tr(args ...any) *Element    { return createElement("tr", args) }
func Th(args ...any) *Element    { return createElement("th", args) }
func Td(args ...any) *Element    { return createElement("td", args) }

// Media elements

func Img(args ...any) *Element { return createElement("img", args) }
