// Package dom provides an in-memory render target for livetree.
//
// A Document creates Nodes that implement the vdom render-target contract.
// Every successful primitive is appended to the document's mutation log,
// which a server drains with Flush and streams to remote viewers. Nodes can
// be serialized to HTML and events can be dispatched to the handlers the
// reconciler registered:
//
//	doc := dom.New()
//	root := doc.Container("main")
//	r := vdom.NewReconciler(doc)
//	live, _ := r.Materialize(vdom.Button(vdom.OnClick(h), "+1"))
//	_ = root.AppendChild(live)
//	fmt.Println(dom.HTML(root)) // <main><button>+1</button></main>
package dom
