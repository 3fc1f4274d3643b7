// Package errors provides coded, printable errors for the livetree
// command line.
//
// Library packages report failures with sentinel errors. The CLI wraps them
// in an *Error carrying a code from the registry, a category, an optional
// source location inside a snapshot or config file and a hint:
//
//	err := errors.New("E102").
//	    WithLocation("counter.yaml", 4, 5).
//	    WithSuggestion("Add a tag key, e.g. tag: div")
//
//	fmt.Print(err.Format())
//	// ERROR E102: Element without a tag
//	//
//	//   counter.yaml:4:5
//	//
//	//       3 │ children:
//	//   →   4 │   - attrs: {id: x}
//	//         │     ^
//	//       5 │     children: [hi]
//	//
//	//   Hint: Add a tag key, e.g. tag: div
//
// Wrapped errors stay reachable through errors.Is and errors.As.
package errors
