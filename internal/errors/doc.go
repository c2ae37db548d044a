// Package errors provides structured, actionable error messages for the
// querybind command line and server.
//
// Each error carries a code (e.g. "Q001") that maps to a category, a short
// message and a longer explanation. Errors can wrap an underlying cause and
// carry a hint on how to resolve them.
//
// # Usage
//
//	err := errors.New("Q101").
//	    WithDetail("port 0 is not allowed").
//	    WithSuggestion("Set server.port to a value between 1 and 65535")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR Q101: Invalid configuration
//	//
//	//   port 0 is not allowed
//	//
//	//   Hint: Set server.port to a value between 1 and 65535
package errors
