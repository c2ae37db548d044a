// Package urlparam reads and writes single URL query parameters and models
// the host navigation mechanism that owns the current query string.
//
// The codec is deliberately narrow: Encode produces a query string holding
// exactly one parameter, so writing a value replaces any other parameters
// already present. Decode tolerates arbitrary input and degrades to "" for
// absent, valueless or malformed parameters.
//
// Example:
//
//	q := urlparam.Encode("search", "hello world") // "?search=hello%20world"
//	v := urlparam.Decode(q, "search")             // "hello world"
//
//	h := urlparam.NewHistory("?search=go")
//	h.Subscribe(func(query string) { binder.Update(query) })
//	h.PushQuery(urlparam.Encode("search", "rust"))
package urlparam
