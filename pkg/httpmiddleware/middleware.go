// Package httpmiddleware holds the net/http middleware chain shared by the
// HTTP binaries.
package httpmiddleware

import "net/http"

// Middleware decorates a handler.
type Middleware func(next http.Handler) http.Handler

// Wrap applies mws so that the first one is the outermost.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
