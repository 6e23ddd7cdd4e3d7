package server

import (
	"net/http"
	"slices"
)

// BasicRouter implements [Router] with "METHOD /path" patterns on an [http.ServeMux].
//
// Requests with the wrong method get a 405 and an Allow header from the mux itself.
type BasicRouter struct {
	mux   *http.ServeMux
	stack []Middleware
}

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware. It applies to routes registered afterwards; the first added runs first.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.stack = append(r.stack, middleware...)
}

func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(method+" "+path, r.wrap(handler))
}

// Handler registers each of handler's routes for GET, which is how the OAuth redirect arrives.
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.Handle(http.MethodGet, route, handler)
	}
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *BasicRouter) wrap(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(r.stack) {
		handler = mw(handler)
	}
	return handler
}
