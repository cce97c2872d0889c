// Package router defines a routing-implementation-independent interface so
// core's handlers depend on Router/Params instead of a concrete httprouter
// type.
package router

import (
	"context"
	"net/http"
)

// Param is a single named path parameter (e.g. the "id" in "/blocks/:id").
type Param struct {
	Key   string
	Value string
}

// Params is the ordered set of path parameters matched for a request.
type Params []Param

// Get returns the value for key, or "" if it was not matched.
func (p Params) Get(key string) string {
	for _, param := range p {
		if param.Key == key {
			return param.Value
		}
	}
	return ""
}

// ParamGeter extracts Params from a request context. Each Router
// implementation supplies its own, since the underlying library decides
// how params are stashed in the context.
type ParamGeter interface {
	Get(ctx context.Context) Params
}

// Router is the subset of routing behavior core's handlers depend on.
type Router interface {
	http.Handler
	Get(path string, handler http.Handler)
	Post(path string, handler http.Handler)
	Put(path string, handler http.Handler)
	Delete(path string, handler http.Handler)
	Handler(method, path string, handler http.Handler)
}
