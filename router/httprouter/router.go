// Package httprouter adapts github.com/julienschmidt/httprouter to the
// router.Router interface.
package httprouter

import (
	"context"
	"net/http"

	"github.com/caasmo/fraudgate/router"
	jshttprouter "github.com/julienschmidt/httprouter"
)

// Router wraps jshttprouter.Router to satisfy router.Router.
type Router struct {
	*jshttprouter.Router
}

func New() *Router {
	return &Router{jshttprouter.New()}
}

func (r *Router) Get(path string, handler http.Handler) {
	r.Handler(http.MethodGet, path, handler)
}

func (r *Router) Post(path string, handler http.Handler) {
	r.Handler(http.MethodPost, path, handler)
}

func (r *Router) Put(path string, handler http.Handler) {
	r.Handler(http.MethodPut, path, handler)
}

func (r *Router) Delete(path string, handler http.Handler) {
	r.Handler(http.MethodDelete, path, handler)
}

// paramGeter reads params jshttprouter stashed in the request context.
type paramGeter struct{}

func (paramGeter) Get(ctx context.Context) router.Params {
	raw, _ := ctx.Value(jshttprouter.ParamsKey).(jshttprouter.Params)

	params := make(router.Params, 0, len(raw))
	for _, p := range raw {
		params = append(params, router.Param{Key: p.Key, Value: p.Value})
	}
	return params
}

// NewParamGeter returns the router.ParamGeter for this implementation.
func NewParamGeter() router.ParamGeter {
	return paramGeter{}
}
