package router

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/http/middleware"
	"github.com/xy-planning-network/retention/http/resp"
)

// A Route maps a path and HTTP method to an [http.HandlerFunc].
// Additional [middleware.Adapter] can be called when a server handles
// a request matching the Route.
type Route struct {
	Path        string
	Method      string
	Handler     http.HandlerFunc
	Middlewares []middleware.Adapter
}

// Router routes requests to the retention service's handlers.
type Router struct {
	Env           retention.Environment
	d             *resp.Responder
	everyReqStack []middleware.Adapter
	r             *mux.Router
}

// New constructs a [*Router] for the given environment.
// Unmatched requests receive JSON 404 and 405 responses written by d.
func New(env retention.Environment, d *resp.Responder) *Router {
	r := mux.NewRouter()
	rt := &Router{Env: env, d: d, r: r}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		d.Err(w, req, fmt.Errorf("%w: %s", retention.ErrNotFound, req.URL.Path))
	})

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		d.Err(w, req, fmt.Errorf("%w: %s %s", retention.ErrNotValid, req.Method, req.URL.Path), resp.Code(http.StatusMethodNotAllowed))
	})

	return rt
}

// AuthedRoutes registers the set of Routes as those requiring an authenticated Caller.
// authn, typically middleware.CurrentCaller, runs before middlewares.
func (r *Router) AuthedRoutes(authn middleware.Adapter, routes []Route, middlewares ...middleware.Adapter) {
	r.HandleRoutes(routes, append([]middleware.Adapter{authn}, middlewares...)...)
}

// AdminRoutes registers the set of Routes as those requiring an admin Caller.
// authn runs first, then middleware.RequireAdmin, then middlewares.
func (r *Router) AdminRoutes(authn middleware.Adapter, routes []Route, middlewares ...middleware.Adapter) {
	r.HandleRoutes(routes, append([]middleware.Adapter{authn, middleware.RequireAdmin(r.d)}, middlewares...)...)
}

// Handle applies the [Route] to the [*Router].
func (r *Router) Handle(route Route) {
	r.HandleRoutes([]Route{route})
}

// HandleRoutes registers the set of Routes on the Router
// and includes all the [middleware.Adapter] on each Route.
// Any [middleware.Adapter] already assigned to a Route is appended to middlewares,
// so are called after the default set.
func (r *Router) HandleRoutes(routes []Route, middlewares ...middleware.Adapter) {
	for _, route := range routes {
		mws := make([]middleware.Adapter, 0, len(r.everyReqStack)+len(middlewares)+len(route.Middlewares)+1)
		mws = append(mws, middleware.ReportPanic(r.Env))
		mws = append(mws, r.everyReqStack...)
		mws = append(mws, middlewares...)
		mws = append(mws, route.Middlewares...)

		r.r.Handle(route.Path, middleware.Chain(route.Handler, mws...)).Methods(route.Method)
	}
}

// OnEveryRequest appends the middlewares to the existing stack
// that the [*Router] will apply to every request.
func (r *Router) OnEveryRequest(middlewares ...middleware.Adapter) {
	r.everyReqStack = append(r.everyReqStack, middlewares...)
}

// ServeHTTP responds to an HTTP request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.r.ServeHTTP(w, req)
}

// Subrouter constructs a [Router] that handles requests to endpoints matching the prefix.
//
// e.g., r.Subrouter("/api/v1") handles requests to endpoints like /api/v1/self/delete
func (r *Router) Subrouter(prefix string) *Router {
	return &Router{
		Env:           r.Env,
		d:             r.d,
		r:             r.r.PathPrefix(prefix).Subrouter(),
		everyReqStack: append([]middleware.Adapter(nil), r.everyReqStack...),
	}
}
