/*
Package router registers the retention service's routes on a [gorilla/mux] router.

A [Router] leverages a standardized data model, a [Route], when registering how requests should be routed.
A path and an HTTP method comprise a [Route].
Before a request gets to a handler,
any middlewares added to the Route are called in the order they appear.

Routes share middleware stacks in groups.
AuthedRoutes places routes behind bearer authentication;
AdminRoutes additionally requires the Caller be an admin.
Registering related routes together keeps a route from being exposed without its guards.

[gorilla/mux]: https://github.com/gorilla/mux
*/
package router
