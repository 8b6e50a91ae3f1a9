/*
Package middleware defines what a middleware is in the retention service and the middlewares it uses.

The available middlewares are:
  - CORS
  - CurrentCaller
  - ForceHTTPS
  - Idempotent
  - InjectIPAddress
  - LogRequest
  - RateLimit
  - ReportPanic
  - RequestID
  - RequireAdmin

The router assembles them; a typical chain looks like:

	adpts := []middleware.Adapter{
		middleware.ReportPanic(env),
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(log),
		middleware.CORS(baseURL),
		middleware.CurrentCaller(responder, tokens, revocations),
	}
*/
package middleware
