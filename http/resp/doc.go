/*
Package resp provides a high-level API for responding to HTTP requests with JSON.

A single *Responder is configured application-wide.
Handlers shape each response through Fn functional options:

	d.Json(w, r, resp.Data(body), resp.Code(http.StatusCreated))
	d.Err(w, r, err)

Err maps the retention error taxonomy onto HTTP status codes with StatusFor.
*/
package resp
