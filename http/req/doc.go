/*
Package req parses payloads out of an HTTP request.

Package req decodes JSON bodies and query parameters into a pointer to a struct.
That struct leverages struct tags for two tasks:
matching keys in the payload to fields ("json" or "schema")
and validating the payload's data meets requirements ("validate").

Every failure a client can cause unwraps to retention.ErrNotValid.
Validation failures are ValidationErrors,
which marshal into a list the client can act on.
*/
package req
