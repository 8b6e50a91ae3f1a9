package resp

import (
	"fmt"
	"net/http"

	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
)

// A Fn is a functional option that mutates the state of the Response.
type Fn func(Responder, *Response) error

// A Response is the internal object a Responder response method builds while applying all
// functional options.
type Response struct {
	w    http.ResponseWriter
	r    *http.Request
	code int
	data any
	user logger.LogUser
}

// Code sets the response status code.
func Code(c int) Fn {
	return func(_ Responder, r *Response) error {
		if c < 100 || c > 599 {
			return fmt.Errorf("%w: status code %d", retention.ErrNotValid, c)
		}

		r.code = c
		return nil
	}
}

// Data stores the value to write to the client.
func Data(d any) Fn {
	return func(_ Responder, r *Response) error {
		r.data = d
		return nil
	}
}

// Err sets the status code StatusFor assigns e and logs e.
//
// Server errors log at the error level, client errors at debug.
func Err(e error) Fn {
	return func(d Responder, r *Response) error {
		r.code = StatusFor(e)
		if e == nil {
			return nil
		}

		ctx := &logger.LogContext{
			Data:    map[string]any{retention.LogKindKey: retention.HTTPLogKind, "status": r.code},
			Error:   e,
			Request: r.r,
			User:    r.user,
		}

		if r.code >= http.StatusInternalServerError {
			d.logger.Error(e.Error(), ctx)
			return nil
		}

		d.logger.Debug(e.Error(), ctx)
		return nil
	}
}
