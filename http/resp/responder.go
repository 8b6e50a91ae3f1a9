package resp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
)

const responderFrames = 1

// Responder maintains reusable pieces for responding to HTTP requests with JSON.
//
// Most oftentimes, a single instance of a Responder suffices for an application.
// When handling a specific HTTP request, calling code supplies data, status codes
// and errors through Fn functions.
type Responder struct {
	logger logger.Logger

	// Pool of *bytes.Buffer to prerender responses into
	pool *sync.Pool
}

// NewResponder constructs a *Responder using the ResponderOptFns passed in.
func NewResponder(opts ...ResponderOptFn) *Responder {
	d := &Responder{
		pool: &sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.New()
	}

	if l, ok := d.logger.(logger.SkipLogger); ok {
		d.logger = l.AddSkip(l.Skip() + responderFrames)
	}

	return d
}

// An errorBody is written for every response with a 4xx or 5xx status code.
type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Err writes err as JSON, using StatusFor to pick the status code
// unless a Code in opts overrides it.
//
// Client errors carry err's message so admins see the specific guard violated.
// Server errors carry only the status text; the error itself is logged.
func (doer *Responder) Err(w http.ResponseWriter, r *http.Request, err error, opts ...Fn) {
	rr, nested := doer.do(w, r, append([]Fn{Err(err)}, opts...)...)
	if nested != nil {
		rr.code = StatusFor(nested)
		err = fmt.Errorf("%w: %s", nested, err)
	}

	body := errorBody{Error: http.StatusText(rr.code)}
	if rr.code < http.StatusInternalServerError && err != nil {
		body.Error = err.Error()
	}

	if err := doer.write(w, rr.code, body); err != nil {
		doer.logger.Error("failed writing error response", &logger.LogContext{Error: err, Request: r})
	}
}

// Json writes the data set by Data as JSON.
//
// The default status code is 200.
func (doer *Responder) Json(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		if !errors.Is(err, ErrDone) {
			err = fmt.Errorf("%w: %s", retention.ErrUnexpected, err)
		}

		doer.Err(w, r, err)
		return err
	}

	if rr.code == 0 {
		rr.code = http.StatusOK
	}

	return doer.write(w, rr.code, rr.data)
}

// write encodes v into a pooled buffer before setting headers,
// so an encoding failure can still become a 500.
func (doer *Responder) write(w http.ResponseWriter, code int, v any) error {
	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	if err := json.NewEncoder(b).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return fmt.Errorf("%w: encoding response: %s", retention.ErrUnexpected, err)
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	if _, err := b.WriteTo(w); err != nil {
		return err
	}

	return nil
}

// do applies all options to a new *Response in order, stopping at the first error.
func (doer *Responder) do(w http.ResponseWriter, r *http.Request, opts ...Fn) (*Response, error) {
	resp := &Response{w: w, r: r}
	if caller, ok := retention.CallerFromContext(r.Context()); ok {
		resp.user = caller
	}

	for _, opt := range opts {
		select {
		case <-r.Context().Done():
			resp.code = StatusFor(ErrDone)
			return resp, ErrDone
		default:
			if err := opt(*doer, resp); err != nil {
				return resp, err
			}
		}
	}

	return resp, nil
}
