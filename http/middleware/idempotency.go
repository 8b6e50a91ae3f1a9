package middleware

import (
	"bytes"
	"crypto/sha256"
	"io"
	"net/http"

	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"
)

// Idempotent returns an Adapter that makes a POST endpoint safe to retry.
//
// Idempotent pulls a key from the Idempotency-Key request header;
// requests without one pass through untouched.
// Keys are scoped to the current Caller, when there is one.
//
// If a previous request has not used that key,
// Idempotent pairs the hashed request body, the response body
// and the response status code to the key.
// Responses with a 5xx status are forgotten, so the client may retry them.
//
// If that key has been used before (and has not expired),
// Idempotent falls into one of these scenarios:
//
//   - the original request is still processing: 409
//   - the requested URI or the request body differ from the original's: 422
//   - otherwise, the original status code and body are written again
//
// Idempotent implements the draft Idempotency-Key HTTP Header Field specification:
// https://tools.ietf.org/id/draft-idempotency-header-01.html
func Idempotent(cache IdempotencyCacher, l logger.Logger) Adapter {
	if cache == nil {
		return NoopAdapter
	}

	if l == nil {
		l = logger.New()
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}

			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				handler.ServeHTTP(w, r)
				return
			}

			if c, ok := retention.CallerFromContext(r.Context()); ok {
				key = c.GetID() + ":" + key
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)
			ir := NewIdemRes(r.URL.RequestURI(), sum[:])

			ok, err := cache.Reserve(r.Context(), key, ir)
			if err != nil {
				l.Warn("idempotency unavailable", &logger.LogContext{Error: err, Request: r})
				handler.ServeHTTP(w, r)
				return
			}

			if !ok {
				replay(w, r, cache, key, ir, l)
				return
			}

			irw := &idemResWriter{w: w, ir: &ir}
			defer func() {
				if v := recover(); v != nil {
					cache.Delete(r.Context(), key)
					panic(v)
				}
			}()

			handler.ServeHTTP(irw, r)

			if ir.Status == 0 {
				ir.Status = http.StatusOK
			}

			if ir.Status >= http.StatusInternalServerError {
				err = cache.Delete(r.Context(), key)
			} else {
				ir.ContentType = w.Header().Get("Content-Type")
				err = cache.Set(r.Context(), key, ir)
			}

			if err != nil {
				l.Warn("failed saving idempotent response", &logger.LogContext{Error: err, Request: r})
			}
		})
	}
}

// replay answers a request whose key is already in use.
func replay(w http.ResponseWriter, r *http.Request, cache IdempotencyCacher, key string, want IdemRes, l logger.Logger) {
	ir, ok, err := cache.Get(r.Context(), key)
	if err != nil {
		l.Warn("failed reading idempotent response", &logger.LogContext{Error: err, Request: r})
		w.WriteHeader(http.StatusConflict)
		return
	}

	if !ok || ir.Status == 0 {
		w.WriteHeader(http.StatusConflict)
		return
	}

	if ir.URI != want.URI || !bytes.Equal(ir.Req, want.Req) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	if ir.ContentType != "" {
		w.Header().Set("Content-Type", ir.ContentType)
	}

	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(ir.Status)
	w.Write(ir.Body)
}

// An IdemRes is data from an HTTP response
// that can be reused when another request
// matches the same idempotency key.
type IdemRes struct {
	Body        []byte
	ContentType string
	Req         []byte
	Status      int
	URI         string
}

// NewIdemRes constructs a new IdemRes that has not received a response yet.
func NewIdemRes(uri string, hashedBody []byte) IdemRes {
	return IdemRes{URI: uri, Req: hashedBody}
}

// An idemResWriter copies what a handler writes into an IdemRes.
type idemResWriter struct {
	w  http.ResponseWriter
	ir *IdemRes
}

func (irw *idemResWriter) Header() http.Header { return irw.w.Header() }

func (irw *idemResWriter) Write(b []byte) (int, error) {
	if irw.ir.Status == 0 {
		irw.WriteHeader(http.StatusOK)
	}

	n, err := irw.w.Write(b)
	irw.ir.Body = append(irw.ir.Body, b[:n]...)
	return n, err
}

func (irw *idemResWriter) WriteHeader(s int) {
	if irw.ir.Status != 0 {
		return
	}

	irw.ir.Status = s
	irw.w.WriteHeader(s)
}
