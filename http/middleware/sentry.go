package middleware

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/xy-planning-network/retention"
)

// ReportPanic recovers panics, reports them to Sentry and responds with 500.
//
// In development and testing, panics propagate as usual.
func ReportPanic(env retention.Environment) Adapter {
	if env.IsDevelopment() || env.IsTesting() {
		return NoopAdapter
	}

	sh := sentryhttp.New(sentryhttp.Options{
		Repanic:         true,
		WaitForDelivery: true,
	})

	return func(h http.Handler) http.Handler {
		reported := sh.Handle(h)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}

					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			reported.ServeHTTP(w, r)
		})
	}
}
