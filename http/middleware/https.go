package middleware

import (
	"net/http"
	"net/url"

	"github.com/xy-planning-network/retention"
)

// ForceHTTPS redirects HTTP requests to HTTPS in deployed environments: production, review and staging.
//
// The "X-Forwarded-Proto" is used to check whether HTTP was requested due to the service
// running behind a proxy.
func ForceHTTPS(env retention.Environment) Adapter {
	if !env.IsDeployed() {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Forwarded-Proto") == "https" || r.TLS != nil {
				handler.ServeHTTP(w, r)
				return
			}

			u := new(url.URL)
			*u = *r.URL
			u.Scheme = "https"
			u.Host = r.Host

			http.Redirect(w, r, u.String(), http.StatusPermanentRedirect)
		})
	}
}
