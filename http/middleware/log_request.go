package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
)

// LogRequest logs the request's originating IP address, method, requested URL,
// response status and duration using the enclosed implementation of logger.Logger.
//
// LogRequest scrubs the values for the following query params:
//   - jwt
//   - password
//
// If logger.Logger is nil, NoopAdapter returns and this middleware does nothing.
func LogRequest(ls logger.Logger) Adapter {
	if ls == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(h, w, r)

			uri := r.URL.Path
			q := r.URL.Query()
			retention.Mask(q, "jwt")
			retention.Mask(q, "password")
			if query := q.Encode(); query != "" {
				uri += "?" + query
			}

			strs := []string{r.Method, uri, strconv.Itoa(m.Code), m.Duration.String()}
			if ip, ok := r.Context().Value(retention.IpAddrKey).(string); ok && ip != "" {
				strs = append([]string{ip}, strs...)
			}

			data := map[string]any{retention.LogKindKey: retention.HTTPLogKind}
			if id := retention.RequestIDFromContext(r.Context()); id != "" {
				data["requestId"] = id
			}

			ctx := &logger.LogContext{Data: data}
			if c, ok := retention.CallerFromContext(r.Context()); ok {
				ctx.User = c
			}

			ls.Info(strings.Join(strs, " "), ctx)
		})
	}
}
