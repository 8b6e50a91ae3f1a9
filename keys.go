package retention

import "context"

type Key string

const (
	// CurrentCallerKey stashes the authenticated Caller of an HTTP request.
	CurrentCallerKey Key = "CurrentCallerKey"

	// IpAddrKey stashes the IP address of an HTTP request.
	IpAddrKey Key = "IpAddrKey"

	// RequestIDKey stashes a unique UUID for each HTTP request.
	RequestIDKey Key = "RequestIDKey"
)

// String formats the stringified key with additional contextual information
func (k Key) String() string {
	return "retention context key: " + string(k)
}

// RequestIDFromContext retrieves the request ID stashed in ctx or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
