package lifecycle

import (
	"time"

	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
)

// An Option configures a Handler when constructing one.
type Option func(*Handler)

// WithCancelLinks sets the CancelLinker building links emailed with deletion confirmations.
func WithCancelLinks(cl retention.CancelLinker) Option {
	return func(h *Handler) {
		h.links = cl
	}
}

// WithClock sets the Clock Handler reads the current time from.
func WithClock(c retention.Clock) Option {
	return func(h *Handler) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithEraser sets the Eraser removing personal data on permanent deletion.
func WithEraser(e retention.Eraser) Option {
	return func(h *Handler) {
		h.eraser = e
	}
}

// WithGracePeriod sets how long after entering pending_deletion an account is erased.
func WithGracePeriod(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.grace = d
		}
	}
}

// WithLogger sets the Logger Handler uses.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.l = l
		}
	}
}

// WithNotifier sets the Notifier delivering deletion confirmations.
func WithNotifier(n retention.Notifier) Option {
	return func(h *Handler) {
		h.notifier = n
	}
}

// WithReauth sets the Reauthenticator verifying an owner's identity before self-deletion.
func WithReauth(r retention.Reauthenticator) Option {
	return func(h *Handler) {
		h.reauth = r
	}
}

// WithReceipts sets the ReceiptStore keeping erasure receipts.
func WithReceipts(rs retention.ReceiptStore) Option {
	return func(h *Handler) {
		h.receipts = rs
	}
}

// WithSessions sets the SessionRevoker invalidating sessions on suspension.
func WithSessions(sr retention.SessionRevoker) Option {
	return func(h *Handler) {
		h.sessions = sr
	}
}
