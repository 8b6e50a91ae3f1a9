package retention

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemActor is the Caller the scheduler acts as.
var SystemActor = Caller{IsAdmin: true, system: true}

// A Caller is the authenticated subject of a command.
// Authentication happens elsewhere; a Caller is what it produces.
type Caller struct {
	ID       uuid.UUID `json:"id"`
	IsAdmin  bool      `json:"isAdmin"`
	IssuedAt time.Time `json:"-"`

	system bool
}

// NewCaller constructs a Caller.
func NewCaller(id uuid.UUID, isAdmin bool) Caller { return Caller{ID: id, IsAdmin: isAdmin} }

// IsSystem asserts whether the Caller is the SystemActor.
func (c Caller) IsSystem() bool { return c.system }

// Owns asserts whether the Caller is the owner of the account identified by id.
func (c Caller) Owns(id uuid.UUID) bool { return !c.system && c.ID != uuid.Nil && c.ID == id }

// AdminID returns the Caller's ID for audit entries,
// or nil when the Caller is not acting as an admin.
func (c Caller) AdminID() *uuid.UUID {
	if !c.IsAdmin || c.system || c.ID == uuid.Nil {
		return nil
	}

	id := c.ID
	return &id
}

// GetID returns the caller's ID.
//
// GetID implements logger.LogUser.
func (c Caller) GetID() string {
	if c.system {
		return "system"
	}

	return c.ID.String()
}

// GetEmail returns an empty string, a Caller carries no email.
//
// GetEmail implements logger.LogUser.
func (c Caller) GetEmail() string { return "" }

// NewCallerContext stashes c in ctx under CurrentCallerKey.
func NewCallerContext(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, CurrentCallerKey, c)
}

// CallerFromContext retrieves the Caller stashed in ctx.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(CurrentCallerKey).(Caller)
	return c, ok
}
