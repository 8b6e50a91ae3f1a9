// Package api exposes the retention lifecycle over HTTP under /api/v1.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/http/middleware"
	"github.com/xy-planning-network/retention/http/req"
	"github.com/xy-planning-network/retention/http/resp"
	"github.com/xy-planning-network/retention/http/router"
	"github.com/xy-planning-network/retention/lifecycle"
	"github.com/xy-planning-network/retention/scheduler"
)

// Prefix is where the API is mounted.
const Prefix = "/api/v1"

// Lifecycle runs lifecycle commands and queries on behalf of a Caller.
type Lifecycle interface {
	Suspend(ctx context.Context, caller retention.Caller, id uuid.UUID, reason string) (retention.Account, error)
	MoveToDeletion(ctx context.Context, caller retention.Caller, id uuid.UUID) (retention.Account, error)
	Unsuspend(ctx context.Context, caller retention.Caller, id uuid.UUID) (retention.Account, error)
	SelfInitiateDeletion(ctx context.Context, caller retention.Caller, id uuid.UUID, reauth string) (lifecycle.SelfDeletion, error)
	SelfCancelDeletion(ctx context.Context, caller retention.Caller, id uuid.UUID) (retention.Account, error)
	PermanentlyDelete(ctx context.Context, caller retention.Caller, id uuid.UUID, reason string) (retention.ErasureReceipt, error)
	RetentionQueue(ctx context.Context, caller retention.Caller) ([]lifecycle.QueueItem, error)
	AuditLog(ctx context.Context, caller retention.Caller, accountID uuid.UUID) ([]retention.AuditEntry, error)
}

// Holds manages legal holds on behalf of a Caller.
type Holds interface {
	Create(ctx context.Context, caller retention.Caller, accountID uuid.UUID, reason string, expiresAt *time.Time) (retention.LegalHold, error)
	Release(ctx context.Context, caller retention.Caller, holdID uuid.UUID) (retention.LegalHold, error)
	List(ctx context.Context, accountID uuid.UUID) ([]retention.LegalHold, error)
}

// A CancelTargeter reads the account a cancellation link was issued for.
type CancelTargeter interface {
	CancelTarget(v url.Values) (uuid.UUID, error)
}

// A Runner runs the scheduler and reminder jobs on demand.
type Runner interface {
	RunNow(ctx context.Context) map[string]scheduler.Result
}

// A Check reports whether a dependency is healthy.
type Check func(ctx context.Context) error

// Handler serves the retention API.
type Handler struct {
	*resp.Responder

	Lifecycle Lifecycle
	Holds     Holds
	Links     CancelTargeter
	Runner    Runner
	Checks    map[string]Check

	// Metrics gathers what /metrics exposes; nil exposes the default registry.
	Metrics prometheus.Gatherer

	parser *req.Parser
}

// New constructs a *Handler.
func New(d *resp.Responder, lc Lifecycle, holds Holds, links CancelTargeter, runner Runner, checks map[string]Check) *Handler {
	return &Handler{
		Responder: d,
		Lifecycle: lc,
		Holds:     holds,
		Links:     links,
		Runner:    runner,
		Checks:    checks,
		parser:    req.NewParser(),
	}
}

// Guards are the middlewares protecting groups of routes.
type Guards struct {
	// Authn authenticates the Caller, typically middleware.CurrentCaller.
	Authn middleware.Adapter

	// SelfService throttles account owners, typically middleware.RateLimit.
	SelfService middleware.Adapter

	// Idempotent makes commands safe to retry, typically middleware.Idempotent.
	Idempotent middleware.Adapter
}

func (g Guards) orNoop() Guards {
	for _, a := range []*middleware.Adapter{&g.Authn, &g.SelfService, &g.Idempotent} {
		if *a == nil {
			*a = middleware.NoopAdapter
		}
	}

	return g
}

// Register mounts every route on rt: the API under Prefix, /health and /metrics at the root.
func (h *Handler) Register(rt *router.Router, g Guards) {
	g = g.orNoop()

	rt.Handle(router.Route{Path: "/health", Method: http.MethodGet, Handler: h.health})
	rt.Handle(router.Route{Path: "/metrics", Method: http.MethodGet, Handler: scheduler.Handler(h.Metrics).ServeHTTP})

	api := rt.Subrouter(Prefix)

	api.AdminRoutes(g.Authn, []router.Route{
		{Path: "/admin/accounts/suspend", Method: http.MethodPost, Handler: h.suspend},
		{Path: "/admin/accounts/move-to-deletion", Method: http.MethodPost, Handler: h.moveToDeletion},
		{Path: "/admin/accounts/unsuspend", Method: http.MethodPost, Handler: h.unsuspend},
		{Path: "/admin/accounts/permanently-delete", Method: http.MethodPost, Handler: h.permanentlyDelete},
		{Path: "/admin/holds", Method: http.MethodPost, Handler: h.createHold},
		{Path: "/admin/holds/{id}/release", Method: http.MethodPost, Handler: h.releaseHold},
		{Path: "/admin/scheduler/run", Method: http.MethodPost, Handler: h.runNow},
	}, g.Idempotent)

	api.AdminRoutes(g.Authn, []router.Route{
		{Path: "/admin/retention-queue", Method: http.MethodGet, Handler: h.retentionQueue},
		{Path: "/admin/audit-log", Method: http.MethodGet, Handler: h.auditLog},
		{Path: "/admin/holds", Method: http.MethodGet, Handler: h.listHolds},
	})

	api.AuthedRoutes(g.Authn, []router.Route{
		{Path: "/self/delete", Method: http.MethodPost, Handler: h.selfDelete},
		{Path: "/self/cancel-delete", Method: http.MethodPost, Handler: h.selfCancelDelete},
	}, g.SelfService, g.Idempotent)

	api.HandleRoutes([]router.Route{
		{Path: "/links/cancel-delete", Method: http.MethodPost, Handler: h.cancelLink},
	}, g.SelfService)
}

// caller retrieves the authenticated Caller of r.
func caller(r *http.Request) (retention.Caller, error) {
	c, ok := retention.CallerFromContext(r.Context())
	if !ok {
		return retention.Caller{}, fmt.Errorf("%w: not authenticated", retention.ErrForbidden)
	}

	return c, nil
}
