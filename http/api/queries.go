package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/http/resp"
	"github.com/xy-planning-network/retention/scheduler"
)

type accountQuery struct {
	AccountID string `schema:"accountId" validate:"required,uuid"`
}

type holdRequest struct {
	AccountID uuid.UUID  `json:"accountId" validate:"required"`
	Reason    string     `json:"reason" validate:"max=1000"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type holdResponse struct {
	OK   bool                `json:"ok"`
	Hold retention.LegalHold `json:"hold"`
}

type runResponse struct {
	OK       bool                        `json:"ok"`
	Failures int                         `json:"failures"`
	Reports  map[string]scheduler.Result `json:"reports"`
}

// healthTimeout bounds each Check.
const healthTimeout = 3 * time.Second

// accountID reads the accountId query param.
func (h *Handler) accountID(r *http.Request) (uuid.UUID, error) {
	var q accountQuery
	if err := h.parser.ParseQueryParams(r.URL.Query(), &q); err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(q.AccountID)
}

func (h *Handler) retentionQueue(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	items, err := h.Lifecycle.RetentionQueue(r.Context(), c)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(items))
}

func (h *Handler) auditLog(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	id, err := h.accountID(r)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	entries, err := h.Lifecycle.AuditLog(r.Context(), c, id)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(entries))
}

func (h *Handler) createHold(w http.ResponseWriter, r *http.Request) {
	var body holdRequest
	c, ok := h.decode(w, r, &body)
	if !ok {
		return
	}

	hold, err := h.Holds.Create(r.Context(), c, body.AccountID, body.Reason, body.ExpiresAt)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(holdResponse{OK: true, Hold: hold}), resp.Code(http.StatusCreated))
}

func (h *Handler) releaseHold(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.Err(w, r, fmt.Errorf("%w: hold id: %s", retention.ErrNotValid, err))
		return
	}

	hold, err := h.Holds.Release(r.Context(), c, id)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(holdResponse{OK: true, Hold: hold}))
}

func (h *Handler) listHolds(w http.ResponseWriter, r *http.Request) {
	id, err := h.accountID(r)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	holds, err := h.Holds.List(r.Context(), id)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(holds))
}

// runNow is the incident-response escape hatch: the same run the daily trigger performs.
func (h *Handler) runNow(w http.ResponseWriter, r *http.Request) {
	if h.Runner == nil {
		h.Err(w, r, fmt.Errorf("%w: no runner configured", retention.ErrBadConfig))
		return
	}

	results := h.Runner.RunNow(r.Context())

	var failures int
	for _, res := range results {
		failures += res.Failures()
	}

	h.Json(w, r, resp.Data(runResponse{OK: failures == 0, Failures: failures, Reports: results}))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	failed := make(map[string]string)
	for name, check := range h.Checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err := check(ctx)
		cancel()

		if err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		h.Json(w, r, resp.Data(map[string]any{"ok": false, "failed": failed}), resp.Code(http.StatusServiceUnavailable))
		return
	}

	h.Json(w, r, resp.Data(map[string]any{"ok": true}))
}
