package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/http/resp"
)

type accountRequest struct {
	AccountID uuid.UUID `json:"accountId" validate:"required"`
}

type reasonRequest struct {
	AccountID uuid.UUID `json:"accountId" validate:"required"`
	Reason    string    `json:"reason" validate:"max=1000"`
}

type selfDeleteRequest struct {
	AccountID uuid.UUID `json:"accountId" validate:"required"`
	Reauth    string    `json:"reauth" validate:"required"`
}

type okResponse struct {
	OK      bool               `json:"ok"`
	Account *retention.Account `json:"account,omitempty"`
}

type scheduledResponse struct {
	OK           bool      `json:"ok"`
	ScheduledFor time.Time `json:"scheduledFor"`
	CancelLink   string    `json:"cancelLink,omitempty"`
}

type erasureResponse struct {
	OK      bool                     `json:"ok"`
	Receipt retention.ErasureReceipt `json:"erasureReceipt"`
}

// decode authenticates and parses a command request, writing any failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, body any) (retention.Caller, bool) {
	c, err := caller(r)
	if err != nil {
		h.Err(w, r, err)
		return retention.Caller{}, false
	}

	if err := h.parser.ParseBody(r.Body, body); err != nil {
		h.Err(w, r, err)
		return retention.Caller{}, false
	}

	return c, true
}

func (h *Handler) suspend(w http.ResponseWriter, r *http.Request) {
	var body reasonRequest
	c, ok := h.decode(w, r, &body)
	if !ok {
		return
	}

	a, err := h.Lifecycle.Suspend(r.Context(), c, body.AccountID, body.Reason)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(okResponse{OK: true, Account: &a}))
}

func (h *Handler) moveToDeletion(w http.ResponseWriter, r *http.Request) {
	var body accountRequest
	c, ok := h.decode(w, r, &body)
	if !ok {
		return
	}

	a, err := h.Lifecycle.MoveToDeletion(r.Context(), c, body.AccountID)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(scheduledResponse{OK: true, ScheduledFor: *a.DeletionScheduledFor}))
}

func (h *Handler) unsuspend(w http.ResponseWriter, r *http.Request) {
	var body accountRequest
	c, ok := h.decode(w, r, &body)
	if !ok {
		return
	}

	a, err := h.Lifecycle.Unsuspend(r.Context(), c, body.AccountID)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(okResponse{OK: true, Account: &a}))
}

func (h *Handler) permanentlyDelete(w http.ResponseWriter, r *http.Request) {
	var body reasonRequest
	c, ok := h.decode(w, r, &body)
	if !ok {
		return
	}

	receipt, err := h.Lifecycle.PermanentlyDelete(r.Context(), c, body.AccountID, body.Reason)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(erasureResponse{OK: true, Receipt: receipt}))
}

func (h *Handler) selfDelete(w http.ResponseWriter, r *http.Request) {
	var body selfDeleteRequest
	c, ok := h.decode(w, r, &body)
	if !ok {
		return
	}

	sd, err := h.Lifecycle.SelfInitiateDeletion(r.Context(), c, body.AccountID, body.Reauth)
	if err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(scheduledResponse{
		OK:           true,
		ScheduledFor: *sd.Account.DeletionScheduledFor,
		CancelLink:   sd.CancelLink,
	}))
}

func (h *Handler) selfCancelDelete(w http.ResponseWriter, r *http.Request) {
	var body accountRequest
	c, ok := h.decode(w, r, &body)
	if !ok {
		return
	}

	if _, err := h.Lifecycle.SelfCancelDeletion(r.Context(), c, body.AccountID); err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(okResponse{OK: true}))
}

// cancelLink cancels a self-initiated deletion from the link emailed to the owner.
// The signed link stands in for the owner's bearer token.
func (h *Handler) cancelLink(w http.ResponseWriter, r *http.Request) {
	id, err := h.Links.CancelTarget(r.URL.Query())
	if err != nil {
		h.Err(w, r, err)
		return
	}

	owner := retention.NewCaller(id, false)
	if _, err := h.Lifecycle.SelfCancelDeletion(r.Context(), owner, id); err != nil {
		h.Err(w, r, err)
		return
	}

	h.Json(w, r, resp.Data(okResponse{OK: true}))
}
