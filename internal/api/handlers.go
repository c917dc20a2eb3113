package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/recon-dashboard/internal/entity"
	"github.com/ignite/recon-dashboard/internal/pkg/httputil"
	"github.com/ignite/recon-dashboard/internal/screens"
	"github.com/ignite/recon-dashboard/internal/upstream"
)

// ScreenService produces the snapshot behind each dashboard screen.
type ScreenService interface {
	Benefits(ctx context.Context, cpf string) (*screens.Snapshot, error)
	Dispatches(ctx context.Context, campaign string) (*screens.Snapshot, error)
	Campaigns(ctx context.Context) (*screens.Snapshot, error)
	Channels(ctx context.Context) (*screens.Snapshot, error)
	BusinessManagers(ctx context.Context) (*screens.Snapshot, error)
	History(ctx context.Context, cpf string) (*screens.Snapshot, error)
	Reconcile(name string, payload []byte) (*screens.Snapshot, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	svc ScreenService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc ScreenService) *Handlers {
	return &Handlers{svc: svc}
}

// ListEntities returns the entity names accepted by /api/reconcile.
func (h *Handlers) ListEntities(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"entities": entity.Names()})
}

// GetBenefits returns the benefits of the CPF in ?cpf=.
func (h *Handlers) GetBenefits(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Benefits(r.Context(), r.URL.Query().Get("cpf"))
	respondSnapshot(w, entity.Benefit, snap, err)
}

// GetDispatches returns dispatch rows, narrowed by ?campaign= when given.
func (h *Handlers) GetDispatches(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Dispatches(r.Context(), r.URL.Query().Get("campaign"))
	respondSnapshot(w, entity.Dispatch, snap, err)
}

// GetCampaigns returns the per-campaign progress rollups.
func (h *Handlers) GetCampaigns(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Campaigns(r.Context())
	respondSnapshot(w, entity.Dispatch, snap, err)
}

// GetChannels returns channel phones with per-channel capacity rollups.
func (h *Handlers) GetChannels(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Channels(r.Context())
	respondSnapshot(w, entity.Channel, snap, err)
}

// GetBusinessManagers returns channel phones rolled up per BM.
func (h *Handlers) GetBusinessManagers(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.BusinessManagers(r.Context())
	respondSnapshot(w, entity.Channel, snap, err)
}

// GetHistory returns the consultation history, narrowed by ?cpf= when given.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.History(r.Context(), r.URL.Query().Get("cpf"))
	respondSnapshot(w, entity.History, snap, err)
}

// PostReconcile runs the request body through the pipeline of {entity}.
func (h *Handlers) PostReconcile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "entity")
	body, ok := httputil.ReadBody(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.Reconcile(name, body)
	respondSnapshot(w, name, snap, err)
}

func respondSnapshot(w http.ResponseWriter, screen string, snap *screens.Snapshot, err error) {
	switch {
	case err == nil:
		httputil.OK(w, snap)
	case errors.Is(err, upstream.ErrMissingDocument):
		httputil.BadRequest(w, "cpf is required")
	case errors.Is(err, screens.ErrUnknownEntity):
		httputil.NotFound(w, "unknown entity: "+screen)
	case errors.Is(err, screens.ErrNotConfigured):
		httputil.ServiceUnavailable(w, screen+" upstream is not configured")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		httputil.BadGateway(w, screen, err)
	}
}
