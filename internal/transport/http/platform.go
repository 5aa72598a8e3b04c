package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crewbase/internal/audit"
	"crewbase/internal/settings"
	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
)

// SettingsService reads and updates the platform session settings.
type SettingsService interface {
	Get(ctx context.Context) (settings.SessionSettings, error)
	Update(ctx context.Context, u settings.Update) (settings.SessionSettings, error)
}

// AuditReader lists audit entries for the platform console.
type AuditReader interface {
	ListByActor(ctx context.Context, actorID string) ([]audit.Entry, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]audit.Entry, error)
}

// PlatformHandler exposes the operator-only surface: session settings and
// the audit trail. Mount behind RequirePlatform.
type PlatformHandler struct {
	settings SettingsService
	auditLog AuditReader
}

func NewPlatformHandler(settings SettingsService, auditLog AuditReader) *PlatformHandler {
	return &PlatformHandler{settings: settings, auditLog: auditLog}
}

func (h *PlatformHandler) Register(r chi.Router) {
	r.Get("/platform/settings/session", h.getSettings)
	r.Put("/platform/settings/session", h.updateSettings)
	r.Get("/platform/audit", h.listAudit)
}

func (h *PlatformHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (h *PlatformHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settings.Update
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.settings.Update(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// listAudit filters by exactly one of actorId or tenantId.
func (h *PlatformHandler) listAudit(w http.ResponseWriter, r *http.Request) {
	actorID := r.URL.Query().Get("actorId")
	tenantParam := r.URL.Query().Get("tenantId")

	var (
		entries []audit.Entry
		err     error
	)
	switch {
	case actorID != "" && tenantParam != "":
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "filter by actorId or tenantId, not both"))
		return
	case actorID != "":
		entries, err = h.auditLog.ListByActor(r.Context(), actorID)
	case tenantParam != "":
		var tenantID id.TenantID
		tenantID, err = id.ParseTenantID(tenantParam)
		if err == nil {
			entries, err = h.auditLog.ListByTenant(r.Context(), tenantID)
		}
	default:
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "an actorId or tenantId filter is required"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
