package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crewbase/internal/auth/models"
	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/requestcontext"
)

// SessionService is the slice of the session lifecycle the transport needs.
type SessionService interface {
	CreateSession(ctx context.Context, rawCredential string) (string, models.Principal, error)
	CurrentPrincipal(ctx context.Context, rawArtifact string) (models.Principal, error)
	RevokeSession(ctx context.Context, rawArtifact string) error
	RevokeAll(ctx context.Context, principalID id.PrincipalID) error
}

// SessionHandler exposes the session lifecycle over HTTP. The artifact rides
// in an httpOnly cookie; request bodies and responses never contain it.
type SessionHandler struct {
	sessions      SessionService
	secureCookies bool
	sessionTTL    time.Duration
}

// NewSessionHandler builds the handler. The ttl must match the one the
// session service mints artifacts with, so the cookie and the artifact
// expire together; a non-positive ttl falls back to models.SessionTTL.
func NewSessionHandler(sessions SessionService, secureCookies bool, ttl time.Duration) *SessionHandler {
	if ttl <= 0 {
		ttl = models.SessionTTL
	}
	return &SessionHandler{sessions: sessions, secureCookies: secureCookies, sessionTTL: ttl}
}

// Register mounts the unauthenticated session endpoints. Establishing and
// ending a session both work without a valid session: login obviously, and
// logout must succeed even with a stale cookie.
func (h *SessionHandler) Register(r chi.Router) {
	r.Post("/auth/session", h.create)
	r.Delete("/auth/session", h.revoke)
}

// RegisterProtected mounts the endpoints that need a resolved principal.
func (h *SessionHandler) RegisterProtected(r chi.Router) {
	r.Get("/auth/me", h.me)
	r.Post("/auth/session/revoke-all", h.revokeAll)
}

type createSessionRequest struct {
	Credential string `json:"credential"`
}

type principalResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	TenantID    string `json:"tenantId,omitempty"`
}

func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Credential == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "credential is required"))
		return
	}

	artifact, principal, err := h.sessions.CreateSession(r.Context(), req.Credential)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setCookie(w, artifact, int(h.sessionTTL.Seconds()))
	writeJSON(w, http.StatusCreated, toPrincipalResponse(principal))
}

func (h *SessionHandler) me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(models.SessionCookieName)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeUnauthenticated, "session required"))
		return
	}
	principal, err := h.sessions.CurrentPrincipal(r.Context(), cookie.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPrincipalResponse(principal))
}

// revoke ends the caller's session. Always 204: revoking an absent, invalid,
// or already-revoked session is a success from the caller's point of view.
func (h *SessionHandler) revoke(w http.ResponseWriter, r *http.Request) {
	artifact := ""
	if cookie, err := r.Cookie(models.SessionCookieName); err == nil {
		artifact = cookie.Value
	}
	_ = h.sessions.RevokeSession(r.Context(), artifact)

	h.setCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// revokeAll invalidates every session of the calling principal, including
// the one making the request.
func (h *SessionHandler) revokeAll(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.RevokeAll(r.Context(), requestcontext.PrincipalID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	h.setCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     models.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func toPrincipalResponse(p models.Principal) principalResponse {
	resp := principalResponse{
		ID:          p.ID.String(),
		DisplayName: p.DisplayName,
		Role:        p.Tier.String(),
	}
	if !p.TenantID.IsNil() {
		resp.TenantID = p.TenantID.String()
	}
	return resp
}
