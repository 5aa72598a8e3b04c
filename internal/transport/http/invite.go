package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crewbase/internal/invite"
	id "crewbase/pkg/domain"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/requestcontext"
)

// InviteService is the slice of the invitation lifecycle the transport needs.
type InviteService interface {
	Create(ctx context.Context, in invite.CreateInput) (*invite.Invitation, error)
	Redeem(ctx context.Context, invitationID id.InvitationID) (*invite.Invitation, error)
	Consume(ctx context.Context, invitationID id.InvitationID) (*invite.Invitation, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*invite.Invitation, error)
}

// InviteHandler exposes invitation management (authenticated) and redemption
// (anonymous — the recipient has no account yet).
type InviteHandler struct {
	invites InviteService
}

func NewInviteHandler(invites InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// Register mounts the anonymous redemption endpoints.
func (h *InviteHandler) Register(r chi.Router) {
	r.Get("/invitations/{invitationID}", h.redeem)
	r.Post("/invitations/{invitationID}/accept", h.accept)
}

// RegisterProtected mounts the management endpoints.
func (h *InviteHandler) RegisterProtected(r chi.Router) {
	r.Post("/invitations", h.create)
	r.Get("/invitations", h.list)
}

type createInviteRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	TenantID  string `json:"tenantId,omitempty"`
}

type invitationResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Role      string    `json:"role"`
	TenantID  string    `json:"tenantId,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *InviteHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	role, err := id.ParseTier(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	var tenantID id.TenantID
	if req.TenantID != "" {
		tenantID, err = id.ParseTenantID(req.TenantID)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	// company-tier inviters can only invite into their own tenant
	if requestcontext.Tier(r.Context()) == id.TierCompany {
		own := requestcontext.TenantID(r.Context())
		if role != id.TierCompany || tenantID != own {
			writeError(w, dErrors.New(dErrors.CodeForbidden, "access denied"))
			return
		}
	}

	inv, err := h.invites.Create(r.Context(), invite.CreateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		TenantID:  tenantID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvitationResponse(inv))
}

func (h *InviteHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID := requestcontext.TenantID(r.Context())
	if requestcontext.Tier(r.Context()) == id.TierPlatform {
		parsed, err := id.ParseTenantID(r.URL.Query().Get("tenantId"))
		if err != nil {
			writeError(w, dErrors.New(dErrors.CodeInvalidInput, "tenantId query parameter is required"))
			return
		}
		tenantID = parsed
	}

	invs, err := h.invites.ListByTenant(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]invitationResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvitationResponse(inv))
	}
	writeJSON(w, http.StatusOK, out)
}

// redeem is the pre-acceptance view the signup page renders. Any reason the
// token cannot be redeemed collapses to the same 404.
func (h *InviteHandler) redeem(w http.ResponseWriter, r *http.Request) {
	invitationID, err := id.ParseInvitationID(chi.URLParam(r, "invitationID"))
	if err != nil {
		// an unparsable token is indistinguishable from an unknown one
		writeError(w, dErrors.New(dErrors.CodeNotFound, "invitation not found or no longer valid"))
		return
	}
	inv, err := h.invites.Redeem(r.Context(), invitationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationResponse(inv))
}

func (h *InviteHandler) accept(w http.ResponseWriter, r *http.Request) {
	invitationID, err := id.ParseInvitationID(chi.URLParam(r, "invitationID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "invitation not found or no longer valid"))
		return
	}
	inv, err := h.invites.Consume(r.Context(), invitationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationResponse(inv))
}

func toInvitationResponse(inv *invite.Invitation) invitationResponse {
	resp := invitationResponse{
		ID:        inv.ID.String(),
		Email:     inv.Email,
		FirstName: inv.FirstName,
		LastName:  inv.LastName,
		Role:      inv.Role.String(),
		Status:    string(inv.Status),
		CreatedAt: inv.CreatedAt,
		ExpiresAt: inv.ExpiresAt,
	}
	if !inv.TenantID.IsNil() {
		resp.TenantID = inv.TenantID.String()
	}
	return resp
}
