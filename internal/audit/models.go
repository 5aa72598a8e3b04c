package audit

import (
	"time"

	id "crewbase/pkg/domain"
)

// Action is a namespaced audit action string.
type Action string

// One entry is recorded per security-relevant attempt, success or failure.
const (
	ActionSessionCreate    Action = "auth.session.create"
	ActionSessionRevoke    Action = "auth.session.revoke"
	ActionSessionRevokeAll Action = "auth.session.revoke_all"
	ActionInviteCreate     Action = "invite.create"
	ActionInviteAccept     Action = "invite.accept"
	ActionInviteExpire     Action = "invite.expire"
	ActionSettingsUpdate   Action = "platform.settings.update"
)

// Status is the recorded outcome of the attempted action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Actor identifies who attempted the action. For invitation creation this is
// the inviting principal; for redemption it is the anonymous recipient, whose
// ID is empty until an account exists.
type Actor struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Target identifies what the action operated on.
type Target struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Entry is an immutable record of a security-relevant attempt and its
// outcome. Entries are append-only; nothing in this module updates or deletes
// one after it is written. The uniform not-found answer at the invitation
// redemption boundary hides the true reason from callers, so Details retains
// it here for forensics.
type Entry struct {
	ID        string            `json:"id"`
	Actor     Actor             `json:"actor"`
	Action    Action            `json:"action"`
	Target    Target            `json:"target"`
	Status    Status            `json:"status"`
	Details   map[string]string `json:"details,omitempty"`
	TenantID  id.TenantID       `json:"tenant_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Category classifies entries for retention and routing. Security entries
// feed alerting pipelines; compliance entries require long retention.
type Category string

const (
	CategoryCompliance Category = "compliance"
	CategorySecurity   Category = "security"
	CategoryOperations Category = "operations"
)

var actionCategories = map[Action]Category{
	ActionSessionCreate:    CategoryOperations,
	ActionSessionRevoke:    CategorySecurity,
	ActionSessionRevokeAll: CategorySecurity,
	ActionInviteCreate:     CategoryCompliance,
	ActionInviteAccept:     CategoryCompliance,
	ActionInviteExpire:     CategoryOperations,
	ActionSettingsUpdate:   CategorySecurity,
}

// Category returns the category for this action. Unknown actions default to
// operations.
func (a Action) Category() Category {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}
