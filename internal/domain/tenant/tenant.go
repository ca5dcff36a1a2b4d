package tenant

import (
	"context"
	"time"
)

// PlanTier is the subscription tier of a tenant. Higher tiers unlock richer
// assistant instructions and larger context budgets.
type PlanTier string

const (
	PlanTiny    PlanTier = "tiny"
	PlanPro     PlanTier = "pro"
	PlanProPlus PlanTier = "pro_plus"
)

// Valid reports whether p is a known plan tier.
func (p PlanTier) Valid() bool {
	switch p {
	case PlanTiny, PlanPro, PlanProPlus:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Tenant is the identity root for one customer company. Every downstream
// entity carries its tenant reference; nothing in the chat pipeline may
// operate without a resolved tenant.
type Tenant struct {
	ID              uint              `json:"-"`
	PublicID        string            `json:"id"`
	BillingClientID string            `json:"-"`
	Name            string            `json:"name"`
	Plan            PlanTier          `json:"plan"`
	Status          Status            `json:"status"`
	Settings        map[string]string `json:"settings,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Consent records one visitor session's acceptance of AI-interaction terms.
// No chat turn may be processed for a session without an accepted record.
type Consent struct {
	ID           uint      `json:"-"`
	TenantID     uint      `json:"-"`
	SessionID    string    `json:"session_id"`
	Accepted     bool      `json:"accepted"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	TermsVersion string    `json:"terms_version"`
	CreatedAt    time.Time `json:"created_at"`
}

type TenantRepository interface {
	FindByPublicID(ctx context.Context, publicID string) (*Tenant, error)
	FindByBillingClientID(ctx context.Context, billingClientID string) (*Tenant, error)
	Create(ctx context.Context, t *Tenant) error
	Update(ctx context.Context, t *Tenant) error
}

type ConsentRepository interface {
	FindBySession(ctx context.Context, tenantID uint, sessionID string) (*Consent, error)
	Create(ctx context.Context, c *Consent) error
}
