package tenant

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"answerdesk/chat-api/internal/utils/platformerrors"
)

// Error codes surfaced by the resolver. All three are terminal: the caller
// must fix the condition out-of-band before retrying.
const (
	CodeTenantNotFound  = "tenant_not_found"
	CodeTenantSuspended = "tenant_suspended"
	CodeConsentRequired = "consent_required"
)

// Resolver validates tenant identity and session consent. It is the leaf
// dependency of the chat pipeline: every stage downstream operates on the
// tenant it returns.
type Resolver struct {
	tenants  TenantRepository
	consents ConsentRepository
}

func NewResolver(tenants TenantRepository, consents ConsentRepository) *Resolver {
	return &Resolver{tenants: tenants, consents: consents}
}

// ResolveTenant returns the active tenant for tenantID. Used by admin
// operations where no visitor session, and so no consent, is involved.
func (r *Resolver) ResolveTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	t, err := r.tenants.FindByPublicID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
			return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				CodeTenantNotFound, "tenant not found", err)
		}
		return nil, platformerrors.AsError(platformerrors.LayerDomain, err, "resolve tenant")
	}
	if t.Status != StatusActive {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			CodeTenantSuspended, "tenant is suspended", nil)
	}
	return t, nil
}

// Resolve returns the active tenant for tenantID after verifying that the
// session holds an accepted consent record.
func (r *Resolver) Resolve(ctx context.Context, tenantID, sessionID string) (*Tenant, error) {
	t, err := r.ResolveTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	consent, err := r.consents.FindBySession(ctx, t.ID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
			return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeConsentRequired,
				CodeConsentRequired, "consent has not been recorded for this session", err)
		}
		return nil, platformerrors.AsError(platformerrors.LayerDomain, err, "look up consent")
	}
	if consent == nil || !consent.Accepted {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeConsentRequired,
			CodeConsentRequired, "consent has not been accepted for this session", nil)
	}

	return t, nil
}

// RecordConsent persists a visitor's acceptance for a session. The tenant
// must exist and be active; suspended tenants cannot collect consent.
func (r *Resolver) RecordConsent(ctx context.Context, tenantID string, consent *Consent) error {
	t, err := r.ResolveTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	consent.TenantID = t.ID
	return r.consents.Create(ctx, consent)
}
