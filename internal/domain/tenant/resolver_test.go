package tenant

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"answerdesk/chat-api/internal/utils/platformerrors"
)

type fakeTenantRepo struct {
	tenants map[string]*Tenant
}

func (f *fakeTenantRepo) FindByPublicID(_ context.Context, publicID string) (*Tenant, error) {
	t, ok := f.tenants[publicID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeTenantRepo) FindByBillingClientID(_ context.Context, billingClientID string) (*Tenant, error) {
	for _, t := range f.tenants {
		if t.BillingClientID == billingClientID {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTenantRepo) Create(_ context.Context, t *Tenant) error {
	f.tenants[t.PublicID] = t
	return nil
}

func (f *fakeTenantRepo) Update(_ context.Context, t *Tenant) error {
	f.tenants[t.PublicID] = t
	return nil
}

type fakeConsentRepo struct {
	consents map[string]*Consent // keyed by sessionID
}

func (f *fakeConsentRepo) FindBySession(_ context.Context, tenantID uint, sessionID string) (*Consent, error) {
	c, ok := f.consents[sessionID]
	if !ok || c.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeConsentRepo) Create(_ context.Context, c *Consent) error {
	f.consents[c.SessionID] = c
	return nil
}

func newTestResolver() (*Resolver, *fakeTenantRepo, *fakeConsentRepo) {
	tenants := &fakeTenantRepo{tenants: map[string]*Tenant{
		"tnt_active": {ID: 1, PublicID: "tnt_active", Plan: PlanPro, Status: StatusActive},
		"tnt_frozen": {ID: 2, PublicID: "tnt_frozen", Plan: PlanTiny, Status: StatusSuspended},
	}}
	consents := &fakeConsentRepo{consents: map[string]*Consent{
		"sess-ok":       {ID: 1, TenantID: 1, SessionID: "sess-ok", Accepted: true},
		"sess-declined": {ID: 2, TenantID: 1, SessionID: "sess-declined", Accepted: false},
	}}
	return NewResolver(tenants, consents), tenants, consents
}

func TestResolverHappyPath(t *testing.T) {
	r, _, _ := newTestResolver()

	resolved, err := r.Resolve(context.Background(), "tnt_active", "sess-ok")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.PublicID != "tnt_active" {
		t.Errorf("resolved tenant = %s, want tnt_active", resolved.PublicID)
	}
	if resolved.Plan != PlanPro {
		t.Errorf("resolved plan = %s, want pro", resolved.Plan)
	}
}

func TestResolverErrors(t *testing.T) {
	r, _, _ := newTestResolver()

	tests := []struct {
		name      string
		tenantID  string
		sessionID string
		wantCode  string
		wantType  platformerrors.ErrorType
	}{
		{
			name:      "unknown tenant",
			tenantID:  "tnt_missing",
			sessionID: "sess-ok",
			wantCode:  CodeTenantNotFound,
			wantType:  platformerrors.ErrorTypeNotFound,
		},
		{
			name:      "suspended tenant",
			tenantID:  "tnt_frozen",
			sessionID: "sess-ok",
			wantCode:  CodeTenantSuspended,
			wantType:  platformerrors.ErrorTypeForbidden,
		},
		{
			name:      "no consent record",
			tenantID:  "tnt_active",
			sessionID: "sess-unknown",
			wantCode:  CodeConsentRequired,
			wantType:  platformerrors.ErrorTypeConsentRequired,
		},
		{
			name:      "declined consent",
			tenantID:  "tnt_active",
			sessionID: "sess-declined",
			wantCode:  CodeConsentRequired,
			wantType:  platformerrors.ErrorTypeConsentRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.tenantID, tt.sessionID)
			if err == nil {
				t.Fatal("Resolve() expected error, got nil")
			}
			if code := platformerrors.CodeOf(err); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
			if !platformerrors.IsType(err, tt.wantType) {
				t.Errorf("error type = %q, want %q", platformerrors.TypeOf(err), tt.wantType)
			}
		})
	}
}

func TestRecordConsent(t *testing.T) {
	r, _, consents := newTestResolver()

	consent := &Consent{SessionID: "sess-new", Accepted: true, TermsVersion: "2026-01"}
	if err := r.RecordConsent(context.Background(), "tnt_active", consent); err != nil {
		t.Fatalf("RecordConsent() error = %v", err)
	}
	stored := consents.consents["sess-new"]
	if stored == nil || stored.TenantID != 1 {
		t.Fatalf("consent not stored with tenant ID, got %+v", stored)
	}

	// After recording, the session resolves.
	if _, err := r.Resolve(context.Background(), "tnt_active", "sess-new"); err != nil {
		t.Fatalf("Resolve() after consent error = %v", err)
	}
}

func TestRecordConsentSuspendedTenant(t *testing.T) {
	r, _, _ := newTestResolver()

	err := r.RecordConsent(context.Background(), "tnt_frozen", &Consent{SessionID: "s", Accepted: true})
	if platformerrors.CodeOf(err) != CodeTenantSuspended {
		t.Fatalf("expected tenant_suspended, got %v", err)
	}
}
