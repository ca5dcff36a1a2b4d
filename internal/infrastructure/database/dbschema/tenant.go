package dbschema

import (
	"database/sql/driver"
	"encoding/json"

	"answerdesk/chat-api/internal/domain/tenant"
	"answerdesk/chat-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Tenant{})
	database.RegisterSchemaForAutoMigrate(Consent{})
}

// Tenant represents the database schema for tenants
type Tenant struct {
	BaseModel
	PublicID        string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	BillingClientID string          `gorm:"type:varchar(100);index"`
	Name            string          `gorm:"type:varchar(256);not null"`
	Plan            tenant.PlanTier `gorm:"type:varchar(20);not null;default:'tiny'"`
	Status          tenant.Status   `gorm:"type:varchar(20);index;not null;default:'active'"`
	Settings        JSONMap         `gorm:"type:jsonb"`
}

// Consent represents one session's recorded acceptance. One row per
// (tenant, session): re-acceptance updates in place.
type Consent struct {
	BaseModel
	TenantID     uint   `gorm:"uniqueIndex:idx_consent_tenant_session;not null"`
	Tenant       Tenant `gorm:"foreignKey:TenantID"`
	SessionID    string `gorm:"type:varchar(100);uniqueIndex:idx_consent_tenant_session;not null"`
	Accepted     bool   `gorm:"not null"`
	IPAddress    string `gorm:"type:varchar(64)"`
	UserAgent    string `gorm:"type:varchar(512)"`
	TermsVersion string `gorm:"type:varchar(50);not null"`
}

// JSONMap is a custom type for map[string]string stored as JSON
type JSONMap map[string]string

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// NewSchemaTenant creates a database schema from a domain tenant
func NewSchemaTenant(t *tenant.Tenant) *Tenant {
	return &Tenant{
		BaseModel: BaseModel{
			ID:        t.ID,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		},
		PublicID:        t.PublicID,
		BillingClientID: t.BillingClientID,
		Name:            t.Name,
		Plan:            t.Plan,
		Status:          t.Status,
		Settings:        JSONMap(t.Settings),
	}
}

// EtoD converts database schema to domain tenant (Entity to Domain)
func (t *Tenant) EtoD() *tenant.Tenant {
	return &tenant.Tenant{
		ID:              t.ID,
		PublicID:        t.PublicID,
		BillingClientID: t.BillingClientID,
		Name:            t.Name,
		Plan:            t.Plan,
		Status:          t.Status,
		Settings:        map[string]string(t.Settings),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// NewSchemaConsent creates a database schema from a domain consent
func NewSchemaConsent(c *tenant.Consent) *Consent {
	return &Consent{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
		},
		TenantID:     c.TenantID,
		SessionID:    c.SessionID,
		Accepted:     c.Accepted,
		IPAddress:    c.IPAddress,
		UserAgent:    c.UserAgent,
		TermsVersion: c.TermsVersion,
	}
}

// EtoD converts database schema to domain consent (Entity to Domain)
func (c *Consent) EtoD() *tenant.Consent {
	return &tenant.Consent{
		ID:           c.ID,
		TenantID:     c.TenantID,
		SessionID:    c.SessionID,
		Accepted:     c.Accepted,
		IPAddress:    c.IPAddress,
		UserAgent:    c.UserAgent,
		TermsVersion: c.TermsVersion,
		CreatedAt:    c.CreatedAt,
	}
}
