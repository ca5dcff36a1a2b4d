package dbschema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"answerdesk/chat-api/internal/domain/usage"
	"answerdesk/chat-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(UsageLog{})
	database.RegisterSchemaForAutoMigrate(UsageDaily{})
}

// UsageLog represents the database schema for per-call usage rows
type UsageLog struct {
	BaseModel
	TenantID         uint            `gorm:"index:idx_usage_tenant_created;not null"`
	Tenant           Tenant          `gorm:"foreignKey:TenantID"`
	ConversationID   *uint           `gorm:"index"`
	Model            string          `gorm:"type:varchar(100);not null"`
	Endpoint         string          `gorm:"type:varchar(50);not null"`
	RequestID        *string         `gorm:"type:varchar(100);index"`
	PromptTokens     int             `gorm:"not null;default:0"`
	CompletionTokens int             `gorm:"not null;default:0"`
	TotalTokens      int             `gorm:"not null;default:0"`
	EstimatedCostUSD decimal.Decimal `gorm:"type:numeric(12,8);not null;default:0"`
}

// UsageDaily is the per-day rollup the billing export reads. One row per
// (day, tenant, model); the rollup job rewrites a day wholesale.
type UsageDaily struct {
	BaseModel
	Date             datatypes.Date  `gorm:"uniqueIndex:idx_usage_daily_key;not null"`
	TenantID         uint            `gorm:"uniqueIndex:idx_usage_daily_key;not null"`
	Model            string          `gorm:"type:varchar(100);uniqueIndex:idx_usage_daily_key;not null"`
	PromptTokens     int64           `gorm:"not null;default:0"`
	CompletionTokens int64           `gorm:"not null;default:0"`
	TotalTokens      int64           `gorm:"not null;default:0"`
	RequestCount     int64           `gorm:"not null;default:0"`
	EstimatedCostUSD decimal.Decimal `gorm:"type:numeric(14,8);not null;default:0"`
}

// NewSchemaUsageLog creates a database schema from a domain usage row
func NewSchemaUsageLog(u *usage.UsageLog) *UsageLog {
	return &UsageLog{
		BaseModel: BaseModel{
			ID:        u.ID,
			CreatedAt: u.CreatedAt,
		},
		TenantID:         u.TenantID,
		ConversationID:   u.ConversationID,
		Model:            u.Model,
		Endpoint:         u.Endpoint,
		RequestID:        u.RequestID,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		EstimatedCostUSD: u.EstimatedCostUSD,
	}
}

// EtoD converts database schema to domain usage row (Entity to Domain)
func (u *UsageLog) EtoD() *usage.UsageLog {
	return &usage.UsageLog{
		ID:               u.ID,
		TenantID:         u.TenantID,
		ConversationID:   u.ConversationID,
		Model:            u.Model,
		Endpoint:         u.Endpoint,
		RequestID:        u.RequestID,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		EstimatedCostUSD: u.EstimatedCostUSD,
		CreatedAt:        u.CreatedAt,
	}
}

// EtoD converts database schema to domain aggregate (Entity to Domain)
func (u *UsageDaily) EtoD() *usage.DailyAggregate {
	return &usage.DailyAggregate{
		Date:             time.Time(u.Date),
		TenantID:         u.TenantID,
		Model:            u.Model,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		RequestCount:     u.RequestCount,
		EstimatedCostUSD: u.EstimatedCostUSD,
	}
}
