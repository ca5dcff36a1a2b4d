package usage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// UsageLog is one row per generation call: token counts, model, endpoint,
// and tenant. Never mutated after insert; quota enforcement and billing
// reconciliation both read from it.
type UsageLog struct {
	ID               uint            `json:"-"`
	TenantID         uint            `json:"-"`
	ConversationID   *uint           `json:"-"`
	Model            string          `json:"model"`
	Endpoint         string          `json:"endpoint"`
	RequestID        *string         `json:"request_id,omitempty"`
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
	TotalTokens      int             `json:"total_tokens"`
	EstimatedCostUSD decimal.Decimal `json:"estimated_cost_usd"`
	CreatedAt        time.Time       `json:"created_at"`
}

// DailyAggregate is one tenant's rolled-up usage for a calendar day.
type DailyAggregate struct {
	Date             time.Time       `json:"date"`
	TenantID         uint            `json:"-"`
	Model            string          `json:"model"`
	PromptTokens     int64           `json:"prompt_tokens"`
	CompletionTokens int64           `json:"completion_tokens"`
	TotalTokens      int64           `json:"total_tokens"`
	RequestCount     int64           `json:"request_count"`
	EstimatedCostUSD decimal.Decimal `json:"estimated_cost_usd"`
}

type Repository interface {
	Create(ctx context.Context, row *UsageLog) error
	// RollupDay aggregates usage_logs into the daily table for the given
	// UTC date. Idempotent: re-running a day replaces its aggregates.
	RollupDay(ctx context.Context, day time.Time) error
}

// Model pricing (USD per token). Unknown models fall back to a default rate.
var modelPricing = map[string]struct {
	PromptPrice     decimal.Decimal
	CompletionPrice decimal.Decimal
}{
	"gpt-4o":      {decimal.NewFromFloat(0.000005), decimal.NewFromFloat(0.000015)},
	"gpt-4o-mini": {decimal.NewFromFloat(0.00000015), decimal.NewFromFloat(0.0000006)},
	"gpt-4-turbo": {decimal.NewFromFloat(0.00001), decimal.NewFromFloat(0.00003)},
}

var defaultPricing = struct {
	PromptPrice     decimal.Decimal
	CompletionPrice decimal.Decimal
}{
	PromptPrice:     decimal.NewFromFloat(0.000003),
	CompletionPrice: decimal.NewFromFloat(0.000006),
}

// CalculateCost estimates the USD cost of a generation call.
func CalculateCost(model string, promptTokens, completionTokens int) decimal.Decimal {
	pricing, ok := modelPricing[model]
	if !ok {
		pricing = defaultPricing
	}
	promptCost := pricing.PromptPrice.Mul(decimal.NewFromInt(int64(promptTokens)))
	completionCost := pricing.CompletionPrice.Mul(decimal.NewFromInt(int64(completionTokens)))
	return promptCost.Add(completionCost)
}

// Service records usage rows, filling derived fields.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record persists one usage row, computing cost and total tokens when unset.
func (s *Service) Record(ctx context.Context, row *UsageLog) error {
	if row.EstimatedCostUSD.IsZero() {
		row.EstimatedCostUSD = CalculateCost(row.Model, row.PromptTokens, row.CompletionTokens)
	}
	if row.TotalTokens == 0 {
		row.TotalTokens = row.PromptTokens + row.CompletionTokens
	}
	return s.repo.Create(ctx, row)
}

// RollupDay delegates to the repository's daily aggregation.
func (s *Service) RollupDay(ctx context.Context, day time.Time) error {
	return s.repo.RollupDay(ctx, day)
}
