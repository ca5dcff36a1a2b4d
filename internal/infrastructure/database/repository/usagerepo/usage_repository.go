package usagerepo

import (
	"context"
	"time"

	"answerdesk/chat-api/internal/domain/usage"
	"answerdesk/chat-api/internal/infrastructure/database/dbschema"
	"answerdesk/chat-api/internal/infrastructure/database/transaction"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

type UsageGormRepository struct {
	db *transaction.Database
}

var _ usage.Repository = (*UsageGormRepository)(nil)

func NewUsageGormRepository(db *transaction.Database) usage.Repository {
	return &UsageGormRepository{db}
}

// Create implements usage.Repository.
func (repo *UsageGormRepository) Create(ctx context.Context, row *usage.UsageLog) error {
	model := dbschema.NewSchemaUsageLog(row)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to create usage log")
	}
	row.ID = model.ID
	row.CreatedAt = model.CreatedAt
	return nil
}

// RollupDay implements usage.Repository. Deleting and re-inserting the day's
// aggregates inside one transaction makes the job safe to re-run.
func (repo *UsageGormRepository) RollupDay(ctx context.Context, day time.Time) error {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	return repo.db.RunInTx(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx).WithContext(ctx)

		err := tx.Where("date = ?", dayStart).
			Delete(&dbschema.UsageDaily{}).Error
		if err != nil {
			return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to clear daily aggregates")
		}

		err = tx.Exec(`
			INSERT INTO chat_api.usage_dailies
				(date, tenant_id, model, prompt_tokens, completion_tokens,
				 total_tokens, request_count, estimated_cost_usd, created_at, updated_at)
			SELECT
				?::date, tenant_id, model,
				COALESCE(SUM(prompt_tokens), 0),
				COALESCE(SUM(completion_tokens), 0),
				COALESCE(SUM(total_tokens), 0),
				COUNT(*),
				COALESCE(SUM(estimated_cost_usd), 0),
				NOW(), NOW()
			FROM chat_api.usage_logs
			WHERE created_at >= ? AND created_at < ?
			GROUP BY tenant_id, model`,
			dayStart, dayStart, dayEnd).Error
		if err != nil {
			return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to aggregate usage")
		}
		return nil
	})
}
