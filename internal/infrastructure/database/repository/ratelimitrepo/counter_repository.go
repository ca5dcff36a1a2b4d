package ratelimitrepo

import (
	"context"
	"time"

	"answerdesk/chat-api/internal/domain/ratelimit"
	"answerdesk/chat-api/internal/infrastructure/database/dbschema"
	"answerdesk/chat-api/internal/infrastructure/database/transaction"
	"answerdesk/chat-api/internal/utils/platformerrors"
)

// CounterGormRepository backs the rate limiter with a Postgres upsert so the
// count stays exact across instances sharing one database.
type CounterGormRepository struct {
	db *transaction.Database
}

var _ ratelimit.CounterStore = (*CounterGormRepository)(nil)

func NewCounterGormRepository(db *transaction.Database) *CounterGormRepository {
	return &CounterGormRepository{db}
}

// Incr implements ratelimit.CounterStore. The ON CONFLICT increment and the
// RETURNING read are one statement, so two concurrent requests can never
// observe the same count.
func (repo *CounterGormRepository) Incr(ctx context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error) {
	var count int64
	err := repo.db.GetTx(ctx).WithContext(ctx).Raw(`
		INSERT INTO chat_api.rate_windows
			(key, window_start, count, expires_at, created_at, updated_at)
		VALUES (?, ?, 1, ?, NOW(), NOW())
		ON CONFLICT (key, window_start)
		DO UPDATE SET count = chat_api.rate_windows.count + 1, updated_at = NOW()
		RETURNING count`,
		key, windowStart.UTC(), windowStart.UTC().Add(ttl)).
		Scan(&count).Error
	if err != nil {
		return 0, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to increment rate window")
	}
	return count, nil
}

// PurgeExpired deletes windows past their expiry. Run from the maintenance
// job; correctness never depends on it.
func (repo *CounterGormRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tx := repo.db.GetTx(ctx).WithContext(ctx).
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&dbschema.RateWindow{})
	if tx.Error != nil {
		return 0, platformerrors.AsError(platformerrors.LayerRepository, tx.Error, "failed to purge rate windows")
	}
	return tx.RowsAffected, nil
}
