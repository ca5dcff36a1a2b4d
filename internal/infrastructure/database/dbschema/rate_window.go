package dbschema

import (
	"time"

	"answerdesk/chat-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(RateWindow{})
}

// RateWindow is one fixed-window counter. The unique key on
// (key, window_start) lets the repository upsert-and-increment atomically
// across instances. ExpiresAt drives the purge job; expiry is advisory, the
// limiter never reads stale windows.
type RateWindow struct {
	BaseModel
	Key         string    `gorm:"type:varchar(150);uniqueIndex:idx_rate_window_key_start;not null"`
	WindowStart time.Time `gorm:"uniqueIndex:idx_rate_window_key_start;not null"`
	Count       int64     `gorm:"not null;default:0"`
	ExpiresAt   time.Time `gorm:"index;not null"`
}
