package dbschema

import "time"

// BaseModel is the common surrogate key and timestamp columns shared by all
// tables.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
