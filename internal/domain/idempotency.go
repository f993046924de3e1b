package domain

import "time"

// Idempotency records the outcome of a completed submission keyed by
// (client_key, key), so a client retrying with the same Idempotency-Key gets
// the original application id back instead of creating a second row.
type Idempotency struct {
	ID            string    `gorm:"type:char(36);primaryKey"`
	ClientKey     string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_client_key,priority:1"`
	Key           string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_client_key,priority:2"`
	ApplicationID string    `gorm:"type:char(36);not null"`
	Status        int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt     time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
