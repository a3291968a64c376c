package gorm

import (
	"time"

	"gorm.io/gorm"
)

// Reassignment is one audited change of the player controlling a character in a session.
type Reassignment struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID      string    `gorm:"index;not null" json:"sessionId"`
	Character      string    `gorm:"not null" json:"character"`
	PreviousPlayer string    `gorm:"not null" json:"previousPlayer"`
	NewPlayer      string    `gorm:"not null" json:"newPlayer"`
	BackupPath     string    `json:"backupPath"`
	RequestID      string    `gorm:"index" json:"requestId,omitempty"`
	CreatedAt      time.Time `gorm:"index:idx_reassignments_created,sort:desc;not null" json:"createdAt"`
}

func (Reassignment) TableName() string { return "reassignments" }

// BeforeCreate hook to ensure the timestamp is set.
func (r *Reassignment) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}
