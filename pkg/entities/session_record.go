package entities

import (
	"time"
)

// SessionRecord is the durable mirror of a WhatsApp session. The row is
// created on the first start command and updated on every transition; the
// in-memory registry stays authoritative while the session runs in this
// process.
type SessionRecord struct {
	Identity    string     `json:"identity" gorm:"primaryKey;type:varchar(64)"`
	Status      string     `json:"status" gorm:"type:varchar(32);not null;default:'disconnected'"`
	Phone       string     `json:"phone" gorm:"type:varchar(32)"`
	ConnectedAt *time.Time `json:"connected_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (SessionRecord) TableName() string {
	return "session_records"
}
