package entities

import (
	"time"

	"gorm.io/gorm"
)

// IgnoredContact suppresses automated responses for a phone number. A nil
// ExpiresAt means the suppression is permanent.
type IgnoredContact struct {
	gorm.Model
	Phone     string     `json:"phone" gorm:"uniqueIndex;type:varchar(32);not null"`
	Reason    string     `json:"reason" gorm:"type:varchar(255)"`
	Excerpt   string     `json:"excerpt" gorm:"type:text"`
	IgnoredAt time.Time  `json:"ignored_at"`
	ExpiresAt *time.Time `json:"expires_at" gorm:"index"`
}

// Active reports whether the suppression still applies at the given instant.
// Expiry is a computed property: rows past their expiry are inactive even
// before a purge removes them.
func (c *IgnoredContact) Active(now time.Time) bool {
	return c.ExpiresAt == nil || c.ExpiresAt.After(now)
}

func (IgnoredContact) TableName() string {
	return "ignored_contacts"
}
