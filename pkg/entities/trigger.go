package entities

import (
	"gorm.io/gorm"
)

// Trigger is a keyword-activated sequence of automated outbound messages.
type Trigger struct {
	gorm.Model
	Keyword string        `json:"keyword" gorm:"uniqueIndex;type:varchar(64);not null"`
	Enabled bool          `json:"enabled" gorm:"default:true"`
	Steps   []TriggerStep `json:"steps" gorm:"foreignKey:TriggerID;constraint:OnDelete:CASCADE"`
}

// TriggerStep is one ordered message of a trigger sequence.
type TriggerStep struct {
	gorm.Model
	TriggerID uint   `json:"trigger_id" gorm:"index;not null"`
	Position  int    `json:"position" gorm:"not null"`
	Body      string `json:"body" gorm:"type:text;not null"`
	DelayMs   int    `json:"delay_ms" gorm:"default:0"`
}
