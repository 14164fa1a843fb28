package dtos

import "time"

// AddIgnoredDTO suppresses automated responses for a phone number. Hours
// defaults to 168 when omitted; zero means permanent.
type AddIgnoredDTO struct {
	Phone   string `json:"phone" binding:"required,phone"`
	Reason  string `json:"reason"`
	Excerpt string `json:"excerpt"`
	Hours   *int   `json:"hours"`
}

type PurgeIgnoredDTO struct {
	Scope string `json:"scope" binding:"required,oneof=expired all"`
}

type IgnoredContactDTO struct {
	ID        uint       `json:"id"`
	Phone     string     `json:"phone"`
	Reason    string     `json:"reason,omitempty"`
	Excerpt   string     `json:"excerpt,omitempty"`
	IgnoredAt time.Time  `json:"ignored_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Active    bool       `json:"active"`
}

type PurgeResultDTO struct {
	Deleted int64 `json:"deleted"`
}
