package dtos

import "time"

// SessionViewDTO merges the live in-memory state with the durable record.
// InMemory reports whether a running session backs the view; when it is false
// the status is the last persisted value.
type SessionViewDTO struct {
	Identity    string     `json:"identity"`
	Status      string     `json:"status"`
	Phone       string     `json:"phone,omitempty"`
	PairingCode string     `json:"pairing_code,omitempty"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	InMemory    bool       `json:"in_memory"`
}

type SessionCommandDTO struct {
	Action string `json:"action" binding:"required,oneof=start stop logout delete"`
}

type SessionCommandResultDTO struct {
	Identity    string `json:"identity"`
	Status      string `json:"status"`
	Phone       string `json:"phone,omitempty"`
	PairingCode string `json:"pairing_code,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

type TriggerReloadResultDTO struct {
	Sessions int `json:"sessions"`
}
