package models

import "time"

// ProcessedEvent is one accepted webhook nonce. Nonces are globally unique
// regardless of provider.
type ProcessedEvent struct {
	Nonce       string    `json:"nonce"`
	Provider    string    `json:"provider"`
	ProcessedAt time.Time `json:"processed_at"`
}
