package models

import "time"

// ReviewTask is a user-scheduled review of a specific set of cards
type ReviewTask struct {
	ID            string    `json:"id"`
	CardIDs       []string  `json:"cardIds"`
	DeckID        string    `json:"deckId,omitempty"` // Provenance only
	ScheduledTime time.Time `json:"scheduledTime"`
	Title         string    `json:"title"`
	Completed     bool      `json:"completed"` // Once true, never reverts
	CreatedAt     time.Time `json:"createdAt"`
}
