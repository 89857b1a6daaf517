package models

import "time"

// Deck groups cards under a title
type Deck struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DeckExport is the shareable single-deck file format
type DeckExport struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Cards       []Card   `json:"cards"`
}

// BackupPayload is the full export of every deck and card
type BackupPayload struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Decks      []Deck    `json:"decks"`
	Cards      []Card    `json:"cards"`
}
