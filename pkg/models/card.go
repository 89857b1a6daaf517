package models

import "time"

// Card represents a single vocabulary flashcard owned by a deck
type Card struct {
	ID         string     `json:"id"`
	DeckID     string     `json:"deckId"`
	Japanese   string     `json:"japanese"`
	Furigana   string     `json:"furigana,omitempty"`
	Romaji     string     `json:"romaji"`
	Indonesia  string     `json:"indonesia"` // Meaning shown to the learner
	Example    string     `json:"example,omitempty"`
	ReviewMeta ReviewMeta `json:"reviewMeta"`
	Tags       []string   `json:"tags"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ReviewMeta holds the SM-2 scheduling state embedded in every card
type ReviewMeta struct {
	Repetitions  int        `json:"repetitions"`  // Consecutive correct reviews
	EaseFactor   float64    `json:"easeFactor"`   // Interval growth multiplier, never below 1.3
	Interval     int        `json:"interval"`     // Days until the next review
	NextReview   time.Time  `json:"nextReview"`   // Authoritative due instant (UTC)
	LastReviewed *time.Time `json:"lastReviewed"` // Nil until the first grade
}
