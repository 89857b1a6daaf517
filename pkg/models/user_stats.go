package models

// StudySession aggregates one calendar day of study
type StudySession struct {
	Date          string `json:"date"` // YYYY-MM-DD
	CardsReviewed int    `json:"cardsReviewed"`
	CorrectCount  int    `json:"correctCount"`
	WrongCount    int    `json:"wrongCount"`
	StudyTimeMs   int64  `json:"studyTimeMs"`
}

// UserStats is the gamification ledger of a single learner
type UserStats struct {
	Streak        int    `json:"streak"`
	LastStudyDate string `json:"lastStudyDate,omitempty"` // YYYY-MM-DD, empty before the first study
	MaxStreak     int    `json:"maxStreak"`
	Level         int    `json:"level"`
	CurrentXP     int    `json:"currentXp"`
	NextLevelXP   int    `json:"nextLevelXp"`
	DailyTarget   int    `json:"dailyTarget"` // Cards per day, at least 1

	TotalStudyTimeMs   int64          `json:"totalStudyTimeMs"`
	TotalCardsReviewed int            `json:"totalCardsReviewed"`
	TotalCorrect       int            `json:"totalCorrect"`
	TotalWrong         int            `json:"totalWrong"`
	StudyHistory       []StudySession `json:"studyHistory"` // Most recent first, at most 30 entries
}
