package quiz

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/example/katasensei/pkg/models"
)

// ErrNoCards is returned when there is nothing to ask about
var ErrNoCards = errors.New("no cards to quiz")

// Type represents different kinds of questions
type Type string

const (
	// MultipleChoice asks for the meaning among a few options
	MultipleChoice Type = "choice"
	// TextInput asks the user to type the romaji
	TextInput Type = "romaji"
	// ContextTest asks for the word blanked out of its example sentence
	ContextTest Type = "context"
)

// ParseType accepts the names used on the command line
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case MultipleChoice, TextInput, ContextTest:
		return t, nil
	case "":
		return MultipleChoice, nil
	default:
		return "", errors.New("unknown quiz type " + strconv.Quote(s))
	}
}

const (
	optionCount = 4
	blank       = "＿＿＿"
)

// Question represents a single quiz question
type Question struct {
	Card            models.Card
	Type            Type
	Options         []string // Possible meanings, multiple choice only
	CorrectIndex    int      // Index of the meaning in Options
	ContextSentence string   // Example with the word blanked, context only
}

// Prompt is the text shown to the user
func (q Question) Prompt() string {
	switch q.Type {
	case TextInput:
		return q.Card.Japanese + " (" + q.Card.Indonesia + ")"
	case ContextTest:
		return q.ContextSentence + "  [" + q.Card.Indonesia + "]"
	default:
		return q.Card.Japanese
	}
}

// Answer is the expected answer in display form
func (q Question) Answer() string {
	switch q.Type {
	case MultipleChoice:
		return strconv.Itoa(q.CorrectIndex+1) + ". " + q.Options[q.CorrectIndex]
	case TextInput:
		return q.Card.Romaji
	default:
		return q.Card.Japanese + " (" + q.Card.Romaji + ")"
	}
}

// Check reports whether answer is right. Multiple choice takes the option
// number or its text; typed answers ignore case, spaces and hyphens.
func (q Question) Check(answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	switch q.Type {
	case MultipleChoice:
		if n, err := strconv.Atoi(answer); err == nil {
			return n-1 == q.CorrectIndex
		}
		return strings.EqualFold(answer, q.Options[q.CorrectIndex])
	case TextInput:
		return q.Card.Romaji != "" && normalizeRomaji(answer) == normalizeRomaji(q.Card.Romaji)
	default:
		return answer == q.Card.Japanese ||
			(q.Card.Romaji != "" && normalizeRomaji(answer) == normalizeRomaji(q.Card.Romaji))
	}
}

func normalizeRomaji(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "'", "").Replace(s)
}

// Builder creates quizzes
type Builder struct {
	rnd *rand.Rand
}

// NewBuilder creates a builder; rnd is seeded from the clock when nil
func NewBuilder(rnd *rand.Rand) *Builder {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Builder{rnd: rnd}
}

// Build asks about up to count of cards, in order. Distractors for multiple
// choice come from pool, the same deck first.
func (b *Builder) Build(cards, pool []models.Card, count int, t Type) ([]Question, error) {
	if t == TextInput {
		cards = lo.Filter(cards, func(c models.Card, _ int) bool { return c.Romaji != "" })
	}
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	if count > 0 && len(cards) > count {
		cards = cards[:count]
	}

	questions := make([]Question, 0, len(cards))
	for _, card := range cards {
		q := Question{Card: card, Type: t}
		switch t {
		case MultipleChoice:
			options := append(b.distractors(card, pool, optionCount-1), card.Indonesia)
			b.rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
			q.Options = options
			q.CorrectIndex = lo.IndexOf(options, card.Indonesia)
		case ContextTest:
			q.ContextSentence = replaceWordWithBlank(card.Example, card.Japanese)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// distractors picks up to n other meanings for card
func (b *Builder) distractors(card models.Card, pool []models.Card, n int) []string {
	others := lo.Filter(pool, func(c models.Card, _ int) bool {
		return c.ID != card.ID && c.Indonesia != "" && c.Indonesia != card.Indonesia
	})
	sameDeck := lo.Filter(others, func(c models.Card, _ int) bool { return c.DeckID == card.DeckID })
	otherDecks := lo.Filter(others, func(c models.Card, _ int) bool { return c.DeckID != card.DeckID })
	b.rnd.Shuffle(len(sameDeck), func(i, j int) { sameDeck[i], sameDeck[j] = sameDeck[j], sameDeck[i] })
	b.rnd.Shuffle(len(otherDecks), func(i, j int) { otherDecks[i], otherDecks[j] = otherDecks[j], otherDecks[i] })

	meanings := lo.Uniq(lo.Map(append(sameDeck, otherDecks...), func(c models.Card, _ int) string { return c.Indonesia }))
	if len(meanings) > n {
		meanings = meanings[:n]
	}
	return meanings
}

// replaceWordWithBlank blanks the first occurrence of word in sentence. A
// sentence without the word, or no sentence at all, gets a trailing blank.
func replaceWordWithBlank(sentence, word string) string {
	if sentence == "" {
		return blank
	}
	if word != "" && strings.Contains(sentence, word) {
		return strings.Replace(sentence, word, blank, 1)
	}
	return sentence + " " + blank
}

// Result is the score of a finished quiz
type Result struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Percent is the share of correct answers, 0 for an empty quiz
func (r Result) Percent() int {
	if r.Total == 0 {
		return 0
	}
	return r.Correct * 100 / r.Total
}
