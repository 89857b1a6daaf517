package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/katasensei/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath        string // Path to the Excel or CSV file
	JapaneseColumn  string // Column with the word in Japanese script
	FuriganaColumn  string // Column with the kana reading
	RomajiColumn    string // Column with the romaji
	IndonesiaColumn string // Column with the meaning
	ExampleColumn   string // Column with an example sentence
	TagsColumn      string // Column with comma-separated tags
	SheetName       string // Name of the sheet to import, first sheet when empty
	StartRow        int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		JapaneseColumn:  "A",
		FuriganaColumn:  "B",
		RomajiColumn:    "C",
		IndonesiaColumn: "D",
		ExampleColumn:   "E",
		TagsColumn:      "F",
		StartRow:        2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// CardStore is where imported cards go
type CardStore interface {
	ListCards(ctx context.Context, deckID string) []models.Card
	AddCards(ctx context.Context, cards []models.Card) (int, error)
	UpdateCard(ctx context.Context, card models.Card) (models.Card, error)
}

// ImportCards imports cards into deckID from an Excel or CSV file. A card
// whose Japanese text already exists in the deck is updated in place.
func ImportCards(ctx context.Context, store CardStore, config ImportConfig, deckID string) (*ImportResult, error) {
	if deckID == "" {
		return nil, fmt.Errorf("deck id is required")
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	var rows [][]string
	var err error
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	existing := make(map[string]models.Card)
	for _, c := range store.ListCards(ctx, deckID) {
		existing[c.Japanese] = c
	}

	result := &ImportResult{Errors: make([]string, 0)}
	var fresh []models.Card
	section := ""

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}

		// A row with only the first column set names a section, e.g. "Makanan,,,"
		if name, ok := sectionHeader(row); ok {
			section = name
			continue
		}

		result.Total++
		card, err := parseRow(row, config)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		card.DeckID = deckID
		if section != "" {
			card.Tags = append(card.Tags, section)
		}

		if old, ok := existing[card.Japanese]; ok {
			old.Furigana = card.Furigana
			old.Romaji = card.Romaji
			old.Indonesia = card.Indonesia
			old.Example = card.Example
			old.Tags = card.Tags
			if _, err := store.UpdateCard(ctx, old); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: failed to update card: %v", rowNum, err))
				continue
			}
			existing[card.Japanese] = old
			result.Updated++
			continue
		}

		existing[card.Japanese] = card
		fresh = append(fresh, card)
	}

	if len(fresh) > 0 {
		added, err := store.AddCards(ctx, fresh)
		if err != nil {
			return result, fmt.Errorf("failed to add cards: %w", err)
		}
		result.Created = added
	}
	return result, nil
}

// readExcel returns all rows of sheet, the first sheet when sheet is empty
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns all records of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		if len(rows) == 0 && len(row) > 0 {
			row[0] = strings.TrimPrefix(row[0], "\ufeff")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseRow extracts a card from a row; japanese and meaning are required
func parseRow(row []string, config ImportConfig) (models.Card, error) {
	card := models.Card{
		Japanese:  cell(row, config.JapaneseColumn),
		Furigana:  cell(row, config.FuriganaColumn),
		Romaji:    cell(row, config.RomajiColumn),
		Indonesia: cell(row, config.IndonesiaColumn),
		Example:   cell(row, config.ExampleColumn),
		Tags:      splitTags(cell(row, config.TagsColumn)),
	}
	if card.Japanese == "" {
		return card, fmt.Errorf("japanese cannot be empty")
	}
	if card.Indonesia == "" {
		return card, fmt.Errorf("meaning cannot be empty")
	}
	return card, nil
}

func sectionHeader(row []string) (string, bool) {
	first := strings.Trim(strings.TrimSpace(row[0]), "\"")
	if first == "" {
		return "", false
	}
	for _, v := range row[1:] {
		if strings.TrimSpace(v) != "" {
			return "", false
		}
	}
	return first, true
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// cell returns the trimmed value of column in row, empty when out of range
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
