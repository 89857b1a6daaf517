package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/katasensei/pkg/models"
)

const exportSheet = "Sheet1"

var exportHeader = []interface{}{"Japanese", "Furigana", "Romaji", "Indonesia", "Example", "Tags"}

// ExportCards writes cards to an xlsx file in the default import layout
func ExportCards(path string, cards []models.Card) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, c := range cards {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{c.Japanese, c.Furigana, c.Romaji, c.Indonesia, c.Example, strings.Join(c.Tags, ", ")}
		if err := f.SetSheetRow(exportSheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}
