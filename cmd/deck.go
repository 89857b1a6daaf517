package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/katasensei/internal/excel"
)

var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "List, share and import decks",
}

var deckListCmd = &cobra.Command{
	Use:   "list",
	Short: "List decks with their card and due counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCARDS\tDUE\tTAGS")
		for _, d := range a.decks.ListDecks(ctx) {
			cards := len(a.decks.ListCards(ctx, d.ID))
			due := len(a.decks.StudyQueue(ctx, d.ID, 0))
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", d.ID, d.Name, cards, due, strings.Join(d.Tags, ","))
		}
		return w.Flush()
	},
}

var deckExportCmd = &cobra.Command{
	Use:   "export DECK_ID",
	Short: "Write one deck in the shareable JSON format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := a.decks.ExportDeck(ctx, args[0])
		if err != nil {
			return err
		}
		if output == "" {
			output = args[0] + ".json"
		}
		if err := writeOutput(cmd, output, data); err != nil {
			return err
		}
		if output != "-" {
			cmd.Printf("Deck written to %s\n", output)
		}
		return nil
	},
}

var deckImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Add a shared deck (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		deck, added, err := a.decks.ImportDeck(ctx, data)
		if err != nil {
			return err
		}
		cmd.Printf("Imported %q with %d new card(s)\n", deck.Name, added)
		return nil
	},
}

var deckImportSheetCmd = &cobra.Command{
	Use:   "import-sheet DECK_ID FILE",
	Short: "Import cards from an .xlsx or .csv sheet",
	Long: `Columns default to A japanese, B furigana, C romaji, D meaning,
E example and F tags. A row with only its first cell filled starts a section
whose name is added as a tag to the cards below it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		importCfg := excel.DefaultImportConfig()
		importCfg.FilePath = args[1]
		importCfg.SheetName, _ = cmd.Flags().GetString("sheet")
		importCfg.StartRow, _ = cmd.Flags().GetInt("start-row")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.decks.GetDeck(ctx, args[0]); err != nil {
			return err
		}
		result, err := excel.ImportCards(ctx, a.decks, importCfg, args[0])
		if err != nil {
			return err
		}
		for _, e := range result.Errors {
			a.logger.Warn(e)
		}
		cmd.Printf("%d row(s): %d created, %d updated, %d skipped\n",
			result.Total, result.Created, result.Updated, result.Skipped)
		return nil
	},
}

var deckExportSheetCmd = &cobra.Command{
	Use:   "export-sheet DECK_ID FILE",
	Short: "Write a deck's cards to an .xlsx sheet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.decks.GetDeck(ctx, args[0]); err != nil {
			return err
		}
		cards := a.decks.ListCards(ctx, args[0])
		if err := excel.ExportCards(args[1], cards); err != nil {
			return err
		}
		cmd.Printf("%d card(s) written to %s\n", len(cards), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deckCmd)
	deckCmd.AddCommand(deckListCmd, deckExportCmd, deckImportCmd, deckImportSheetCmd, deckExportSheetCmd)

	deckExportCmd.Flags().StringP("output", "o", "", "output file (default DECK_ID.json), - for stdout")

	deckImportSheetCmd.Flags().String("sheet", "", "sheet name (default the first sheet)")
	deckImportSheetCmd.Flags().Int("start-row", 2, "first data row, 1-based")
}
