package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore every deck and card",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a full JSON backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := a.decks.ExportAll(ctx)
		if err != nil {
			return fmt.Errorf("export backup: %w", err)
		}
		if err := writeOutput(cmd, output, data); err != nil {
			return err
		}
		if output != "-" {
			cmd.Printf("Backup written to %s\n", output)
		}
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all decks and cards with a JSON backup (- for stdin)",
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

		ok, err := a.decks.ImportAll(ctx, data)
		if err != nil {
			return fmt.Errorf("import backup: %w", err)
		}
		if !ok {
			return fmt.Errorf("%s is not a valid backup, nothing was changed", args[0])
		}
		decks, cards := a.decks.Snapshot(ctx)
		cmd.Printf("Restored %d deck(s) and %d card(s)\n", len(decks), len(cards))
		return nil
	},
}

// writeOutput writes data to path, or to stdout when path is "-"
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// readInput reads path, or stdin when path is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)

	backupExportCmd.Flags().StringP("output", "o", "katasensei-backup.json", "output file, - for stdout")
}
