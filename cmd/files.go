package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/locknote/internal/core"
	"github.com/illarion/locknote/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat  string
	exportDir     string
	exportDecrypt bool
	diffMirror    bool
)

var exportCmd = &cobra.Command{
	Use:   "export <id>...",
	Short: "Export notes as text, markdown or JSON files",
	Long: `Write each note to a file in --dir named after its title.

Encrypted notes are exported as ciphertext unless --decrypt is given.

Examples:
  locknote export 3f2a
  locknote export 3f2a 9c01 --format txt --dir ./out
  locknote export 3f2a --decrypt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		return withUnlockedApp(func(app *core.App) error {
			for _, ref := range args {
				n, err := findNote(app.Store(), ref)
				if err != nil {
					return err
				}
				password := ""
				if exportDecrypt {
					if password, err = notePassword(app, n); err != nil {
						return err
					}
				}
				path, err := app.Export(n.ID, format, exportDir, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", path)
			}
			return nil
		})
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <id> [file]",
	Short: "Compare a note with a file or its mirror copy",
	Long: `Print a line diff from the note content to a file, or to the note's
copy in the mirror directory with --mirror. Encrypted notes are compared
in plain text. Prints nothing when they match.

Examples:
  locknote diff 3f2a ./draft.md
  locknote diff 3f2a --mirror`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if diffMirror == (len(args) == 2) {
			return fmt.Errorf("give either a file or --mirror")
		}
		return withUnlockedApp(func(app *core.App) error {
			n, err := findNote(app.Store(), args[0])
			if err != nil {
				return err
			}
			password, err := notePassword(app, n)
			if err != nil {
				return err
			}

			var patch string
			if diffMirror {
				patch, err = app.DiffMirror(cmd.Context(), n.ID, password)
			} else {
				var data []byte
				if data, err = os.ReadFile(args[1]); err != nil {
					return err
				}
				patch, err = app.DiffNote(n.ID, args[1], string(data), password)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), patch)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "F", string(export.FormatMarkdown), "txt, md or json")
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", ".", "output directory")
	exportCmd.Flags().BoolVar(&exportDecrypt, "decrypt", false, "export encrypted notes in plain text")
	diffCmd.Flags().BoolVar(&diffMirror, "mirror", false, "compare with the mirror copy")

	rootCmd.AddCommand(exportCmd, diffCmd)
}
