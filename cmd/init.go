package cmd

import (
	"fmt"

	"github.com/illarion/locknote/internal/config"
	"github.com/illarion/locknote/internal/core"
	"github.com/illarion/locknote/internal/crypto"
	"github.com/spf13/cobra"
)

var initNoPassword bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a notes database",
	Long: `Create an empty notes database at --db (default ~/.locknote/notes.db).

Prompts for a note password unless --no-password is given or
LOCKNOTE_PASSWORD is set. The password encrypts individual notes and
unlocks the session; it is not stored anywhere.

Examples:
  locknote init
  locknote init --no-password
  locknote --db ./work.db init`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var password []byte
		if !initNoPassword {
			var err error
			if password = config.PasswordFromEnv(); password == nil {
				if password, err = core.ReadPasswordConfirm("Enter note password: "); err != nil {
					return err
				}
			}
			defer crypto.ClearBytes(password)
		}

		app, err := core.Init(options())
		if err != nil {
			return err
		}
		if len(password) > 0 {
			if err := app.SetPassword(string(password)); err != nil {
				app.Close()
				return err
			}
		}
		if err := app.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Initialized %s\n", config.ExpandHome(dbPath))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initNoPassword, "no-password", false, "create without a note password")
	rootCmd.AddCommand(initCmd)
}
