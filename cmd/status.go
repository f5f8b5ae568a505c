package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/illarion/locknote/internal/core"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and session status",
	Long:  `Show counts, session state and storage details. Does not require a password.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := options().DBPath
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "No notes database at %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'locknote init' to create one")
			return nil
		}

		return withApp(func(app *core.App) error {
			st, err := app.Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Database:   %s (%s state)\n", st.Storage.Path, formatSize(int64(st.Storage.StateSize)))
			fmt.Fprintf(out, "Created:    %s\n", st.Storage.Created.Local().Format(time.DateTime))
			fmt.Fprintf(out, "Last saved: %s ago\n", st.Storage.Age(time.Now()).Round(time.Second))
			fmt.Fprintf(out, "Session:    %s\n", st.State)
			if st.HasPassword {
				fmt.Fprintln(out, "Password:   set")
			} else {
				fmt.Fprintln(out, "Password:   not set")
			}
			if st.AutoLock {
				fmt.Fprintf(out, "Auto-lock:  after %s\n", st.LockAfter)
			} else {
				fmt.Fprintln(out, "Auto-lock:  off")
			}
			if st.MirrorDir != "" {
				fmt.Fprintf(out, "Mirror:     %s\n", st.MirrorDir)
			}
			if st.Storage.Accounts > 0 {
				fmt.Fprintf(out, "Accounts:   %d\n", st.Storage.Accounts)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "Notes:      %d (%d encrypted, %d favorite)\n", st.Notes, st.Encrypted, st.Favorites)
			fmt.Fprintf(out, "Trash:      %d\n", st.Deleted)
			fmt.Fprintf(out, "Folders:    %d\n", st.Folders)
			fmt.Fprintf(out, "Projects:   %d\n", st.Projects)
			fmt.Fprintf(out, "Tags:       %d\n", st.Tags)
			return nil
		})
	},
}

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Compact the database to reclaim unused space",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			path := options().DBPath
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			sizeBefore := info.Size()

			if err := app.Compact(); err != nil {
				return err
			}

			if info, err = os.Stat(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(info.Size()))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, compactCmd)
}
