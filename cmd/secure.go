package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/illarion/locknote/internal/core"
	"github.com/illarion/locknote/internal/crypto"
	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Set or change the note password",
	Long: `Set the note password, or change it when one is set.

Changing re-encrypts every encrypted note, including those in the trash.
Notes the current password cannot open are left untouched and reported.
A remembered keyring password is updated and the database is compacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			out := cmd.OutOrStdout()
			if !app.Store().Session().HasPassword {
				password, err := core.ReadPasswordConfirm("Enter new password: ")
				if err != nil {
					return err
				}
				defer crypto.ClearBytes(password)
				if err := app.SetPassword(string(password)); err != nil {
					return err
				}
				fmt.Fprintln(out, "✓ Password set")
				return nil
			}

			current, err := getPassword(app, "Enter current password: ")
			if err != nil {
				return err
			}
			if err := app.VerifyPassword(current); err != nil {
				return err
			}

			next, err := core.ReadPasswordConfirm("Enter new password: ")
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(next)

			changed, skipped, err := app.ChangePassword(current, string(next))
			if err != nil {
				return err
			}
			if skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d note(s) could not be opened with the current password and were left as is\n", skipped)
			}

			if app.HasKeyringPassword() {
				if err := app.SavePasswordToKeyring(string(next)); err == nil {
					fmt.Fprintln(out, "Keyring updated with new password")
				}
			}

			// re-encryption leaves free pages behind
			if err := app.Compact(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: compaction failed: %s\n", err)
			}

			fmt.Fprintf(out, "✓ Password changed, %d note(s) re-encrypted\n", changed)
			return nil
		})
	},
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt <id>...",
	Short: "Encrypt notes with the note password",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedApp(func(app *core.App) error {
			password, err := getPassword(app, "Enter password: ")
			if err != nil {
				return err
			}
			for _, ref := range args {
				n, err := findNote(app.Store(), ref)
				if err != nil {
					return err
				}
				if err := app.EncryptNote(n.ID, password); err != nil {
					return fmt.Errorf("%s: %w", n.Title, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Encrypted: %s\n", n.Title)
			}
			return nil
		})
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <id>...",
	Short: "Remove encryption from notes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedApp(func(app *core.App) error {
			password, err := getPassword(app, "Enter password: ")
			if err != nil {
				return err
			}
			for _, ref := range args {
				n, err := findNote(app.Store(), ref)
				if err != nil {
					return err
				}
				if err := app.RemoveEncryption(n.ID, password); err != nil {
					return fmt.Errorf("%s: %w", n.Title, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Decrypted: %s\n", n.Title)
			}
			return nil
		})
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			app.Lock()
			fmt.Fprintln(cmd.OutOrStdout(), "Locked")
			return nil
		})
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the session",
	Long: `Unlock the session. When a note password is set it is required,
from LOCKNOTE_PASSWORD, the keyring (with biometricAuth on) or a prompt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			password := ""
			if app.Store().Session().HasPassword {
				var err error
				if password, err = getPassword(app, "Enter password: "); err != nil {
					return err
				}
			}
			if err := app.Unlock(password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Unlocked")
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Hold the session open and auto-lock after inactivity",
	Long: `Unlock the session and keep it open until interrupted or until the
auto-lock timeout passes with no activity. Each line read from standard
input counts as activity. Requires autoLock to be on for the timeout to
apply; see 'locknote settings'.

The database stays open while watching, so other locknote commands wait
for it and then fail as busy.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			password := ""
			if app.Store().Session().HasPassword {
				var err error
				if password, err = getPassword(app, "Enter password: "); err != nil {
					return err
				}
			}
			if err := app.Unlock(password); err != nil {
				return err
			}

			settings := app.Store().Settings()
			out := cmd.OutOrStdout()
			if settings.AutoLock {
				fmt.Fprintf(out, "Unlocked, auto-lock after %s of inactivity (Ctrl-C to stop)\n", settings.AutoLockAfter())
			} else {
				fmt.Fprintln(out, "Unlocked, auto-lock is off (Ctrl-C to stop)")
			}
			ctx := cmd.Context()
			return app.Watch(ctx, lineActivity(ctx, cmd.InOrStdin()), func() {
				fmt.Fprintln(out, "Locked after inactivity")
			})
		})
	},
}

// lineActivity sends one value per line read from r and closes the
// channel at end of input.
func lineActivity(ctx context.Context, r io.Reader) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

var keyringCmd = &cobra.Command{
	Use:   "keyring",
	Short: "Remember the note password in the OS keyring",
}

var keyringSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the note password to the keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			password, err := core.ReadPassword("Enter password: ")
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(password)

			if err := app.SavePasswordToKeyring(string(password)); err != nil {
				return fmt.Errorf("failed to save to keyring: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password saved to keyring")
			if !app.Store().Settings().BiometricAuth {
				fmt.Fprintln(cmd.OutOrStdout(), "Run 'locknote settings set biometricAuth true' to use it")
			}
			return nil
		})
	},
}

var keyringForgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Remove the note password from the keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			if !app.HasKeyringPassword() {
				fmt.Fprintln(cmd.OutOrStdout(), "No password stored in keyring")
				return nil
			}
			if err := app.ForgetKeyringPassword(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password removed from keyring")
			return nil
		})
	},
}

var keyringStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a password is remembered",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			if app.HasKeyringPassword() {
				fmt.Fprintln(cmd.OutOrStdout(), "Password: stored in keyring")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Password: not stored")
			}
			return nil
		})
	},
}

func init() {
	keyringCmd.AddCommand(keyringSaveCmd, keyringForgetCmd, keyringStatusCmd)
	rootCmd.AddCommand(passwdCmd, encryptCmd, decryptCmd, lockCmd, unlockCmd, watchCmd, keyringCmd)
}
