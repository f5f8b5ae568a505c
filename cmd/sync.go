package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/illarion/locknote/internal/auth"
	"github.com/illarion/locknote/internal/core"
	"github.com/illarion/locknote/internal/crypto"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Exchange notes with the mirror directory",
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Load notes and collections from the mirror",
	Long: `Merge notes from the mirror, newest edit wins per note. Folders,
projects, lanes and settings present in the mirror replace the local ones.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			res, err := app.Pull(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d note(s), %d folder(s), %d project(s), %d lane(s)\n",
				res.Notes, res.Folders, res.Projects, res.Lanes)
			if res.Settings {
				fmt.Fprintln(cmd.OutOrStdout(), "Settings replaced from mirror")
			}
			return nil
		})
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Write every note and collection to the mirror",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			if err := app.Push(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Pushed to mirror")
			return nil
		})
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Sign up, sign in or sign out of a local account",
}

var signupCmd = &cobra.Command{
	Use:   "signup [email]",
	Short: "Create an account and open the session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			email, err := readEmail(cmd, args)
			if err != nil {
				return err
			}
			password, err := core.ReadPasswordConfirm("Account password: ")
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(password)
			return report(cmd, app.SignUp(cmd.Context(), email, string(password)))
		})
	},
}

var signinCmd = &cobra.Command{
	Use:   "signin [email]",
	Short: "Sign in, pull from the mirror and open the session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			email, err := readEmail(cmd, args)
			if err != nil {
				return err
			}
			password, err := core.ReadPassword("Account password: ")
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(password)
			return report(cmd, app.SignIn(cmd.Context(), email, string(password)))
		})
	},
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			return report(cmd, app.SignOut(cmd.Context()))
		})
	},
}

func readEmail(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Email: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// report prints an auth result; a failed result is the command's error.
func report(cmd *cobra.Command, res auth.Result) error {
	if !res.OK {
		return errors.New(res.Message)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", res.Message)
	return nil
}

func init() {
	syncCmd.AddCommand(pullCmd, pushCmd)
	accountCmd.AddCommand(signupCmd, signinCmd, signoutCmd)
	rootCmd.AddCommand(syncCmd, accountCmd)
}
