package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/illarion/locknote/internal/core"
	"github.com/illarion/locknote/internal/notes"
	"github.com/spf13/cobra"
)

var (
	errFolderNotFound  = errors.New("folder not found")
	errProjectNotFound = errors.New("project not found")
	errLaneNotFound    = errors.New("lane not found")
)

var (
	folderParent string
	folderColor  string
	projectColor string
	projectDesc  string
)

// findFolder resolves a folder by id or case-insensitive name.
func findFolder(store *notes.Store, ref string) (notes.Folder, error) {
	if f, ok := store.Folder(ref); ok {
		return f, nil
	}
	for _, f := range store.Folders() {
		if strings.EqualFold(f.Name, ref) {
			return f, nil
		}
	}
	return notes.Folder{}, fmt.Errorf("%w: %s", errFolderNotFound, ref)
}

// findProject resolves a project by id or case-insensitive name.
func findProject(store *notes.Store, ref string) (notes.Project, error) {
	for _, p := range store.Projects() {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return notes.Project{}, fmt.Errorf("%w: %s", errProjectNotFound, ref)
}

// findLane resolves a lane of a project by id or case-insensitive name.
func findLane(store *notes.Store, projectID, ref string) (notes.Lane, error) {
	for _, l := range store.Lanes(projectID) {
		if l.ID == ref || strings.EqualFold(l.Name, ref) {
			return l, nil
		}
	}
	return notes.Lane{}, fmt.Errorf("%w: %s", errLaneNotFound, ref)
}

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage folders",
}

var folderAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			store := app.Store()
			parentID := ""
			if folderParent != "" {
				parent, err := findFolder(store, folderParent)
				if err != nil {
					return err
				}
				parentID = parent.ID
			}
			f := store.CreateFolder(args[0], parentID)
			if folderColor != "" {
				store.UpdateFolder(f.ID, notes.FolderPatch{Color: notes.Ptr(folderColor)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.ID)
			return nil
		})
	},
}

var folderRenameCmd = &cobra.Command{
	Use:   "rename <folder> <name>",
	Short: "Rename a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			f, err := findFolder(app.Store(), args[0])
			if err != nil {
				return err
			}
			app.Store().UpdateFolder(f.ID, notes.FolderPatch{Name: notes.Ptr(args[1])})
			return nil
		})
	},
}

var folderMoveCmd = &cobra.Command{
	Use:   "mv <folder> [parent]",
	Short: "Nest a folder under another, or at the top level",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			store := app.Store()
			f, err := findFolder(store, args[0])
			if err != nil {
				return err
			}
			parentID := ""
			if len(args) == 2 {
				parent, err := findFolder(store, args[1])
				if err != nil {
					return err
				}
				parentID = parent.ID
			}
			store.UpdateFolder(f.ID, notes.FolderPatch{ParentID: notes.Ptr(parentID)})
			if moved, _ := store.Folder(f.ID); moved.ParentID != parentID {
				return fmt.Errorf("cannot move %s into its own subfolder", f.Name)
			}
			return nil
		})
	},
}

var folderRmCmd = &cobra.Command{
	Use:   "rm <folder>",
	Short: "Delete a folder; its notes and subfolders are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			f, err := findFolder(app.Store(), args[0])
			if err != nil {
				return err
			}
			app.Store().DeleteFolder(f.ID)
			return nil
		})
	},
}

var folderLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List folders as a tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			store := app.Store()
			counts := map[string]int{}
			for _, n := range store.Notes(notes.Filter{}) {
				counts[n.FolderID]++
			}
			printFolders(cmd.OutOrStdout(), store.Folders(), counts, "", 0)
			return nil
		})
	},
}

func printFolders(w io.Writer, all []notes.Folder, counts map[string]int, parentID string, depth int) {
	for _, f := range all {
		if f.ParentID != parentID {
			continue
		}
		fmt.Fprintf(w, "%s%s (%d)\n", strings.Repeat("  ", depth), f.Name, counts[f.ID])
		printFolders(w, all, counts, f.ID, depth+1)
	}
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage project boards",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project with the default lanes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			store := app.Store()
			p := store.CreateProject(args[0])
			patch := notes.ProjectPatch{}
			if projectColor != "" {
				patch.Color = notes.Ptr(projectColor)
			}
			if projectDesc != "" {
				patch.Description = notes.Ptr(projectDesc)
			}
			store.UpdateProject(p.ID, patch)
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		})
	},
}

var projectRmCmd = &cobra.Command{
	Use:   "rm <project>",
	Short: "Delete a project and its lanes; its notes are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			p, err := findProject(app.Store(), args[0])
			if err != nil {
				return err
			}
			app.Store().DeleteProject(p.ID)
			return nil
		})
	},
}

var projectLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, p := range app.Store().Projects() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", shortID(p.ID), p.Name, p.Description)
			}
			return tw.Flush()
		})
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Print a project board, lane by lane",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedApp(func(app *core.App) error {
			store := app.Store()
			p, err := findProject(store, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", p.Name)
			for _, l := range store.Lanes(p.ID) {
				fmt.Fprintf(out, "\n## %s\n", l.Name)
				for _, n := range store.Notes(notes.Filter{ProjectID: p.ID, LaneID: l.ID}) {
					fmt.Fprintf(out, "  %s  %s\n", shortID(n.ID), n.Title)
				}
			}
			var unplaced []notes.Note
			for _, n := range store.Notes(notes.Filter{ProjectID: p.ID}) {
				if n.LaneID == "" {
					unplaced = append(unplaced, n)
				}
			}
			if len(unplaced) > 0 {
				fmt.Fprintf(out, "\n## (no lane)\n")
				for _, n := range unplaced {
					fmt.Fprintf(out, "  %s  %s\n", shortID(n.ID), n.Title)
				}
			}
			return nil
		})
	},
}

var laneCmd = &cobra.Command{
	Use:   "lane",
	Short: "Manage the lanes of a project",
}

var laneAddCmd = &cobra.Command{
	Use:   "add <project> <name>",
	Short: "Append a lane to a project board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			p, err := findProject(app.Store(), args[0])
			if err != nil {
				return err
			}
			l := app.Store().CreateLane(p.ID, args[1])
			fmt.Fprintln(cmd.OutOrStdout(), l.ID)
			return nil
		})
	},
}

var laneRenameCmd = &cobra.Command{
	Use:   "rename <project> <lane> <name>",
	Short: "Rename a lane",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			store := app.Store()
			p, err := findProject(store, args[0])
			if err != nil {
				return err
			}
			l, err := findLane(store, p.ID, args[1])
			if err != nil {
				return err
			}
			store.UpdateLane(l.ID, notes.LanePatch{Name: notes.Ptr(args[2])})
			return nil
		})
	},
}

var laneRmCmd = &cobra.Command{
	Use:   "rm <project> <lane>",
	Short: "Delete a lane; its notes stay in the project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			store := app.Store()
			p, err := findProject(store, args[0])
			if err != nil {
				return err
			}
			l, err := findLane(store, p.ID, args[1])
			if err != nil {
				return err
			}
			store.DeleteLane(l.ID)
			return nil
		})
	},
}

func init() {
	folderAddCmd.Flags().StringVar(&folderParent, "parent", "", "parent folder name or id")
	folderAddCmd.Flags().StringVar(&folderColor, "color", "", "folder color")
	folderCmd.AddCommand(folderAddCmd, folderRenameCmd, folderMoveCmd, folderRmCmd, folderLsCmd)

	projectAddCmd.Flags().StringVar(&projectColor, "color", "", "project color")
	projectAddCmd.Flags().StringVar(&projectDesc, "description", "", "project description")
	projectCmd.AddCommand(projectAddCmd, projectRmCmd, projectLsCmd, projectShowCmd)

	laneCmd.AddCommand(laneAddCmd, laneRenameCmd, laneRmCmd)

	rootCmd.AddCommand(folderCmd, projectCmd, laneCmd)
}
