package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/illarion/locknote/internal/core"
	"github.com/illarion/locknote/internal/notes"
	"github.com/spf13/cobra"
)

var (
	noteTitle    string
	noteContent  string
	noteFile     string
	noteFolder   string
	noteProject  string
	noteLane     string
	noteLanguage string
	noteCode     bool
	noteRaw      bool

	lsTag       string
	lsFavorites bool
	lsTrash     bool

	mvPrev   string
	mvNext   string
	mvTop    bool
	mvBottom bool

	tagRemove bool
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a note",
	Long: `Create a note at the top of the list.

Content comes from --content, --file, or standard input when it is not a
terminal. The new note id is printed.

Examples:
  locknote new --title "Groceries" --content "milk, bread"
  locknote new --title "main.go" --code --language go --file main.go
  echo "quick thought" | locknote new`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedApp(func(app *core.App) error {
			store := app.Store()
			folderID := ""
			if noteFolder != "" {
				f, err := findFolder(store, noteFolder)
				if err != nil {
					return err
				}
				folderID = f.ID
			}

			content, hasContent, err := readContentFlags(cmd)
			if err != nil {
				return err
			}

			patch := notes.NotePatch{}
			if noteTitle != "" {
				patch.Title = notes.Ptr(noteTitle)
			}
			if hasContent {
				patch.Content = notes.Ptr(content)
			}
			if err := applyBoardFlags(store, &patch); err != nil {
				return err
			}
			applyModeFlags(cmd, &patch)

			n := store.CreateNote(folderID)
			store.UpdateNote(n.ID, patch)

			fmt.Fprintln(cmd.OutOrStdout(), n.ID)
			return nil
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a note",
	Long: `Edit a note's content or metadata.

Without --content or --file the content opens in $VISUAL or $EDITOR.
Encrypted notes are decrypted for editing and sealed again on save.

Examples:
  locknote edit 3f2a
  locknote edit 3f2a --title "Renamed"
  locknote edit 3f2a --code --language python`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedApp(func(app *core.App) error {
			store := app.Store()
			n, err := findNote(store, args[0])
			if err != nil {
				return err
			}

			patch := notes.NotePatch{}
			if cmd.Flags().Changed("title") {
				patch.Title = notes.Ptr(noteTitle)
			}
			if cmd.Flags().Changed("folder") {
				folderID := ""
				if noteFolder != "" {
					f, err := findFolder(store, noteFolder)
					if err != nil {
						return err
					}
					folderID = f.ID
				}
				patch.FolderID = notes.Ptr(folderID)
			}
			if err := applyBoardFlags(store, &patch); err != nil {
				return err
			}
			applyModeFlags(cmd, &patch)

			content, hasContent, err := readContentFlags(cmd)
			if err != nil {
				return err
			}
			metadataOnly := cmd.Flags().Changed("title") || cmd.Flags().Changed("folder") ||
				cmd.Flags().Changed("project") || cmd.Flags().Changed("lane") ||
				cmd.Flags().Changed("code") || cmd.Flags().Changed("language")

			if !hasContent && !metadataOnly {
				password, err := notePassword(app, n)
				if err != nil {
					return err
				}
				current, err := app.ReadNote(n.ID, password)
				if err != nil {
					return err
				}
				edited, err := editText(current, editorExt(n))
				if err != nil {
					return err
				}
				if edited != current {
					if err := app.WriteNote(n.ID, edited, password); err != nil {
						return err
					}
				}
			} else if hasContent {
				password, err := notePassword(app, n)
				if err != nil {
					return err
				}
				if err := app.WriteNote(n.ID, content, password); err != nil {
					return err
				}
			}

			store.UpdateNote(n.ID, patch)
			store.SetActiveNote(n.ID)
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedApp(func(app *core.App) error {
			n, err := findNote(app.Store(), args[0])
			if err != nil {
				return err
			}

			content := n.Content
			if n.IsEncrypted && !noteRaw {
				password, err := notePassword(app, n)
				if err != nil {
					return err
				}
				if content, err = app.ReadNote(n.ID, password); err != nil {
					return err
				}
			}
			app.Store().SetActiveNote(n.ID)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", n.Title)
			if len(n.Tags) > 0 {
				fmt.Fprintf(out, "tags: %s\n", strings.Join(n.Tags, ", "))
			}
			fmt.Fprintf(out, "updated: %s\n\n", n.UpdatedAt.Local().Format(time.DateTime))
			fmt.Fprintln(out, content)
			return nil
		})
	},
}

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List notes",
	Long: `List notes in display order, newest position first.

Examples:
  locknote ls
  locknote ls --folder Work --tag todo
  locknote ls --favorites
  locknote ls --trash`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedApp(func(app *core.App) error {
			filter, err := listFilter(app.Store())
			if err != nil {
				return err
			}
			printNotes(cmd.OutOrStdout(), app.Store().Notes(filter))
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search titles, tags and unencrypted content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedApp(func(app *core.App) error {
			filter, err := listFilter(app.Store())
			if err != nil {
				return err
			}
			filter.Query = strings.Join(args, " ")
			printNotes(cmd.OutOrStdout(), app.Store().Notes(filter))
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Move notes to the trash",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			for _, ref := range args {
				n, err := findNote(app.Store(), ref)
				if err != nil {
					return err
				}
				app.Store().DeleteNote(n.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "trashed: %s\n", n.Title)
			}
			return nil
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <id>...",
	Short: "Restore notes from the trash",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			for _, ref := range args {
				n, err := findNote(app.Store(), ref)
				if err != nil {
					return err
				}
				app.Store().RestoreNote(n.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "restored: %s\n", n.Title)
			}
			return nil
		})
	},
}

var favCmd = &cobra.Command{
	Use:   "fav <id>",
	Short: "Toggle a note's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			n, err := findNote(app.Store(), args[0])
			if err != nil {
				return err
			}
			app.Store().ToggleNoteFavorite(n.ID)
			state := "favorite"
			if n.IsFavorite {
				state = "not favorite"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", n.Title, state)
			return nil
		})
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <id>",
	Short: "Reorder a note",
	Long: `Place a note between two others. Only the moved note changes.

--prev is the note to display above it, --next the one below it.

Examples:
  locknote mv 3f2a --prev 9c01 --next 77ab
  locknote mv 3f2a --top
  locknote mv 3f2a --bottom`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			store := app.Store()
			n, err := findNote(store, args[0])
			if err != nil {
				return err
			}

			var prevID, nextID string
			list := store.Notes(notes.Filter{})
			list = slices.DeleteFunc(list, func(o notes.Note) bool { return o.ID == n.ID })
			switch {
			case mvTop:
				if len(list) > 0 {
					nextID = list[0].ID
				}
			case mvBottom:
				if len(list) > 0 {
					prevID = list[len(list)-1].ID
				}
			default:
				if mvPrev == "" && mvNext == "" {
					return fmt.Errorf("one of --prev, --next, --top or --bottom is required")
				}
				if mvPrev != "" {
					p, err := findNote(store, mvPrev)
					if err != nil {
						return err
					}
					prevID = p.ID
				}
				if mvNext != "" {
					x, err := findNote(store, mvNext)
					if err != nil {
						return err
					}
					nextID = x.ID
				}
				prevID, nextID = adjacent(list, prevID, nextID)
			}

			store.MoveNote(n.ID, prevID, nextID)
			moved, _ := store.Note(n.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> position %g\n", n.Title, moved.Position)
			return nil
		})
	},
}

var renumberCmd = &cobra.Command{
	Use:   "renumber",
	Short: "Respace note positions evenly, keeping the order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			app.Store().RenormalizeNotes()
			return nil
		})
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag <id> [tag]...",
	Short: "Add or remove tags; with no tags, list all tags",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			store := app.Store()
			if len(args) == 0 {
				for _, t := range store.Tags() {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			}

			n, err := findNote(store, args[0])
			if err != nil {
				return err
			}
			tags := slices.Clone(n.Tags)
			for _, t := range args[1:] {
				if tagRemove {
					tags = slices.DeleteFunc(tags, func(x string) bool { return x == t })
				} else {
					tags = append(tags, t)
				}
			}
			if tags == nil {
				tags = []string{}
			}
			store.UpdateNote(n.ID, notes.NotePatch{Tags: tags})
			updated, _ := store.Note(n.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", updated.Title, strings.Join(updated.Tags, ", "))
			return nil
		})
	},
}

// adjacent fills in the missing neighbour of a move from the display list,
// so the note lands directly below prev or directly above next.
func adjacent(list []notes.Note, prevID, nextID string) (string, string) {
	index := func(id string) int {
		return slices.IndexFunc(list, func(n notes.Note) bool { return n.ID == id })
	}
	switch {
	case prevID != "" && nextID == "":
		if i := index(prevID); i >= 0 && i+1 < len(list) {
			nextID = list[i+1].ID
		}
	case nextID != "" && prevID == "":
		if i := index(nextID); i > 0 {
			prevID = list[i-1].ID
		}
	}
	return prevID, nextID
}

// readContentFlags returns content from --content, --file or piped stdin.
func readContentFlags(cmd *cobra.Command) (string, bool, error) {
	switch {
	case cmd.Flags().Changed("content"):
		return noteContent, true, nil
	case noteFile != "":
		data, err := os.ReadFile(noteFile)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	case cmd.Name() == "new" && !core.IsTerminal():
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", false, err
		}
		return string(data), len(data) > 0, nil
	}
	return "", false, nil
}

func applyModeFlags(cmd *cobra.Command, patch *notes.NotePatch) {
	if cmd.Flags().Changed("code") {
		patch.IsCodeMode = notes.Ptr(noteCode)
	}
	if noteLanguage != "" {
		patch.Language = notes.Ptr(noteLanguage)
		if !cmd.Flags().Changed("code") {
			patch.IsCodeMode = notes.Ptr(true)
		}
	}
}

func applyBoardFlags(store *notes.Store, patch *notes.NotePatch) error {
	if noteProject == "" {
		if noteLane != "" {
			return fmt.Errorf("--lane needs --project")
		}
		return nil
	}
	p, err := findProject(store, noteProject)
	if err != nil {
		return err
	}
	patch.ProjectID = notes.Ptr(p.ID)
	if noteLane != "" {
		l, err := findLane(store, p.ID, noteLane)
		if err != nil {
			return err
		}
		patch.LaneID = notes.Ptr(l.ID)
	}
	return nil
}

func listFilter(store *notes.Store) (notes.Filter, error) {
	filter := notes.Filter{
		Deleted:       lsTrash,
		FavoritesOnly: lsFavorites,
		Tag:           lsTag,
	}
	if noteFolder != "" {
		f, err := findFolder(store, noteFolder)
		if err != nil {
			return filter, err
		}
		filter.FolderID = f.ID
	}
	if noteProject != "" {
		p, err := findProject(store, noteProject)
		if err != nil {
			return filter, err
		}
		filter.ProjectID = p.ID
		if noteLane != "" {
			l, err := findLane(store, p.ID, noteLane)
			if err != nil {
				return filter, err
			}
			filter.LaneID = l.ID
		}
	}
	return filter, nil
}

func printNotes(w io.Writer, list []notes.Note) {
	if len(list) == 0 {
		fmt.Fprintln(w, "(no notes)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, n := range list {
		flags := ""
		if n.IsFavorite {
			flags += "*"
		}
		if n.IsEncrypted {
			flags += "L"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			shortID(n.ID), flags, n.Title, strings.Join(n.Tags, ","), n.UpdatedAt.Local().Format(time.DateTime))
	}
	tw.Flush()
}

func init() {
	for _, c := range []*cobra.Command{newCmd, editCmd} {
		c.Flags().StringVarP(&noteTitle, "title", "t", "", "note title")
		c.Flags().StringVarP(&noteContent, "content", "c", "", "note content")
		c.Flags().StringVarP(&noteFile, "file", "f", "", "read content from a file")
		c.Flags().StringVar(&noteFolder, "folder", "", "folder name or id")
		c.Flags().StringVar(&noteProject, "project", "", "project name or id")
		c.Flags().StringVar(&noteLane, "lane", "", "lane name within the project")
		c.Flags().StringVar(&noteLanguage, "language", "", "language for code notes")
		c.Flags().BoolVar(&noteCode, "code", false, "code mode")
	}
	showCmd.Flags().BoolVar(&noteRaw, "raw", false, "print ciphertext without decrypting")

	for _, c := range []*cobra.Command{lsCmd, searchCmd} {
		c.Flags().StringVar(&noteFolder, "folder", "", "only notes in this folder")
		c.Flags().StringVar(&noteProject, "project", "", "only notes on this project")
		c.Flags().StringVar(&noteLane, "lane", "", "only notes in this lane")
		c.Flags().StringVar(&lsTag, "tag", "", "only notes with this tag")
		c.Flags().BoolVar(&lsFavorites, "favorites", false, "only favorites")
		c.Flags().BoolVar(&lsTrash, "trash", false, "list the trash")
	}

	mvCmd.Flags().StringVar(&mvPrev, "prev", "", "note displayed above")
	mvCmd.Flags().StringVar(&mvNext, "next", "", "note displayed below")
	mvCmd.Flags().BoolVar(&mvTop, "top", false, "move to the top")
	mvCmd.Flags().BoolVar(&mvBottom, "bottom", false, "move to the bottom")
	mvCmd.MarkFlagsMutuallyExclusive("top", "bottom", "prev")
	mvCmd.MarkFlagsMutuallyExclusive("top", "bottom", "next")

	tagCmd.Flags().BoolVarP(&tagRemove, "remove", "r", false, "remove the given tags")

	rootCmd.AddCommand(newCmd, editCmd, showCmd, lsCmd, searchCmd, rmCmd, restoreCmd, favCmd, mvCmd, renumberCmd, tagCmd)
}
