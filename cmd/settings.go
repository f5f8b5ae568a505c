package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/illarion/locknote/internal/core"
	"github.com/illarion/locknote/internal/notes"
	"github.com/spf13/cobra"
)

// Bounds applied before a numeric setting reaches the store.
const (
	minFontSize        = 10
	maxFontSize        = 32
	minAutoLockMinutes = 1
	maxAutoLockMinutes = 24 * 60
)

type setting struct {
	key string
	get func(s notes.Settings) string
	set func(p *notes.SettingsPatch, value string) error
}

func stringSetting(key string, get func(notes.Settings) string, field func(*notes.SettingsPatch) **string) setting {
	return setting{
		key: key,
		get: get,
		set: func(p *notes.SettingsPatch, value string) error {
			*field(p) = notes.Ptr(value)
			return nil
		},
	}
}

func boolSetting(key string, get func(notes.Settings) bool, field func(*notes.SettingsPatch) **bool) setting {
	return setting{
		key: key,
		get: func(s notes.Settings) string { return strconv.FormatBool(get(s)) },
		set: func(p *notes.SettingsPatch, value string) error {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: expected true or false, got %q", key, value)
			}
			*field(p) = notes.Ptr(b)
			return nil
		},
	}
}

func intSetting(key string, lo, hi int, get func(notes.Settings) int, field func(*notes.SettingsPatch) **int) setting {
	return setting{
		key: key,
		get: func(s notes.Settings) string { return strconv.Itoa(get(s)) },
		set: func(p *notes.SettingsPatch, value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%s: expected a number, got %q", key, value)
			}
			*field(p) = notes.Ptr(min(max(n, lo), hi))
			return nil
		},
	}
}

var settingsTable = []setting{
	stringSetting("theme",
		func(s notes.Settings) string { return s.Theme },
		func(p *notes.SettingsPatch) **string { return &p.Theme }),
	stringSetting("accentColor",
		func(s notes.Settings) string { return s.AccentColor },
		func(p *notes.SettingsPatch) **string { return &p.AccentColor }),
	stringSetting("fontFamily",
		func(s notes.Settings) string { return s.FontFamily },
		func(p *notes.SettingsPatch) **string { return &p.FontFamily }),
	intSetting("fontSize", minFontSize, maxFontSize,
		func(s notes.Settings) int { return s.FontSize },
		func(p *notes.SettingsPatch) **int { return &p.FontSize }),
	boolSetting("autoSave",
		func(s notes.Settings) bool { return s.AutoSave },
		func(p *notes.SettingsPatch) **bool { return &p.AutoSave }),
	boolSetting("autoLock",
		func(s notes.Settings) bool { return s.AutoLock },
		func(p *notes.SettingsPatch) **bool { return &p.AutoLock }),
	intSetting("autoLockTimeout", minAutoLockMinutes, maxAutoLockMinutes,
		func(s notes.Settings) int { return s.AutoLockTimeout },
		func(p *notes.SettingsPatch) **int { return &p.AutoLockTimeout }),
	boolSetting("biometricAuth",
		func(s notes.Settings) bool { return s.BiometricAuth },
		func(p *notes.SettingsPatch) **bool { return &p.BiometricAuth }),
	boolSetting("showWordCount",
		func(s notes.Settings) bool { return s.ShowWordCount },
		func(p *notes.SettingsPatch) **bool { return &p.ShowWordCount }),
	boolSetting("distractionFreeMode",
		func(s notes.Settings) bool { return s.DistractionFreeMode },
		func(p *notes.SettingsPatch) **bool { return &p.DistractionFreeMode }),
}

func lookupSetting(key string) (setting, bool) {
	for _, s := range settingsTable {
		if strings.EqualFold(s.key, key) {
			return s, true
		}
	}
	return setting{}, false
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print all settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *core.App) error {
			current := app.Store().Settings()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range settingsTable {
				fmt.Fprintf(tw, "%s\t%s\n", s.key, s.get(current))
			}
			return tw.Flush()
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value> [<key> <value>]...",
	Short: "Change one or more settings at once",
	Long: `Change settings. All pairs are applied as one update.

Numbers are clamped: fontSize to 10-32, autoLockTimeout (minutes) to 1-1440.

Examples:
  locknote settings set theme dark
  locknote settings set autoLock true autoLockTimeout 15`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return fmt.Errorf("expected key value pairs")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch notes.SettingsPatch
		for i := 0; i < len(args); i += 2 {
			s, ok := lookupSetting(args[i])
			if !ok {
				return fmt.Errorf("unknown setting %q", args[i])
			}
			if err := s.set(&patch, args[i+1]); err != nil {
				return err
			}
		}
		return withApp(func(app *core.App) error {
			app.Store().UpdateSettings(patch)
			return nil
		})
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
