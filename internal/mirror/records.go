package mirror

import (
	"time"

	"github.com/illarion/locknote/internal/notes"
)

// noteHeader is the YAML frontmatter of a mirrored note. The content
// follows the header as the file body.
type noteHeader struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	IsEncrypted bool      `yaml:"encrypted,omitempty"`
	IsCodeMode  bool      `yaml:"code_mode,omitempty"`
	Language    string    `yaml:"language,omitempty"`
	FolderID    string    `yaml:"folder,omitempty"`
	ProjectID   string    `yaml:"project,omitempty"`
	LaneID      string    `yaml:"lane,omitempty"`
	Position    float64   `yaml:"position"`
	Tags        []string  `yaml:"tags,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
	IsDeleted   bool      `yaml:"deleted,omitempty"`
	IsFavorite  bool      `yaml:"favorite,omitempty"`
}

func headerOf(n notes.Note) noteHeader {
	return noteHeader{
		ID:          n.ID,
		Title:       n.Title,
		IsEncrypted: n.IsEncrypted,
		IsCodeMode:  n.IsCodeMode,
		Language:    n.Language,
		FolderID:    n.FolderID,
		ProjectID:   n.ProjectID,
		LaneID:      n.LaneID,
		Position:    n.Position,
		Tags:        n.Tags,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		IsDeleted:   n.IsDeleted,
		IsFavorite:  n.IsFavorite,
	}
}

func (h noteHeader) note(content string) notes.Note {
	return notes.Note{
		ID:          h.ID,
		Title:       h.Title,
		Content:     content,
		IsEncrypted: h.IsEncrypted,
		IsCodeMode:  h.IsCodeMode,
		Language:    h.Language,
		FolderID:    h.FolderID,
		ProjectID:   h.ProjectID,
		LaneID:      h.LaneID,
		Position:    h.Position,
		Tags:        h.Tags,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
		IsDeleted:   h.IsDeleted,
		IsFavorite:  h.IsFavorite,
	}
}

type folderRecord struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Color     string    `yaml:"color,omitempty"`
	ParentID  string    `yaml:"parent,omitempty"`
	Position  float64   `yaml:"position"`
	CreatedAt time.Time `yaml:"created_at"`
}

type projectRecord struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Color       string    `yaml:"color,omitempty"`
	Description string    `yaml:"description,omitempty"`
	Position    float64   `yaml:"position"`
	CreatedAt   time.Time `yaml:"created_at"`
}

type laneRecord struct {
	ID        string    `yaml:"id"`
	ProjectID string    `yaml:"project"`
	Name      string    `yaml:"name"`
	Color     string    `yaml:"color,omitempty"`
	Position  float64   `yaml:"position"`
	CreatedAt time.Time `yaml:"created_at"`
}

type settingsRecord struct {
	Theme               string `yaml:"theme"`
	AccentColor         string `yaml:"accent_color"`
	FontFamily          string `yaml:"font_family"`
	FontSize            int    `yaml:"font_size"`
	AutoSave            bool   `yaml:"auto_save"`
	AutoLock            bool   `yaml:"auto_lock"`
	AutoLockTimeout     int    `yaml:"auto_lock_timeout"`
	BiometricAuth       bool   `yaml:"biometric_auth"`
	ShowWordCount       bool   `yaml:"show_word_count"`
	DistractionFreeMode bool   `yaml:"distraction_free_mode"`
}

func settingsRecordOf(s notes.Settings) settingsRecord {
	return settingsRecord(s)
}
