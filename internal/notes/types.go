package notes

import (
	"slices"
	"time"
)

// Defaults for new entities.
const (
	DefaultNoteTitle    = "Untitled"
	DefaultLanguage     = "plaintext"
	DefaultFolderColor  = "#64748b"
	DefaultProjectColor = "#6366f1"
)

// DefaultLanes are created with every new project.
var DefaultLanes = []string{"To Do", "In Progress", "Done"}

// Note is a single note. Content is opaque ciphertext while IsEncrypted is
// set; only the crypto package may interpret it.
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsEncrypted bool      `json:"isEncrypted"`
	IsCodeMode  bool      `json:"isCodeMode"`
	Language    string    `json:"language"`
	FolderID    string    `json:"folderId,omitempty"`
	ProjectID   string    `json:"projectId,omitempty"`
	LaneID      string    `json:"laneId,omitempty"`
	Position    float64   `json:"position"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	IsDeleted   bool      `json:"isDeleted"`
	IsFavorite  bool      `json:"isFavorite"`
}

func (n Note) clone() Note {
	n.Tags = slices.Clone(n.Tags)
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n
}

// HasTag reports whether the note carries tag.
func (n Note) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// Folder groups notes by reference; it never owns them.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	ParentID  string    `json:"parentId,omitempty"`
	Position  float64   `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// Project is a board of lanes.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	Position    float64   `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Lane is a column of a project board.
type Lane struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Position  float64   `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// Settings is the flat application configuration record.
type Settings struct {
	Theme               string `json:"theme"`
	AccentColor         string `json:"accentColor"`
	FontFamily          string `json:"fontFamily"`
	FontSize            int    `json:"fontSize"`
	AutoSave            bool   `json:"autoSave"`
	AutoLock            bool   `json:"autoLock"`
	AutoLockTimeout     int    `json:"autoLockTimeout"` // minutes
	BiometricAuth       bool   `json:"biometricAuth"`
	ShowWordCount       bool   `json:"showWordCount"`
	DistractionFreeMode bool   `json:"distractionFreeMode"`
}

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Theme:           "system",
		AccentColor:     "#6366f1",
		FontFamily:      "Inter",
		FontSize:        16,
		AutoSave:        true,
		AutoLock:        false,
		AutoLockTimeout: 5,
		ShowWordCount:   true,
	}
}

// AutoLockAfter is AutoLockTimeout as a duration.
func (s Settings) AutoLockAfter() time.Duration {
	return time.Duration(s.AutoLockTimeout) * time.Minute
}

// Session holds the local access flags. Only HasPassword and IsLocked
// survive a restart.
type Session struct {
	IsAuthenticated bool      `json:"isAuthenticated"`
	IsLocked        bool      `json:"isLocked"`
	HasPassword     bool      `json:"hasPassword"`
	LastActivity    time.Time `json:"lastActivity"`
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// normalizeTags drops empty and duplicate tags, keeping first occurrence.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
