package notes

// NotePatch is a partial note update. Nil fields are left unchanged; a
// pointer to "" clears a reference field. Tags replaces the whole set when
// non-nil.
type NotePatch struct {
	Title       *string
	Content     *string
	IsEncrypted *bool
	IsCodeMode  *bool
	Language    *string
	FolderID    *string
	ProjectID   *string
	LaneID      *string
	Position    *float64
	Tags        []string
	IsFavorite  *bool
}

func (p NotePatch) apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.IsEncrypted != nil {
		n.IsEncrypted = *p.IsEncrypted
	}
	if p.IsCodeMode != nil {
		n.IsCodeMode = *p.IsCodeMode
	}
	if p.Language != nil {
		n.Language = *p.Language
	}
	if p.FolderID != nil {
		n.FolderID = *p.FolderID
	}
	if p.ProjectID != nil {
		n.ProjectID = *p.ProjectID
	}
	if p.LaneID != nil {
		n.LaneID = *p.LaneID
	}
	if p.Position != nil {
		n.Position = *p.Position
	}
	if p.Tags != nil {
		n.Tags = normalizeTags(p.Tags)
	}
	if p.IsFavorite != nil {
		n.IsFavorite = *p.IsFavorite
	}
}

// FolderPatch is a partial folder update.
type FolderPatch struct {
	Name     *string
	Color    *string
	ParentID *string
	Position *float64
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name        *string
	Color       *string
	Description *string
	Position    *float64
}

func (p ProjectPatch) apply(pr *Project) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Color != nil {
		pr.Color = *p.Color
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Position != nil {
		pr.Position = *p.Position
	}
}

// LanePatch is a partial lane update.
type LanePatch struct {
	Name     *string
	Color    *string
	Position *float64
}

func (p LanePatch) apply(l *Lane) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	if p.Position != nil {
		l.Position = *p.Position
	}
}

// SettingsPatch is a partial settings update. Values are not range
// checked; callers clamp.
type SettingsPatch struct {
	Theme               *string
	AccentColor         *string
	FontFamily          *string
	FontSize            *int
	AutoSave            *bool
	AutoLock            *bool
	AutoLockTimeout     *int
	BiometricAuth       *bool
	ShowWordCount       *bool
	DistractionFreeMode *bool
}

func (p SettingsPatch) apply(s *Settings) {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.AccentColor != nil {
		s.AccentColor = *p.AccentColor
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.AutoSave != nil {
		s.AutoSave = *p.AutoSave
	}
	if p.AutoLock != nil {
		s.AutoLock = *p.AutoLock
	}
	if p.AutoLockTimeout != nil {
		s.AutoLockTimeout = *p.AutoLockTimeout
	}
	if p.BiometricAuth != nil {
		s.BiometricAuth = *p.BiometricAuth
	}
	if p.ShowWordCount != nil {
		s.ShowWordCount = *p.ShowWordCount
	}
	if p.DistractionFreeMode != nil {
		s.DistractionFreeMode = *p.DistractionFreeMode
	}
}
