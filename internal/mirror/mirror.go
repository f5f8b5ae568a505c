// Package mirror keeps a copy of the notebook in a plain directory that
// can be synced by any file sync tool. Notes are markdown files with YAML
// frontmatter; the other collections are YAML lists.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/illarion/locknote/internal/crypto"
	"github.com/illarion/locknote/internal/notes"
	"github.com/illarion/locknote/internal/security"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	notesDir     = "notes"
	noteExt      = ".md"
	foldersFile  = "folders.yaml"
	projectsFile = "projects.yaml"
	lanesFile    = "lanes.yaml"
	settingsFile = "settings.yaml"
)

var ErrInvalidFrontmatter = errors.New("invalid frontmatter format")

// Dir is a mirror rooted at a directory.
type Dir struct {
	fs  *security.Dir
	log zerolog.Logger
}

// Open opens the mirror at path, creating the directory if needed.
func Open(path string, log zerolog.Logger) (*Dir, error) {
	d, err := security.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror: %w", err)
	}
	return &Dir{fs: d, log: log}, nil
}

// Close releases the directory handle.
func (d *Dir) Close() error {
	return d.fs.Close()
}

// Path is the mirror directory.
func (d *Dir) Path() string {
	return d.fs.Path()
}

func notePath(id string) string {
	return notesDir + "/" + id + noteExt
}

// EncodeNote renders a note file.
func EncodeNote(n notes.Note) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(headerOf(n)); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	encoder.Close()

	buf.WriteString("---\n\n")
	buf.WriteString(n.Content)
	return buf.Bytes(), nil
}

// DecodeNote parses a note file. The body after the blank line following
// the frontmatter is the content, byte for byte.
func DecodeNote(data []byte) (notes.Note, error) {
	rest, ok := bytes.CutPrefix(data, []byte("---\n"))
	if !ok {
		return notes.Note{}, ErrInvalidFrontmatter
	}
	var header, body []byte
	if h, b, found := bytes.Cut(rest, []byte("\n---\n")); found {
		header, body = append(h, '\n'), b
	} else if h, found := bytes.CutSuffix(rest, []byte("\n---")); found {
		header = h
	} else {
		return notes.Note{}, ErrInvalidFrontmatter
	}
	body, _ = bytes.CutPrefix(body, []byte("\n"))

	var h noteHeader
	if err := yaml.Unmarshal(header, &h); err != nil {
		return notes.Note{}, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	if h.ID == "" {
		return notes.Note{}, fmt.Errorf("%w: missing id", ErrInvalidFrontmatter)
	}
	return h.note(string(body)), nil
}

// LoadNotes reads every note file. Unreadable files are skipped and logged.
func (d *Dir) LoadNotes(ctx context.Context) ([]notes.Note, error) {
	names, err := d.fs.List(notesDir, noteExt)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	out := make([]notes.Note, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := d.fs.ReadFile(notesDir + "/" + name)
		if err != nil {
			d.log.Warn().Err(err).Str("file", name).Msg("skipping unreadable note")
			continue
		}
		n, err := DecodeNote(data)
		if err != nil {
			d.log.Warn().Err(err).Str("file", name).Msg("skipping invalid note")
			continue
		}
		if n.IsEncrypted && !crypto.IsBlob(n.Content) {
			d.log.Warn().Str("file", name).Msg("skipping encrypted note with damaged ciphertext")
			continue
		}
		if strings.TrimSuffix(name, noteExt) != n.ID {
			d.log.Debug().Str("file", name).Str("note", n.ID).Msg("note file name differs from id")
		}
		out = append(out, n)
	}
	return out, nil
}

// LoadNote reads a single note by id.
func (d *Dir) LoadNote(ctx context.Context, id string) (notes.Note, error) {
	if err := ctx.Err(); err != nil {
		return notes.Note{}, err
	}
	if strings.ContainsAny(id, `/\`) {
		return notes.Note{}, fmt.Errorf("invalid note id %q", id)
	}
	data, err := d.fs.ReadFile(notePath(id))
	if err != nil {
		return notes.Note{}, err
	}
	return DecodeNote(data)
}

// readList decodes a YAML list file. A missing file yields nil.
func readList[T any](d *Dir, name string) ([]T, error) {
	data, err := d.fs.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	var items []T
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return items, nil
}

func writeYAML(d *Dir, name string, v any) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	encoder.Close()
	return d.fs.WriteFile(name, buf.Bytes(), 0600)
}

// LoadFolders reads folders.yaml. Nil means the mirror has no folder list;
// an empty list is non-nil.
func (d *Dir) LoadFolders(ctx context.Context) ([]notes.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := readList[folderRecord](d, foldersFile)
	if err != nil || records == nil {
		return nil, err
	}
	out := make([]notes.Folder, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		out = append(out, notes.Folder(r))
	}
	return out, nil
}

// LoadProjects reads projects.yaml.
func (d *Dir) LoadProjects(ctx context.Context) ([]notes.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := readList[projectRecord](d, projectsFile)
	if err != nil || records == nil {
		return nil, err
	}
	out := make([]notes.Project, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		out = append(out, notes.Project(r))
	}
	return out, nil
}

// LoadLanes reads lanes.yaml.
func (d *Dir) LoadLanes(ctx context.Context) ([]notes.Lane, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := readList[laneRecord](d, lanesFile)
	if err != nil || records == nil {
		return nil, err
	}
	out := make([]notes.Lane, 0, len(records))
	for _, r := range records {
		if r.ID == "" || r.ProjectID == "" {
			continue
		}
		out = append(out, notes.Lane(r))
	}
	return out, nil
}

// LoadSettings reads settings.yaml over the defaults. It returns nil when
// the mirror has no settings yet.
func (d *Dir) LoadSettings(ctx context.Context) (*notes.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := d.fs.ReadFile(settingsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", settingsFile, err)
	}
	r := settingsRecordOf(notes.DefaultSettings())
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", settingsFile, err)
	}
	s := notes.Settings(r)
	return &s, nil
}

// Push writes the snapshot into the mirror. Note files of ids absent from
// the snapshot are left alone.
func (d *Dir) Push(ctx context.Context, snap notes.Snapshot) error {
	for _, n := range snap.Notes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := security.Clean(notePath(n.ID)); err != nil || strings.ContainsAny(n.ID, `/\`) {
			d.log.Warn().Str("note", n.ID).Msg("skipping note with unsafe id")
			continue
		}
		data, err := EncodeNote(n)
		if err != nil {
			return err
		}
		if err := d.fs.WriteFile(notePath(n.ID), data, 0600); err != nil {
			return fmt.Errorf("failed to write note %s: %w", n.ID, err)
		}
	}

	folders := make([]folderRecord, 0, len(snap.Folders))
	for _, f := range snap.Folders {
		folders = append(folders, folderRecord(f))
	}
	projects := make([]projectRecord, 0, len(snap.Projects))
	for _, p := range snap.Projects {
		projects = append(projects, projectRecord(p))
	}
	lanes := make([]laneRecord, 0, len(snap.Lanes))
	for _, l := range snap.Lanes {
		lanes = append(lanes, laneRecord(l))
	}

	for _, f := range []struct {
		name string
		v    any
	}{
		{foldersFile, folders},
		{projectsFile, projects},
		{lanesFile, lanes},
		{settingsFile, settingsRecordOf(snap.Settings)},
	} {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeYAML(d, f.name, f.v); err != nil {
			return err
		}
	}

	d.log.Debug().Int("notes", len(snap.Notes)).Str("dir", d.Path()).Msg("mirror pushed")
	return nil
}
