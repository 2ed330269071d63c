// Package editor maintains the markup document: the text the assistant and
// manual edits both target, its revision history, and the workspace file it
// mirrors.
package editor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/svgpro/svgpro/internal/event"
	"github.com/svgpro/svgpro/internal/logging"
	"github.com/svgpro/svgpro/internal/storage"
)

// DefaultDocument is the sample shown before any generation has run.
const DefaultDocument = `<svg viewBox="0 0 200 200" xmlns="http://www.w3.org/2000/svg">
    <defs>
        <linearGradient id="gradient" x1="0%" y1="0%" x2="100%" y2="100%">
            <stop offset="0%" style="stop-color:#4A90E2;stop-opacity:1" />
            <stop offset="100%" style="stop-opacity:1;stop-color:#9B51E0" />
        </linearGradient>
    </defs>
    <rect x="0" y="0" width="200" height="200" fill="none" />
    <circle cx="100" cy="100" r="80" fill="url(#gradient)" opacity="0.9" />
    <circle cx="100" cy="100" r="60" fill="none" stroke="#FFFFFF" stroke-width="2" opacity="0.6" />
    <polygon points="100,60 120,100 100,140 80,100" fill="#FFFFFF" opacity="0.8" />
</svg>`

// Revision is the persisted record of one document state.
type Revision struct {
	Revision  int     `json:"revision"`
	Source    string  `json:"source"`
	Additions int     `json:"additions"`
	Deletions int     `json:"deletions"`
	Timestamp float64 `json:"timestamp"`
	Content   string  `json:"content"`
}

// Editor holds the current document and mirrors it to the workspace file.
type Editor struct {
	path   string
	store  *storage.Store
	differ *diffmatchpatch.DiffMatchPatch
	log    zerolog.Logger

	mu        sync.Mutex
	content   string
	revision  int
	selfWrite int
}

// New creates an editor over the workspace file at path. An existing file
// seeds the document; otherwise the default sample is written there.
func New(path string, store *storage.Store) (*Editor, error) {
	e := &Editor{
		path:   path,
		store:  store,
		differ: diffmatchpatch.New(),
		log:    logging.Component("editor"),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		e.content = string(data)
	case os.IsNotExist(err):
		e.content = DefaultDocument
		if err := e.writeFile(e.content); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return e, nil
}

// Path returns the workspace file the document mirrors.
func (e *Editor) Path() string {
	return e.path
}

// Content returns the current document text and its revision.
func (e *Editor) Content() (string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content, e.revision
}

// ApplyMarkup installs markup produced by the assistant. Well-formed markup
// is pretty-printed first; malformed markup is installed raw so the text is
// never lost.
func (e *Editor) ApplyMarkup(markup string) error {
	body := markup
	if err := CheckWellFormed(markup); err != nil {
		e.log.Warn().Err(err).Msg("assistant markup not well-formed, inserting raw")
	} else if pretty, err := Pretty(markup); err == nil {
		body = pretty
	}
	return e.update(body, "assistant", true)
}

// Set installs a manual edit as-is.
func (e *Editor) Set(body string) error {
	return e.update(body, "manual", true)
}

// Format pretty-prints the current document in place. Malformed markup is an
// error and leaves the document unchanged.
func (e *Editor) Format() (string, error) {
	e.mu.Lock()
	current := e.content
	e.mu.Unlock()

	if strings.TrimSpace(current) == "" {
		return "", fmt.Errorf("nothing to format")
	}
	pretty, err := Pretty(current)
	if err != nil {
		return "", err
	}
	if err := e.update(pretty, "manual", true); err != nil {
		return "", err
	}
	return pretty, nil
}

// Reload replaces the document with the workspace file's current contents.
// Called by the watcher after an outside edit; the file is not rewritten.
func (e *Editor) Reload() error {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("reload document %s: %w", e.path, err)
	}
	return e.update(string(data), "file", false)
}

// update is the single write path. It holds the lock end to end so revisions
// are persisted in the order the in-memory document moved through them.
func (e *Editor) update(body, source string, writeFile bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	additions, deletions := e.lineStats(e.content, body)

	if writeFile {
		e.selfWrite++
		if err := os.WriteFile(e.path, []byte(body), 0o644); err != nil {
			e.selfWrite--
			return fmt.Errorf("write document %s: %w", e.path, err)
		}
	}

	e.content = body
	e.revision++
	rev := e.revision

	if e.store != nil {
		record := Revision{
			Revision:  rev,
			Source:    source,
			Additions: additions,
			Deletions: deletions,
			Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
			Content:   body,
		}
		key := []string{"document", fmt.Sprintf("%06d", rev)}
		if err := e.store.Put(context.Background(), key, record); err != nil {
			e.log.Error().Err(err).Int("revision", rev).Msg("persist document revision")
		}
	}

	e.log.Info().
		Int("revision", rev).
		Str("source", source).
		Int("additions", additions).
		Int("deletions", deletions).
		Msg("document updated")
	event.Publish(event.Event{Type: event.DocumentUpdated, Data: event.DocumentData{
		Revision:  rev,
		Additions: additions,
		Deletions: deletions,
		Source:    source,
	}})
	return nil
}

// lineStats counts added and removed lines between two document states.
func (e *Editor) lineStats(before, after string) (additions, deletions int) {
	a, b, _ := e.differ.DiffLinesToChars(before, after)
	diffs := e.differ.DiffMain(a, b, false)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			deletions += len([]rune(d.Text))
		}
	}
	return additions, deletions
}

func (e *Editor) writeFile(body string) error {
	e.mu.Lock()
	e.selfWrite++
	e.mu.Unlock()

	if err := os.WriteFile(e.path, []byte(body), 0o644); err != nil {
		e.mu.Lock()
		e.selfWrite--
		e.mu.Unlock()
		return fmt.Errorf("write document %s: %w", e.path, err)
	}
	return nil
}

// resetSelfWrites discards pending self-write markers. Writes performed
// before the watcher was running never produce events, so their markers must
// not swallow the first real outside edit.
func (e *Editor) resetSelfWrites() {
	e.mu.Lock()
	e.selfWrite = 0
	e.mu.Unlock()
}

// consumeSelfWrite reports whether a pending write of our own explains the
// next file event.
func (e *Editor) consumeSelfWrite() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selfWrite > 0 {
		e.selfWrite--
		return true
	}
	return false
}

// Revisions returns the persisted revision keys, oldest first.
func (e *Editor) Revisions(ctx context.Context) ([]string, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.store.List(ctx, []string{"document"})
}
