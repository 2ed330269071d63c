package editor

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/svgpro/svgpro/internal/event"
	"github.com/svgpro/svgpro/internal/logging"
)

// Watcher reloads the document when the workspace file changes outside the
// service. Writes performed by the editor itself are filtered out.
type Watcher struct {
	editor  *Editor
	watcher *fsnotify.Watcher
	log     zerolog.Logger

	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	mu      sync.Mutex
}

// NewWatcher creates a watcher for the editor's workspace file. The parent
// directory is watched rather than the file so atomic save-and-rename
// editors are caught too.
func NewWatcher(ed *Editor) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(ed.Path())); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		editor:  ed,
		watcher: fw,
		log:     logging.Component("editor.watcher"),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for outside edits.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	// Markers left by writes that predate the watcher (seeding the default
	// document, most commonly) have no matching events to consume.
	w.editor.resetSelfWrites()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	target := filepath.Clean(w.editor.Path())
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if w.editor.consumeSelfWrite() {
				continue
			}
			w.log.Info().Str("file", ev.Name).Msg("document edited outside the service")
			if err := w.editor.Reload(); err != nil {
				w.log.Error().Err(err).Msg("reload after outside edit")
				continue
			}
			event.PublishSync(event.Event{
				Type: event.FileEdited,
				Data: event.FileEditedData{File: ev.Name},
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("document watcher error")
		}
	}
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}
	return w.watcher.Close()
}
