package engine

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ModelWatcher reports GGUF files appearing under a directory. It covers the
// first-run case where the interface starts before a model download exists.
type ModelWatcher struct {
	watcher   *fsnotify.Watcher
	paths     chan string
	done      chan struct{}
	closeOnce sync.Once
	logger    zerolog.Logger
}

// WatchForModels watches dir for new .gguf files until Close is called. An
// empty dir means the working directory.
func WatchForModels(dir string, logger zerolog.Logger) (*ModelWatcher, error) {
	if dir == "" {
		dir = "."
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &ModelWatcher{
		watcher: fw,
		paths:   make(chan string, 1),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go w.loop()
	return w, nil
}

// Models yields paths of newly arrived .gguf files. The channel closes when
// the watcher is closed.
func (w *ModelWatcher) Models() <-chan string { return w.paths }

func (w *ModelWatcher) loop() {
	defer close(w.paths)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// A file moved into the directory surfaces as Create; Rename
			// events carry only the departed old name.
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".gguf") {
				continue
			}
			w.logger.Info().Str("path", event.Name).Msg("model file arrived")
			select {
			case w.paths <- event.Name:
			case <-w.done:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("model watcher error")
		}
	}
}

// Close stops watching and closes the Models channel. Safe to call more
// than once.
func (w *ModelWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
