package folio

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce batches the burst of events an editor produces on save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reloads a Library when its content source changes on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	lib      *Library
	debounce time.Duration
	log      zerolog.Logger

	// file is set when the source is a single JSON file; events for other
	// files in its directory are ignored.
	file string

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// WatchLibrary starts watching the library's content source. A directory is
// watched recursively; for a file its parent directory is watched so that
// editors replacing the file are noticed.
func WatchLibrary(lib *Library, debounce time.Duration, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		watcher:  fw,
		lib:      lib,
		debounce: debounce,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	path := lib.Path()
	info, err := os.Stat(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	if info.IsDir() {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return fw.Add(p)
			}
			return nil
		})
	} else {
		w.file = filepath.Clean(path)
		err = fw.Add(filepath.Dir(path))
	}
	if err != nil {
		fw.Close()
		return nil, err
	}

	go w.run()
	log.Info().Str("path", path).Msg("watch: watching content")
	return w, nil
}

// Stop ends the watch and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		if err := w.watcher.Close(); err != nil {
			w.log.Error().Err(err).Msg("watch: close")
		}
	})
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("watch: change")
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && w.file == "" {
					if err := w.watcher.Add(event.Name); err != nil {
						w.log.Warn().Err(err).Str("path", event.Name).Msg("watch: add directory")
					}
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watch: error")

		case <-timer.C:
			// Reload logs its own failures and keeps the previous posts.
			_ = w.lib.Reload()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.file != "" {
		return filepath.Clean(event.Name) == w.file
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".md", ".markdown":
		return true
	case "":
		// Directories coming and going.
		return true
	}
	return false
}
