package folio

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eringen/folio/blog"
	"github.com/eringen/folio/content"
)

// Library holds the blog.Manager the handlers query and rebuilds it from the
// content source on Reload. Readers never block on a reload; they see either
// the old or the new manager.
type Library struct {
	mu      sync.RWMutex
	manager *blog.Manager
	loaded  time.Time

	path string
	opts content.LoadOptions
	log  zerolog.Logger
}

// NewLibrary creates a Library for the JSON file or markdown directory at
// path. It starts empty; call Reload to load posts.
func NewLibrary(path string, opts content.LoadOptions, log zerolog.Logger) *Library {
	return &Library{
		manager: blog.New(nil, blog.WithLogger(zerolog.Nop())),
		path:    path,
		opts:    opts,
		log:     log,
	}
}

// Manager returns the current manager.
func (l *Library) Manager() *blog.Manager {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.manager
}

// LoadedAt reports when the current manager was built; zero before the first
// successful load.
func (l *Library) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Path returns the content source.
func (l *Library) Path() string {
	return l.path
}

// Reload reads and validates the content source and swaps in a new manager.
// On any error the previous manager stays in place.
func (l *Library) Reload() error {
	posts, err := content.Load(l.path, l.opts)
	if err != nil {
		l.log.Error().Err(err).Str("path", l.path).Msg("library: load failed, keeping previous posts")
		return fmt.Errorf("library: load %s: %w", l.path, err)
	}
	if err := content.ValidateAll(posts); err != nil {
		l.log.Error().Err(err).Str("path", l.path).Msg("library: invalid content, keeping previous posts")
		return fmt.Errorf("library: validate %s: %w", l.path, err)
	}
	l.Replace(blog.New(posts, blog.WithLogger(l.log)))
	l.log.Info().Int("posts", len(posts)).Str("path", l.path).Msg("library: posts loaded")
	return nil
}

// Replace swaps in m directly.
func (l *Library) Replace(m *blog.Manager) {
	l.mu.Lock()
	l.manager = m
	l.loaded = time.Now()
	l.mu.Unlock()
}
