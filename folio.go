// Package folio serves a personal portfolio site built with Go, Echo, and
// templ. It hosts the single-page shell from a static directory, exposes a
// JSON API over the blog posts, and runs the multi-step contact form with a
// delivery chain that never loses a submission.
//
// Server-rendered pages are optional: supply templ components through
// ViewFuncs and folio calls them for the home, blog and post routes.
package folio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eringen/folio/blog"
	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/project"
)

// ViewFuncs holds optional templ components for server-rendered pages. A nil
// field leaves that route to the single-page app. Empty post lists are passed
// as empty slices so views can render a "nothing found" state.
type ViewFuncs struct {
	Home        func(recent, featured []content.Post, siteURL string) templ.Component
	Blog        func(posts []content.Post, category, tag string, categories []blog.Aggregate) templ.Component
	Post        func(post content.Post, related []content.Post, siteURL string) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central folio application. It wires together the post library,
// the contact delivery chain, handlers, middleware, and user-provided views.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Library *Library
	Pending *contact.PendingStore
	Views   ViewFuncs
	Log     zerolog.Logger

	// Projects is loaded once at Init. A missing file leaves it empty.
	Projects *project.Manager

	submitter    contact.Submitter
	limiter      *SubmitLimiter
	submitMax    int
	submitWindow time.Duration
	httpClient   *http.Client
	sessions     sessions.Store
	watcher      *Watcher
	customRoutes []func(*App)
	initialized  bool
}

// New creates a new folio App with the given configuration and views.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:       cfg,
		Echo:         echo.New(),
		Views:        views,
		Log:          log.Logger,
		submitMax:    5,
		submitWindow: time.Minute,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init loads posts, opens the pending store, and registers middleware and
// routes. Start calls it; tests call it directly and drive a.Echo. A second
// call does nothing.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("folio: SessionSecret is required")
	}

	a.Library = NewLibrary(a.Config.ContentPath, content.LoadOptions{IncludeDrafts: a.Config.IncludeDrafts}, a.Log)
	if err := a.Library.Reload(); err != nil {
		// Serve an empty blog rather than refusing to start.
		a.Log.Warn().Err(err).Msg("folio: starting without posts")
	}
	a.Projects = a.loadProjects()

	if a.submitter == nil {
		pending, err := contact.OpenPendingStore(a.Config.PendingDBPath)
		if err != nil {
			return fmt.Errorf("folio: init pending store: %w", err)
		}
		a.Pending = pending
		a.submitter = contact.NewDefaultChain(contact.ChainConfig{
			Endpoint: a.Config.WebhookURL,
			Origin:   a.Config.URL,
			Client:   a.httpClient,
			Pending:  pending,
			Logger:   a.Log,
		})
	}

	a.limiter = NewSubmitLimiter(a.submitMax, a.submitWindow)
	a.sessions = a.newSessionStore()

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	if a.Config.WatchContent {
		w, err := WatchLibrary(a.Library, DefaultDebounce, a.Log)
		if err != nil {
			a.Log.Warn().Err(err).Msg("folio: content watch disabled")
		} else {
			a.watcher = w
		}
	}

	a.initialized = true
	return nil
}

func (a *App) loadProjects() *project.Manager {
	projects, err := project.Load(a.Config.ProjectsPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		a.Log.Info().Str("path", a.Config.ProjectsPath).Msg("folio: no projects file")
	case err != nil:
		a.Log.Warn().Err(err).Str("path", a.Config.ProjectsPath).Msg("folio: starting without projects")
	default:
		return project.New(projects, project.WithLogger(a.Log))
	}
	return project.New(nil, project.WithLogger(zerolog.Nop()))
}

// Start initializes the app and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Log.Info().Str("addr", a.Config.Addr).Int("posts", a.Library.Manager().Len()).Msg("folio: listening")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones, including
// form submissions, until ctx expires.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Pending != nil {
		return a.Pending.Close()
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	api := e.Group("/api", noStore)
	api.GET("/posts", a.handleListPosts)
	api.GET("/posts/featured", a.handleFeaturedPosts)
	api.GET("/posts/recent", a.handleRecentPosts)
	api.GET("/posts/:slug", a.handleGetPost)
	api.GET("/posts/:slug/related", a.handleRelatedPosts)
	api.GET("/categories", a.handleCategories)
	api.GET("/tags", a.handleTags)
	api.GET("/projects", a.handleListProjects)
	api.GET("/projects/featured", a.handleFeaturedProjects)
	api.GET("/projects/:id", a.handleGetProject)

	api.GET("/contact", a.handleContactState)
	api.GET("/contact/steps", a.handleContactSteps)
	api.POST("/contact/answer", a.handleContactAnswer)
	api.POST("/contact/next", a.handleContactNext)
	api.POST("/contact/back", a.handleContactBack)
	api.DELETE("/contact", a.handleContactClose)

	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	if a.Views.Home != nil {
		e.GET("/", a.handleHome)
	}
	if a.Views.Blog != nil {
		e.GET("/blog", a.handleBlog)
	}
	if a.Views.Post != nil {
		e.GET("/blog/:slug", a.handlePost)
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatal().Str("key", key).Msg("folio: required environment variable is not set")
	}
	return v
}
