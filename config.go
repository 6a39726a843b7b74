package folio

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eringen/folio/contact"
)

// SiteConfig holds all configuration for a folio site. The mapstructure tags
// let the CLI decode it straight from viper.
type SiteConfig struct {
	Name        string `mapstructure:"name"`        // Site name (default "Portfolio")
	URL         string `mapstructure:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `mapstructure:"description"` // Site description for RSS and meta tags
	Author      string `mapstructure:"author"`      // Author name for JSON-LD

	Addr          string `mapstructure:"addr"`           // Listen address (default ":3000")
	ContentPath   string `mapstructure:"content_path"`   // JSON file or markdown directory (default "content/blog")
	StaticDir     string `mapstructure:"static_dir"`     // Built SPA (default "public")
	IncludeDrafts bool   `mapstructure:"include_drafts"` // Serve draft posts
	WatchContent  bool   `mapstructure:"watch_content"`  // Reload posts when ContentPath changes
	ProjectsPath  string `mapstructure:"projects_path"`  // Projects JSON document (default "content/projects.json")

	WebhookURL     string        `mapstructure:"webhook_url"`     // Contact form endpoint (default contact.DefaultEndpoint)
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"` // Per-submission deadline (default 10s)
	PendingDBPath  string        `mapstructure:"pending_db_path"` // SQLite fallback for undelivered forms (default "data/pending.db")

	SessionSecret  string   `mapstructure:"session_secret"`  // Required: session encryption secret
	CookieSecure   bool     `mapstructure:"cookie_secure"`   // Set true for HTTPS
	AllowedOrigins []string `mapstructure:"allowed_origins"` // CORS origins for the API; empty disables CORS

	LogLevel string `mapstructure:"log_level"` // zerolog level name (default "info")
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ContentPath == "" {
		c.ContentPath = "content/blog"
	}
	if c.ProjectsPath == "" {
		c.ProjectsPath = "content/projects.json"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.WebhookURL == "" {
		c.WebhookURL = contact.DefaultEndpoint
	}
	if c.WebhookTimeout == 0 {
		c.WebhookTimeout = 10 * time.Second
	}
	if c.PendingDBPath == "" {
		c.PendingDBPath = "data/pending.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir overrides SiteConfig.StaticDir.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}

// WithSubmitter replaces the default delivery chain for contact forms.
func WithSubmitter(s contact.Submitter) Option {
	return func(a *App) {
		a.submitter = s
	}
}

// WithLogger sets the logger used by the app and its components.
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithHTTPClient sets the client used for webhook delivery.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// WithSubmitLimit overrides the per-IP limit on form submissions.
func WithSubmitLimit(max int, window time.Duration) Option {
	return func(a *App) {
		a.submitMax, a.submitWindow = max, window
	}
}
