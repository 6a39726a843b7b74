package folio

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	m := a.Library.Manager()
	return Render(c, a.Views.Home(m.Recent(0), m.Featured(), a.Config.URL))
}

func (a *App) handleBlog(c echo.Context) error {
	m := a.Library.Manager()
	category, tag := c.QueryParam("category"), c.QueryParam("tag")
	posts := m.All()
	switch {
	case category != "":
		posts = m.ByCategory(category)
	case tag != "":
		posts = m.ByTag(tag)
	}
	return Render(c, a.Views.Blog(posts, category, tag, m.Categories()))
}

func (a *App) handlePost(c echo.Context) error {
	m := a.Library.Manager()
	post, ok := m.BySlug(c.Param("slug"))
	if !ok {
		return echo.ErrNotFound
	}
	return Render(c, a.Views.Post(post, m.Related(post, 0), a.Config.URL))
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, a.Library.Manager().All())
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, a.Library.Manager().All())
}

// handleRobots serves robots.txt from the static dir, or a permissive one
// pointing at the sitemap.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.Config.StaticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	body := "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: " + strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	api := strings.HasPrefix(c.Request().URL.Path, "/api/")

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 500 {
			a.Log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("server error")
		}
		_ = c.JSON(apiErr.Code, apiErr)
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	if code == http.StatusNotFound {
		switch {
		case api:
			_ = c.JSON(code, NewAPIError(code, "not found"))
		case a.Views.NotFound != nil:
			_ = RenderStatus(c, code, a.Views.NotFound())
		default:
			_ = c.String(code, "Not Found")
		}
		return
	}
	if code >= 500 {
		a.Log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("server error")
		switch {
		case api:
			_ = c.JSON(code, NewAPIError(code, http.StatusText(code)))
		case a.Views.ServerError != nil:
			_ = RenderStatus(c, code, a.Views.ServerError())
		default:
			_ = c.String(code, http.StatusText(code))
		}
		return
	}
	if api {
		msg := http.StatusText(code)
		if he != nil {
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		_ = c.JSON(code, NewAPIError(code, msg))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
