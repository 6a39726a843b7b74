package folio

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc      string  `xml:"loc"`
	LastMod  string  `xml:"lastmod,omitempty"`
	Priority float64 `xml:"priority,omitempty"`
}

// sitemapSections are the single-page sections linked from the sitemap.
var sitemapSections = []string{"blog"}

func (a *App) buildSitemap(posts []content.Post) sitemapURLSet {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base), Priority: 1.0},
	}
	for _, s := range sitemapSections {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, s), Priority: 0.8})
	}
	for _, p := range posts {
		u := sitemapURL{
			Loc:      PostURL(base, p.Slug),
			LastMod:  p.Updated().Format("2006-01-02"),
			Priority: 0.6,
		}
		if p.Featured {
			u.Priority = 0.7
		}
		urls = append(urls, u)
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}

func (a *App) renderSitemap(c echo.Context, posts []content.Post) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(a.buildSitemap(posts))
}
