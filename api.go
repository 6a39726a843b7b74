package folio

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/markdown"
	"github.com/eringen/folio/project"
)

// postDetail is a post with its body rendered to HTML.
type postDetail struct {
	content.Post
	HTML string `json:"html"`
}

// listOf keeps empty results encoding as [] rather than null.
func listOf(posts []content.Post) []content.Post {
	if posts == nil {
		return []content.Post{}
	}
	return posts
}

// queryLimit reads ?limit. Absent means 0, which the manager treats as its
// default.
func queryLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, NewAPIError(http.StatusBadRequest, "limit must be a non-negative integer")
	}
	return n, nil
}

// handleListPosts lists every post, or the subset selected by the first of
// category, tag or q present in the query.
func (a *App) handleListPosts(c echo.Context) error {
	m := a.Library.Manager()
	var posts []content.Post
	switch {
	case c.QueryParam("category") != "":
		posts = m.ByCategory(c.QueryParam("category"))
	case c.QueryParam("tag") != "":
		posts = m.ByTag(c.QueryParam("tag"))
	case c.QueryParam("q") != "":
		posts = m.Search(c.QueryParam("q"))
	default:
		posts = m.All()
	}
	return c.JSON(http.StatusOK, listOf(posts))
}

func (a *App) handleFeaturedPosts(c echo.Context) error {
	return c.JSON(http.StatusOK, listOf(a.Library.Manager().Featured()))
}

func (a *App) handleRecentPosts(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listOf(a.Library.Manager().Recent(limit)))
}

func (a *App) handleGetPost(c echo.Context) error {
	post, ok := a.Library.Manager().BySlug(c.Param("slug"))
	if !ok {
		return NewAPIError(http.StatusNotFound, "post not found")
	}
	html, err := markdown.HTML(post.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, postDetail{Post: post, HTML: html})
}

func (a *App) handleRelatedPosts(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	m := a.Library.Manager()
	post, ok := m.BySlug(c.Param("slug"))
	if !ok {
		return NewAPIError(http.StatusNotFound, "post not found")
	}
	return c.JSON(http.StatusOK, listOf(m.Related(post, limit)))
}

func (a *App) handleCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Library.Manager().Categories())
}

func (a *App) handleTags(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Library.Manager().Tags())
}

// handleListProjects lists projects in priority order, optionally narrowed
// by ?type. "all" or an absent type lists everything.
func (a *App) handleListProjects(c echo.Context) error {
	t, err := project.ParseType(c.QueryParam("type"))
	if err != nil {
		return NewAPIError(http.StatusBadRequest, "type must be one of agent, workflow, fullstack, misc or all")
	}
	return c.JSON(http.StatusOK, a.Projects.ByType(t))
}

func (a *App) handleFeaturedProjects(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Projects.Featured())
}

func (a *App) handleGetProject(c echo.Context) error {
	p, ok := a.Projects.ByID(c.Param("id"))
	if !ok {
		return NewAPIError(http.StatusNotFound, "project not found")
	}
	return c.JSON(http.StatusOK, p)
}
