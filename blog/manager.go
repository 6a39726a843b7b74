// Package blog answers read-only queries over an in-memory collection of
// posts: lookup by slug, filtering by category or tag, featured, recent and
// related posts, and category/tag counts.
package blog

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"github.com/eringen/folio/content"
)

const (
	// DefaultRecentLimit is used by Recent when limit is not positive.
	DefaultRecentLimit = 5
	// DefaultRelatedLimit is used by Related when limit is not positive.
	DefaultRelatedLimit = 3
)

// Aggregate is a category or tag name with the number of posts carrying it.
type Aggregate struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Scored pairs a post with its relatedness score.
type Scored struct {
	Post  content.Post `json:"post"`
	Score int          `json:"score"`
}

// Manager is an immutable, sorted view of a post collection. It is safe for
// concurrent use. Every method returns copies; callers can never modify the
// underlying records.
type Manager struct {
	posts  []content.Post
	bySlug map[string]int
	log    zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for load-time diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// New copies posts, validates them and sorts them newest first. Posts with
// equal publish times keep their load order. If the collection fails
// validation the condition is logged and the manager serves an empty store.
func New(posts []content.Post, opts ...Option) *Manager {
	m := &Manager{
		posts:  []content.Post{},
		bySlug: map[string]int{},
		log:    log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := content.ValidateAll(posts); err != nil {
		m.log.Error().Err(err).Int("posts", len(posts)).Msg("blog: invalid content, serving empty store")
		return m
	}

	m.posts = make([]content.Post, len(posts))
	for i, p := range posts {
		m.posts[i] = p.Clone()
	}
	sort.SliceStable(m.posts, func(i, j int) bool {
		return m.posts[i].Published().After(m.posts[j].Published())
	})
	for i, p := range m.posts {
		m.bySlug[p.Slug] = i
	}

	if len(m.posts) == 0 {
		m.log.Warn().Msg("blog: no posts loaded")
	} else {
		m.log.Debug().Int("posts", len(m.posts)).Msg("blog: posts loaded")
	}
	return m
}

// Len returns the number of posts in the store.
func (m *Manager) Len() int {
	return len(m.posts)
}

// All returns every post, newest first.
func (m *Manager) All() []content.Post {
	return m.filter(func(content.Post) bool { return true })
}

// BySlug returns the post with the given slug. A missing slug is a normal
// outcome and reports false.
func (m *Manager) BySlug(slug string) (content.Post, bool) {
	i, ok := m.bySlug[slug]
	if !ok {
		return content.Post{}, false
	}
	return m.posts[i].Clone(), true
}

// Featured returns featured posts, newest first.
func (m *Manager) Featured() []content.Post {
	return m.filter(func(p content.Post) bool { return p.Featured })
}

// ByCategory returns posts with a category equal to name under case folding.
func (m *Manager) ByCategory(name string) []content.Post {
	key := fold(name)
	return m.filter(func(p content.Post) bool { return containsFolded(p.Categories, key) })
}

// ByTag returns posts with a tag equal to name under case folding.
func (m *Manager) ByTag(name string) []content.Post {
	key := fold(name)
	return m.filter(func(p content.Post) bool { return containsFolded(p.Tags, key) })
}

// Recent returns the newest limit posts. A non-positive limit means
// DefaultRecentLimit; a limit past the end returns the whole collection.
func (m *Manager) Recent(limit int) []content.Post {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > len(m.posts) {
		limit = len(m.posts)
	}
	return clonePosts(m.posts[:limit])
}

// Search returns posts whose title, excerpt, categories or tags contain
// query under case folding. An empty query returns every post.
func (m *Manager) Search(query string) []content.Post {
	q := fold(query)
	if q == "" {
		return m.All()
	}
	return m.filter(func(p content.Post) bool {
		if strings.Contains(fold(p.Title), q) || strings.Contains(fold(p.Excerpt), q) {
			return true
		}
		for _, s := range p.Categories {
			if strings.Contains(fold(s), q) {
				return true
			}
		}
		for _, s := range p.Tags {
			if strings.Contains(fold(s), q) {
				return true
			}
		}
		return false
	})
}

// Related returns up to limit posts ranked by overlap with post. See
// RelatedScored for the scoring rule.
func (m *Manager) Related(post content.Post, limit int) []content.Post {
	scored := m.RelatedScored(post, limit)
	out := make([]content.Post, len(scored))
	for i, s := range scored {
		out[i] = s.Post
	}
	return out
}

// RelatedScored ranks every other post by 2 points per shared category plus
// 1 point per shared tag, compared case-insensitively. Equal scores keep the
// newest-first order. Posts scoring zero still fill the result when fewer
// than limit posts overlap. A non-positive limit means DefaultRelatedLimit.
func (m *Manager) RelatedScored(post content.Post, limit int) []Scored {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	cats := foldSet(post.Categories)
	tags := foldSet(post.Tags)

	scored := make([]Scored, 0, len(m.posts))
	for _, p := range m.posts {
		if samePost(p, post) {
			continue
		}
		score := 2*overlap(cats, p.Categories) + overlap(tags, p.Tags)
		scored = append(scored, Scored{Post: p, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	for i := range scored {
		scored[i].Post = scored[i].Post.Clone()
	}
	return scored
}

// Categories returns every category with its post count, most used first.
func (m *Manager) Categories() []Aggregate {
	return m.aggregate(func(p content.Post) []string { return p.Categories })
}

// Tags returns every tag with its post count, most used first.
func (m *Manager) Tags() []Aggregate {
	return m.aggregate(func(p content.Post) []string { return p.Tags })
}

// aggregate counts names case-insensitively. The display name is the first
// spelling seen in newest-first order, and equal counts keep that order.
func (m *Manager) aggregate(names func(content.Post) []string) []Aggregate {
	out := []Aggregate{}
	index := make(map[string]int)
	for _, p := range m.posts {
		seen := make(map[string]struct{})
		for _, name := range names(p) {
			key := fold(name)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if i, ok := index[key]; ok {
				out[i].Count++
				continue
			}
			index[key] = len(out)
			out = append(out, Aggregate{Name: strings.TrimSpace(name), Count: 1})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

func (m *Manager) filter(keep func(content.Post) bool) []content.Post {
	out := []content.Post{}
	for _, p := range m.posts {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}

func clonePosts(posts []content.Post) []content.Post {
	out := make([]content.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}

func samePost(a, b content.Post) bool {
	if b.ID != "" && a.ID == b.ID {
		return true
	}
	return b.Slug != "" && a.Slug == b.Slug
}

// fold normalizes a category or tag name for comparison. A Caser keeps
// state, so one is made per call.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func foldSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if k := fold(n); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

func containsFolded(names []string, key string) bool {
	if key == "" {
		return false
	}
	for _, n := range names {
		if fold(n) == key {
			return true
		}
	}
	return false
}

// overlap counts the distinct names in names that are present in set.
func overlap(set map[string]struct{}, names []string) int {
	if len(set) == 0 {
		return 0
	}
	n := 0
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		k := fold(name)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			n++
		}
	}
	return n
}
