// Package content defines the blog post record and loads collections of them
// from static sources: a pre-built JSON index or a directory of markdown files
// with front matter.
package content

import (
	"strings"
	"time"
)

// Author is embedded in every post.
type Author struct {
	ID     string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string            `json:"name" yaml:"name"`
	Avatar string            `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Bio    string            `json:"bio,omitempty" yaml:"bio,omitempty"`
	Title  string            `json:"title,omitempty" yaml:"title,omitempty"`
	Social map[string]string `json:"social,omitempty" yaml:"social,omitempty"`
}

// TOCItem is one heading in a post's table of contents.
type TOCItem struct {
	Level int    `json:"level" yaml:"level"`
	Title string `json:"title" yaml:"title"`
	Slug  string `json:"slug" yaml:"slug"`
}

// Post is a single blog post record. Records are treated as immutable once a
// collection has been loaded.
type Post struct {
	ID              string    `json:"id" yaml:"id" validate:"required"`
	Slug            string    `json:"slug" yaml:"slug" validate:"required,slug"`
	Title           string    `json:"title" yaml:"title" validate:"required"`
	Excerpt         string    `json:"excerpt" yaml:"excerpt"`
	Description     string    `json:"description,omitempty" yaml:"description,omitempty"`
	Content         string    `json:"content" yaml:"content"`
	CoverImage      string    `json:"coverImage" yaml:"coverImage"`
	PublishedAt     string    `json:"publishedAt" yaml:"publishedAt" validate:"required,isodate"`
	UpdatedAt       string    `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty" validate:"omitempty,isodate"`
	ReadingTime     int       `json:"readingTime" yaml:"readingTime" validate:"gte=0"`
	Featured        bool      `json:"featured" yaml:"featured"`
	Draft           bool      `json:"draft,omitempty" yaml:"draft,omitempty"`
	Priority        int       `json:"priority,omitempty" yaml:"priority,omitempty"`
	Categories      []string  `json:"categories" yaml:"categories"`
	Tags            []string  `json:"tags" yaml:"tags"`
	Author          Author    `json:"author" yaml:"author"`
	TableOfContents []TOCItem `json:"tableOfContents,omitempty" yaml:"tableOfContents,omitempty"`
}

// Published returns the parsed PublishedAt timestamp, or the zero time if it
// does not parse.
func (p Post) Published() time.Time {
	t, _ := ParseTime(p.PublishedAt)
	return t
}

// Updated returns UpdatedAt when set, falling back to Published.
func (p Post) Updated() time.Time {
	if t, err := ParseTime(p.UpdatedAt); err == nil {
		return t
	}
	return p.Published()
}

// Clone returns a deep copy of p. Slices and the social map are never shared
// with the original.
func (p Post) Clone() Post {
	c := p
	c.Categories = cloneStrings(p.Categories)
	c.Tags = cloneStrings(p.Tags)
	if p.TableOfContents != nil {
		c.TableOfContents = append([]TOCItem(nil), p.TableOfContents...)
	}
	if p.Author.Social != nil {
		c.Author.Social = make(map[string]string, len(p.Author.Social))
		for k, v := range p.Author.Social {
			c.Author.Social[k] = v
		}
	}
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append(make([]string, 0, len(s)), s...)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 timestamp as written in post data: a full
// RFC 3339 timestamp or a bare date.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ReadingTime estimates minutes to read text at 200 words per minute,
// rounded up.
func ReadingTime(text string) int {
	words := len(strings.Fields(text))
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

const wordsPerMinute = 200
