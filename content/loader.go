package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/google/uuid"

	"github.com/eringen/folio/markdown"
)

// LoadOptions controls how records are read from a source.
type LoadOptions struct {
	// IncludeDrafts keeps records marked draft. They are skipped by default.
	IncludeDrafts bool
}

// Load reads posts from path. A directory is scanned for markdown files; any
// other path is read as a JSON array of records.
func Load(path string, opts LoadOptions) ([]Post, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return LoadDir(os.DirFS(path), opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadJSON(f, opts)
}

// LoadJSON decodes a JSON array of post records. Derived fields (reading
// time, table of contents) are filled in when absent.
func LoadJSON(r io.Reader, opts LoadOptions) ([]Post, error) {
	var raw []Post
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("content: decode json: %w", err)
	}
	posts := make([]Post, 0, len(raw))
	for _, p := range raw {
		if p.Draft && !opts.IncludeDrafts {
			continue
		}
		posts = append(posts, fillDerived(p))
	}
	return posts, nil
}

// WriteJSON encodes posts as an indented JSON array, the format LoadJSON reads.
func WriteJSON(w io.Writer, posts []Post) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(posts)
}

// frontMatter mirrors the YAML header of a markdown post.
type frontMatter struct {
	ID           string      `yaml:"id"`
	Title        string      `yaml:"title"`
	Slug         string      `yaml:"slug"`
	Date         interface{} `yaml:"date"`
	LastModified interface{} `yaml:"lastModified"`
	Author       Author      `yaml:"author"`
	ReadingTime  int         `yaml:"readingTime"`
	Categories   []string    `yaml:"categories"`
	Tags         []string    `yaml:"tags"`
	Featured     bool        `yaml:"featured"`
	Draft        bool        `yaml:"draft"`
	Priority     int         `yaml:"priority"`
	Excerpt      string      `yaml:"excerpt"`
	Description  string      `yaml:"description"`
	CoverImage   string      `yaml:"coverImage"`
}

// LoadDir reads every .md and .markdown file in fsys. Files are visited in
// lexical path order so the load order is deterministic.
func LoadDir(fsys fs.FS, opts LoadOptions) ([]Post, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".md", ".markdown":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("content: walk: %w", err)
	}
	sort.Strings(files)

	posts := make([]Post, 0, len(files))
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("content: read %s: %w", name, err)
		}
		p, err := ParseMarkdown(name, data)
		if err != nil {
			return nil, err
		}
		if p.Draft && !opts.IncludeDrafts {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// ParseMarkdown builds a post from a markdown file with a front matter
// header. name is used to derive the slug when neither slug nor title is set.
func ParseMarkdown(name string, data []byte) (Post, error) {
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return Post{}, fmt.Errorf("content: front matter %s: %w", name, err)
	}

	slug := strings.TrimSpace(fm.Slug)
	if slug == "" {
		slug = Slugify(fm.Title)
	}
	if slug == "" {
		slug = Slugify(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	}
	id := strings.TrimSpace(fm.ID)
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte("/blog/"+slug)).String()
	}

	p := Post{
		ID:          id,
		Slug:        slug,
		Title:       fm.Title,
		Excerpt:     fm.Excerpt,
		Description: fm.Description,
		Content:     strings.TrimSpace(string(body)),
		CoverImage:  fm.CoverImage,
		PublishedAt: timeString(fm.Date),
		UpdatedAt:   timeString(fm.LastModified),
		ReadingTime: fm.ReadingTime,
		Featured:    fm.Featured,
		Draft:       fm.Draft,
		Priority:    fm.Priority,
		Categories:  fm.Categories,
		Tags:        fm.Tags,
		Author:      fm.Author,
	}
	return fillDerived(p), nil
}

// fillDerived computes reading time and the table of contents when the
// source did not supply them.
func fillDerived(p Post) Post {
	if p.ReadingTime == 0 {
		p.ReadingTime = ReadingTime(p.Content)
	}
	if len(p.TableOfContents) == 0 {
		p.TableOfContents = TableOfContents(p.Content)
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

// TableOfContents lists the level 2 to 4 headings of a markdown body. Each
// slug is the anchor id the heading gets when the body is rendered.
func TableOfContents(body string) []TOCItem {
	var toc []TOCItem
	for _, h := range markdown.Headings(body) {
		if h.Level < 2 || h.Level > 4 {
			continue
		}
		slug := h.ID
		if slug == "" {
			slug = Slugify(h.Text)
		}
		toc = append(toc, TOCItem{Level: h.Level, Title: h.Text, Slug: slug})
	}
	return toc
}

// timeString normalizes a YAML date value, which may decode as a string or
// a time.Time depending on how it was written.
func timeString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
