package content

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/eringen/folio/markdown"
)

func validPost(slug, date string) Post {
	return Post{
		ID:          "id-" + slug,
		Slug:        slug,
		Title:       "Title " + slug,
		PublishedAt: date,
		Categories:  []string{"AI"},
		Tags:        []string{"x"},
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2024-03-01", true},
		{"2023-12-15T08:00:00Z", true},
		{"2024-01-22T09:15:00.123Z", true},
		{"2024-01-22T09:15:00+02:00", true},
		{"2024-01-22T09:15:00", true},
		{"", false},
		{"March 1st", false},
	}
	for _, tt := range tests {
		_, err := ParseTime(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("ParseTime(%q) err = %v, want ok=%v", tt.input, err, tt.ok)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  AI Agents: The Future!  ", "ai-agents-the-future"},
		{"Go 1.24 -- release", "go-1-24-release"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{1, 1},
		{200, 1},
		{201, 2},
		{1000, 5},
	}
	for _, tt := range tests {
		text := strings.Repeat("word ", tt.words)
		if got := ReadingTime(text); got != tt.want {
			t.Errorf("ReadingTime(%d words) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := validPost("a", "2024-01-01")
	p.Author.Social = map[string]string{"github": "me"}
	p.TableOfContents = []TOCItem{{Level: 2, Title: "Intro", Slug: "intro"}}

	c := p.Clone()
	c.Categories[0] = "changed"
	c.Tags[0] = "changed"
	c.Author.Social["github"] = "changed"
	c.TableOfContents[0].Title = "changed"

	if p.Categories[0] != "AI" || p.Tags[0] != "x" {
		t.Errorf("clone shares slices with original: %+v", p)
	}
	if p.Author.Social["github"] != "me" {
		t.Errorf("clone shares social map with original")
	}
	if p.TableOfContents[0].Title != "Intro" {
		t.Errorf("clone shares table of contents with original")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(validPost("good-slug", "2024-01-01")); err != nil {
		t.Fatalf("Validate(valid) = %v", err)
	}

	bad := []Post{
		{Slug: "no-id", Title: "t", PublishedAt: "2024-01-01"},
		{ID: "1", Slug: "Not A Slug", Title: "t", PublishedAt: "2024-01-01"},
		{ID: "1", Slug: "no-title", PublishedAt: "2024-01-01"},
		{ID: "1", Slug: "no-date", Title: "t"},
		{ID: "1", Slug: "bad-date", Title: "t", PublishedAt: "yesterday"},
		{ID: "1", Slug: "bad-update", Title: "t", PublishedAt: "2024-01-01", UpdatedAt: "soon"},
		{ID: "1", Slug: "negative", Title: "t", PublishedAt: "2024-01-01", ReadingTime: -1},
	}
	for _, p := range bad {
		err := Validate(p)
		if !errors.Is(err, ErrInvalidPost) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidPost", p.Slug, err)
		}
	}
}

func TestValidateAllDuplicates(t *testing.T) {
	a := validPost("same", "2024-01-01")
	b := validPost("same", "2024-02-01")
	b.ID = "other"
	if err := ValidateAll([]Post{a, b}); !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("ValidateAll(dup slug) = %v, want ErrDuplicateSlug", err)
	}

	c := validPost("c", "2024-01-01")
	d := validPost("d", "2024-01-01")
	d.ID = c.ID
	if err := ValidateAll([]Post{c, d}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("ValidateAll(dup id) = %v, want ErrDuplicateID", err)
	}

	if err := ValidateAll([]Post{c, validPost("e", "2024-01-01")}); err != nil {
		t.Errorf("ValidateAll(unique) = %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	input := `[
		{"id":"1","slug":"one","title":"One","publishedAt":"2024-01-01","content":"## Intro\n\nhello world","categories":["AI"]},
		{"id":"2","slug":"two","title":"Two","publishedAt":"2024-02-01","draft":true},
		{"id":"3","slug":"three","title":"Three","publishedAt":"2024-03-01","readingTime":9}
	]`
	posts, err := LoadJSON(strings.NewReader(input), LoadOptions{})
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("LoadJSON count = %d, want 2 (draft skipped)", len(posts))
	}
	if posts[0].ReadingTime != 1 {
		t.Errorf("derived ReadingTime = %d, want 1", posts[0].ReadingTime)
	}
	if posts[1].ReadingTime != 9 {
		t.Errorf("supplied ReadingTime = %d, want 9", posts[1].ReadingTime)
	}
	want := []TOCItem{{Level: 2, Title: "Intro", Slug: "intro"}}
	if diff := cmp.Diff(want, posts[0].TableOfContents); diff != "" {
		t.Errorf("TableOfContents mismatch (-want +got):\n%s", diff)
	}
	if posts[1].Tags == nil || posts[1].Categories == nil {
		t.Errorf("missing tag/category lists should load as empty, got %+v", posts[1])
	}

	withDrafts, err := LoadJSON(strings.NewReader(input), LoadOptions{IncludeDrafts: true})
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if len(withDrafts) != 3 {
		t.Errorf("LoadJSON(IncludeDrafts) count = %d, want 3", len(withDrafts))
	}
}

func TestLoadJSONMalformed(t *testing.T) {
	if _, err := LoadJSON(strings.NewReader(`{"not":"an array"}`), LoadOptions{}); err == nil {
		t.Error("expected error for malformed input")
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	posts := []Post{validPost("a", "2024-01-01")}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, posts); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	got, err := LoadJSON(&buf, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if len(got) != 1 || got[0].Slug != "a" {
		t.Errorf("round trip = %+v", got)
	}
}

const samplePost = `---
title: Building AI-Powered Workflows
date: 2024-03-01
author:
  name: Jane Doe
  avatar: /images/avatar.jpg
  social:
    github: janedoe
categories: [AI, Tools]
tags: [automation]
featured: true
excerpt: Short excerpt.
coverImage: /blog/cover.jpg
---
# Building AI-Powered Workflows

## Understanding Workflows

Some words here.

### Designing for Scale
`

func TestParseMarkdown(t *testing.T) {
	p, err := ParseMarkdown("posts/ai.md", []byte(samplePost))
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}
	if p.Slug != "building-ai-powered-workflows" {
		t.Errorf("Slug = %q", p.Slug)
	}
	if p.ID == "" {
		t.Error("ID should be derived when missing")
	}
	again, _ := ParseMarkdown("posts/ai.md", []byte(samplePost))
	if again.ID != p.ID {
		t.Errorf("derived ID not stable: %q vs %q", p.ID, again.ID)
	}
	if _, err := ParseTime(p.PublishedAt); err != nil {
		t.Errorf("PublishedAt %q does not parse: %v", p.PublishedAt, err)
	}
	if !strings.HasPrefix(p.PublishedAt, "2024-03-01") {
		t.Errorf("PublishedAt = %q, want 2024-03-01 prefix", p.PublishedAt)
	}
	if !p.Featured || p.Author.Name != "Jane Doe" || p.Author.Social["github"] != "janedoe" {
		t.Errorf("front matter fields not mapped: %+v", p)
	}
	if diff := cmp.Diff([]string{"AI", "Tools"}, p.Categories); diff != "" {
		t.Errorf("Categories mismatch (-want +got):\n%s", diff)
	}
	if p.ReadingTime != 1 {
		t.Errorf("ReadingTime = %d, want 1", p.ReadingTime)
	}
	wantTOC := []TOCItem{
		{Level: 2, Title: "Understanding Workflows", Slug: "understanding-workflows"},
		{Level: 3, Title: "Designing for Scale", Slug: "designing-for-scale"},
	}
	if diff := cmp.Diff(wantTOC, p.TableOfContents); diff != "" {
		t.Errorf("TableOfContents mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(p.Content, "title:") {
		t.Errorf("front matter leaked into content: %q", p.Content)
	}
	if err := Validate(p); err != nil {
		t.Errorf("parsed post should validate: %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	fsys := fstest.MapFS{
		"b.md":        {Data: []byte("---\ntitle: Second\ndate: 2024-02-01\n---\nbody")},
		"a.md":        {Data: []byte("---\ntitle: First\ndate: 2024-01-01\n---\nbody")},
		"nested/c.md": {Data: []byte("---\nslug: custom-slug\ntitle: Third\ndate: 2024-03-01\n---\nbody")},
		"draft.md":    {Data: []byte("---\ntitle: Draft\ndate: 2024-04-01\ndraft: true\n---\nbody")},
		"notes.txt":   {Data: []byte("ignored")},
		"untitled.MD": {Data: []byte("---\ndate: 2024-05-01\n---\nbody")},
	}
	posts, err := LoadDir(fsys, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	var slugs []string
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	want := []string{"first", "second", "custom-slug", "untitled"}
	if diff := cmp.Diff(want, slugs); diff != "" {
		t.Errorf("LoadDir slugs mismatch (-want +got):\n%s", diff)
	}
}

func TestTableOfContentsMatchesRenderedAnchors(t *testing.T) {
	body := "## Go & Rust\n\ntext\n\n## Setup\n\none\n\n### Setup\n\ntwo\n\n## Setup\n\nthree\n"
	toc := TableOfContents(body)
	if len(toc) != 4 {
		t.Fatalf("toc = %+v, want 4 entries", toc)
	}
	html, err := markdown.HTML(body)
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	seen := map[string]bool{}
	for _, item := range toc {
		if !strings.Contains(html, `id="`+item.Slug+`"`) {
			t.Errorf("toc slug %q has no anchor in %s", item.Slug, html)
		}
		if seen[item.Slug] {
			t.Errorf("toc slug %q repeated", item.Slug)
		}
		seen[item.Slug] = true
	}
}
