package folio

import (
	"encoding/xml"
	"net/http"
	"strings"
	"testing"

	"github.com/eringen/folio/contact"
)

func TestFeed(t *testing.T) {
	a := setupTestApp(t, contact.SubmitterFunc(okSubmit))
	tc := newTestClient(t, a)

	rec := tc.do(http.MethodGet, "/feed.xml", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("Content-Type = %q", ct)
	}

	var feed rssXML
	if err := xml.Unmarshal(rec.Body.Bytes(), &feed); err != nil {
		t.Fatalf("invalid RSS: %v", err)
	}
	if feed.Channel.Title != "Test Folio" {
		t.Errorf("title = %q", feed.Channel.Title)
	}
	if len(feed.Channel.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(feed.Channel.Items))
	}
	first := feed.Channel.Items[0]
	if first.Link != "https://example.com/blog/ai-agents" {
		t.Errorf("link = %q", first.Link)
	}
	if first.PubDate != "Fri, 01 Mar 2024 00:00:00 +0000" {
		t.Errorf("pubDate = %q", first.PubDate)
	}
	if first.Description != "Agents in practice" {
		t.Errorf("description = %q", first.Description)
	}
	if first.GUID.Value != "p1" {
		t.Errorf("guid = %q", first.GUID.Value)
	}
}

func TestSitemap(t *testing.T) {
	a := setupTestApp(t, contact.SubmitterFunc(okSubmit))
	tc := newTestClient(t, a)

	rec := tc.do(http.MethodGet, "/sitemap.xml", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var set sitemapURLSet
	if err := xml.Unmarshal(rec.Body.Bytes(), &set); err != nil {
		t.Fatalf("invalid sitemap: %v", err)
	}
	// home, blog index, three posts
	if len(set.URLs) != 5 {
		t.Fatalf("urls = %d, want 5", len(set.URLs))
	}
	if set.URLs[0].Loc != "https://example.com" {
		t.Errorf("home loc = %q", set.URLs[0].Loc)
	}
	var prompt sitemapURL
	for _, u := range set.URLs {
		if u.Loc == "https://example.com/blog/prompt-design" {
			prompt = u
		}
	}
	if prompt.LastMod != "2024-02-10" {
		t.Errorf("lastmod = %q, want updatedAt", prompt.LastMod)
	}
}

func TestRobots(t *testing.T) {
	a := setupTestApp(t, contact.SubmitterFunc(okSubmit))
	tc := newTestClient(t, a)

	rec := tc.do(http.MethodGet, "/robots.txt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
