package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func render(t *testing.T, input string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, input); err != nil {
		t.Fatalf("RenderMarkdown(%q) failed: %v", input, err)
	}
	return buf.String()
}

func TestRenderMarkdownInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"__bold__", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"_italic_", "<em>italic</em>"},
		{"text `code` more", "<code>code</code>"},
		{"~~gone~~", "<del>gone</del>"},
	}
	for _, tt := range tests {
		got := render(t, tt.input)
		if !strings.Contains(got, tt.expected) {
			t.Errorf("RenderMarkdown(%q) = %q, want it to contain %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownBoldNotMatchedAsItalic(t *testing.T) {
	got := render(t, "**bold**")
	if strings.Contains(got, "<em>") {
		t.Errorf("RenderMarkdown(**bold**) = %q, should not contain <em>", got)
	}
}

func TestRenderMarkdownCodeBlockWithLanguage(t *testing.T) {
	got := render(t, "```go\nfmt.Println(\"<hi>\")\n```")
	if !strings.Contains(got, `<div class="code-block-wrapper">`) {
		t.Errorf("missing wrapper: %q", got)
	}
	if !strings.Contains(got, `<span class="code-lang code-lang-go">go</span>`) {
		t.Errorf("missing language badge: %q", got)
	}
	if !strings.Contains(got, `<code class="language-go">`) {
		t.Errorf("missing language class: %q", got)
	}
	if !strings.Contains(got, "&lt;hi&gt;") {
		t.Errorf("code content should be escaped: %q", got)
	}
}

func TestRenderMarkdownCodeBlockWithoutLanguage(t *testing.T) {
	got := render(t, "```\ncode here\n```")
	if !strings.Contains(got, `<pre class="code-block"><code>`) {
		t.Errorf("RenderMarkdown code block failed: %q", got)
	}
	if strings.Contains(got, "code-block-wrapper") {
		t.Errorf("plain code block should not be wrapped: %q", got)
	}
	if !strings.Contains(got, "code here") {
		t.Errorf("RenderMarkdown code block missing content: %q", got)
	}
}

func TestRenderMarkdownHeadings(t *testing.T) {
	got := render(t, "# Title\n\n## Getting Started\n\n### Details")
	for _, want := range []string{
		`<h1 id="title">Title</h1>`,
		`<h2 id="getting-started">Getting Started</h2>`,
		`<h3 id="details">Details</h3>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderMarkdown headings = %q, want it to contain %q", got, want)
		}
	}
}

func TestRenderMarkdownOmitsRawHTML(t *testing.T) {
	got := render(t, "<script>alert(1)</script>\n\nafter")
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML should be omitted: %q", got)
	}
	if !strings.Contains(got, "after") {
		t.Errorf("following content missing: %q", got)
	}
}

func TestRenderMarkdownLists(t *testing.T) {
	got := render(t, "- one\n- two\n\n1. first\n2. second")
	if !strings.Contains(got, "<ul>") || !strings.Contains(got, "<li>one</li>") {
		t.Errorf("unordered list failed: %q", got)
	}
	if !strings.Contains(got, "<ol>") || !strings.Contains(got, "<li>second</li>") {
		t.Errorf("ordered list failed: %q", got)
	}
}

func TestRenderMarkdownTable(t *testing.T) {
	got := render(t, "| a | b |\n|---|---|\n| 1 | 2 |")
	if !strings.Contains(got, "<table>") || !strings.Contains(got, "<th>a</th>") || !strings.Contains(got, "<td>2</td>") {
		t.Errorf("table failed: %q", got)
	}
}

func TestHeadings(t *testing.T) {
	src := "# Building AI Workflows\n\nIntro.\n\n## Understanding AI Workflows\n\ntext\n\n### Modular Architecture\n\n```\n## not a heading\n```\n\n#### The `go` Tool\n"
	got := Headings(src)
	if len(got) != 4 {
		t.Fatalf("Headings count = %d, want 4: %+v", len(got), got)
	}
	want := []Heading{
		{Level: 1, Text: "Building AI Workflows", ID: "building-ai-workflows"},
		{Level: 2, Text: "Understanding AI Workflows", ID: "understanding-ai-workflows"},
		{Level: 3, Text: "Modular Architecture", ID: "modular-architecture"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Headings[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if got[3].Level != 4 || got[3].Text != "The go Tool" {
		t.Errorf("Headings[3] = %+v, want level 4 with code span text", got[3])
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("hello **world**").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "<p>hello <strong>world</strong></p>") {
		t.Errorf("component output = %q", buf.String())
	}
}
