package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/eringen/folio"
	"github.com/eringen/folio/blog"
	"github.com/eringen/folio/content"
)

var postsFlags struct {
	category   string
	tag        string
	search     string
	related    string
	featured   bool
	recent     int
	limit      int
	categories bool
	tags       bool
	format     string
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Query the blog posts",
	Long: `posts loads the configured content and prints a selection of it. At most
one selector applies, checked in this order: --related, --featured, --recent,
--category, --tag, --search. With none, every post is listed newest first.`,
	Example: `  folio posts --category ai
  folio posts --related building-ai-agents --limit 5 --format json
  folio posts --tags --format yaml`,
	RunE: runPosts,
}

func init() {
	f := postsCmd.Flags()
	f.StringVar(&postsFlags.category, "category", "", "posts in this category (case-insensitive)")
	f.StringVar(&postsFlags.tag, "tag", "", "posts with this tag (case-insensitive)")
	f.StringVar(&postsFlags.search, "search", "", "posts whose title, excerpt, categories or tags contain the text")
	f.StringVar(&postsFlags.related, "related", "", "posts related to the one with this slug")
	f.BoolVar(&postsFlags.featured, "featured", false, "featured posts only")
	f.IntVar(&postsFlags.recent, "recent", 0, "the N most recent posts")
	f.IntVar(&postsFlags.limit, "limit", 0, "limit for --related (default 3)")
	f.BoolVar(&postsFlags.categories, "categories", false, "list categories with post counts")
	f.BoolVar(&postsFlags.tags, "tags", false, "list tags with post counts")
	f.StringVar(&postsFlags.format, "format", "table", "output format: table, json or yaml")
}

func loadManager() (*blog.Manager, error) {
	lib := folio.NewLibrary(siteCfg.ContentPath, content.LoadOptions{IncludeDrafts: siteCfg.IncludeDrafts}, logger)
	if err := lib.Reload(); err != nil {
		return nil, err
	}
	return lib.Manager(), nil
}

func runPosts(cmd *cobra.Command, _ []string) error {
	m, err := loadManager()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch {
	case postsFlags.categories:
		return printAggregates(out, m.Categories())
	case postsFlags.tags:
		return printAggregates(out, m.Tags())
	}

	var posts []content.Post
	f := postsFlags
	switch {
	case f.related != "":
		post, ok := m.BySlug(f.related)
		if !ok {
			return fmt.Errorf("no post with slug %q", f.related)
		}
		posts = m.Related(post, f.limit)
	case f.featured:
		posts = m.Featured()
	case f.recent > 0:
		posts = m.Recent(f.recent)
	case f.category != "":
		posts = m.ByCategory(f.category)
	case f.tag != "":
		posts = m.ByTag(f.tag)
	case f.search != "":
		posts = m.Search(f.search)
	default:
		posts = m.All()
	}
	return printPosts(out, posts)
}

func printPosts(w io.Writer, posts []content.Post) error {
	switch postsFlags.format {
	case "json":
		return writeJSON(w, posts)
	case "yaml":
		return writeYAML(w, posts)
	case "table":
	default:
		return fmt.Errorf("unknown format %q", postsFlags.format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeHeader(tw, "published", "slug", "title", "categories", "tags")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.Published().Format("2006-01-02"),
			p.Slug,
			p.Title,
			strings.Join(p.Categories, ", "),
			strings.Join(p.Tags, ", "),
		)
	}
	return tw.Flush()
}

func printAggregates(w io.Writer, items []blog.Aggregate) error {
	switch postsFlags.format {
	case "json":
		return writeJSON(w, items)
	case "yaml":
		return writeYAML(w, items)
	case "table":
	default:
		return fmt.Errorf("unknown format %q", postsFlags.format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeHeader(tw, "name", "posts")
	for _, a := range items {
		fmt.Fprintf(tw, "%s\t%s\n", a.Name, strconv.Itoa(a.Count))
	}
	return tw.Flush()
}

func writeHeader(w io.Writer, cols ...string) {
	title := cases.Title(language.English)
	for i, c := range cols {
		cols[i] = title.String(c)
	}
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
