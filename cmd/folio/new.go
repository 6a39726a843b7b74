package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eringen/folio/content"
)

var newFlags struct {
	dir        string
	excerpt    string
	categories []string
	tags       []string
	featured   bool
}

var newCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a draft markdown post",
	Long: `new writes <dir>/<slug>.md with a front matter header filled in from the
flags. The post starts as a draft; set draft: false to publish it. An
existing file is never overwritten.`,
	Example: `  folio new "Building AI Agents" --category AI --tag llm --tag agents`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runNew,
}

func init() {
	f := newCmd.Flags()
	f.StringVar(&newFlags.dir, "dir", "content/blog", "markdown directory")
	f.StringVar(&newFlags.excerpt, "excerpt", "", "one or two sentence summary")
	f.StringSliceVar(&newFlags.categories, "category", nil, "category (repeatable)")
	f.StringSliceVar(&newFlags.tags, "tag", nil, "tag (repeatable)")
	f.BoolVar(&newFlags.featured, "featured", false, "mark the post featured")
}

// draftHeader is written in this field order.
type draftHeader struct {
	Title      string   `yaml:"title"`
	Slug       string   `yaml:"slug"`
	Date       string   `yaml:"date"`
	Excerpt    string   `yaml:"excerpt"`
	Categories []string `yaml:"categories"`
	Tags       []string `yaml:"tags"`
	Featured   bool     `yaml:"featured"`
	Draft      bool     `yaml:"draft"`
}

func runNew(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))
	slug := content.Slugify(title)
	if slug == "" {
		return fmt.Errorf("title %q has no characters usable in a slug", title)
	}

	header := draftHeader{
		Title:      title,
		Slug:       slug,
		Date:       time.Now().Format("2006-01-02"),
		Excerpt:    newFlags.excerpt,
		Categories: nonNil(newFlags.categories),
		Tags:       nonNil(newFlags.tags),
		Featured:   newFlags.featured,
		Draft:      true,
	}
	data, err := renderDraft(header)
	if err != nil {
		return err
	}
	if _, err := content.ParseMarkdown(slug+".md", data); err != nil {
		return fmt.Errorf("generated post does not parse: %w", err)
	}

	if err := os.MkdirAll(newFlags.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(newFlags.dir, slug+".md")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s already exists", path)
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info().Str("path", path).Msg("draft created")
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func renderDraft(h draftHeader) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(h); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n\n## Introduction\n\nWrite here.\n")
	return buf.Bytes(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
