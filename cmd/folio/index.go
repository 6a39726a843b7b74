package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eringen/folio/content"
)

var (
	indexOut    string
	indexDrafts bool
)

var indexCmd = &cobra.Command{
	Use:   "index <markdown-dir>",
	Short: "Build a JSON post index from a directory of markdown files",
	Long: `index reads every markdown file with front matter under the directory,
fills in ids, reading times and tables of contents, validates the collection
and writes it as a JSON array. Any invalid or duplicate post aborts the run
without writing output.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexOut, "out", "o", "", "output file (default stdout)")
	indexCmd.Flags().BoolVar(&indexDrafts, "drafts", false, "include draft posts")
}

func runIndex(cmd *cobra.Command, args []string) error {
	dir := args[0]
	posts, err := content.LoadDir(os.DirFS(dir), content.LoadOptions{IncludeDrafts: indexDrafts})
	if err != nil {
		return fmt.Errorf("load %s: %w", dir, err)
	}
	if err := content.ValidateAll(posts); err != nil {
		return err
	}

	if indexOut == "" {
		return content.WriteJSON(cmd.OutOrStdout(), posts)
	}

	if err := os.MkdirAll(filepath.Dir(indexOut), 0o755); err != nil {
		return err
	}
	tmp := indexOut + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := content.WriteJSON(f, posts); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, indexOut); err != nil {
		return err
	}
	logger.Info().Int("posts", len(posts)).Str("out", indexOut).Msg("index written")
	return nil
}
