package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eringen/folio/contact"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Inspect and retry contact submissions that could not be delivered",
}

var pendingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored submissions, oldest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := contact.OpenPendingStore(siteCfg.PendingDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		rows, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if pendingFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), rows)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		writeHeader(tw, "id", "created", "name", "email")
		for _, r := range rows {
			sub, err := r.Submission()
			if err != nil {
				logger.Warn().Err(err).Str("id", r.ID).Msg("unreadable pending row")
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				r.ID,
				r.CreatedAt.Format("2006-01-02 15:04"),
				sub.Fields["name"],
				sub.Fields["email"],
			)
		}
		return tw.Flush()
	},
}

var pendingFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Deliver stored submissions to the webhook and remove the delivered ones",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := contact.OpenPendingStore(siteCfg.PendingDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Flush(cmd.Context(), networkChain(siteCfg))
		fmt.Fprintf(cmd.OutOrStdout(), "%d delivered\n", n)
		if err != nil {
			// one line per failed row
			return fmt.Errorf("some submissions were not delivered:\n%s", indent(err.Error()))
		}
		return nil
	},
}

var pendingFormat string

func init() {
	pendingListCmd.Flags().StringVar(&pendingFormat, "format", "table", "output format: table or json")
	pendingCmd.AddCommand(pendingListCmd, pendingFlushCmd)
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
