package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/LumeraProtocol/notary/pkg/history"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyDigest string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List notarizations submitted from this machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !appConfig.History.Enabled {
			return fmt.Errorf("history is disabled (history.enabled: false)")
		}

		store, err := history.NewStore(appConfig.HistoryPath())
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		var entries []history.Entry
		if historyDigest != "" {
			d, err := hasher.ParseDigest(historyDigest)
			if err != nil {
				return fmt.Errorf("invalid --digest: %w", err)
			}
			entries, err = store.FindByDigest(cmd.Context(), d.Hex())
			if err != nil {
				return err
			}
		} else {
			entries, err = store.List(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No notarizations recorded yet.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tSTATUS\tDIGEST\tTX\tBLOCK\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
				e.CreatedAt().Local().Format("2006-01-02 15:04:05"),
				e.Status,
				e.Digest,
				orDash(e.TxHash),
				e.BlockNumber,
				e.Description,
			)
		}
		return tw.Flush()
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of entries, newest first")
	historyCmd.Flags().StringVar(&historyDigest, "digest", "", "only show entries for this digest")
}
