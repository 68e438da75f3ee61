// Package cmd - quote journal commands
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"premium-estimator/adapters/storage"
	"premium-estimator/core/types"
	"premium-estimator/internal/config"
)

var (
	listDomain string
	listLimit  int
)

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Inspect the quote journal",
}

var quotesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled quotes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.New(config.Get().Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		quotes, err := store.List(cmd.Context(), &storage.ListFilter{
			Domain: types.Domain(listDomain),
			Limit:  listLimit,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if outputFormat == "json" {
			return printJSON(w, quotes)
		}
		if len(quotes) == 0 {
			fmt.Fprintln(w, "No quotes found.")
			return nil
		}
		fmt.Fprintf(w, "%-36s  %-8s  %-6s  %12s  %s\n", "ID", "DOMAIN", "KIND", "AMOUNT", "ISSUED")
		fmt.Fprintln(w, strings.Repeat("-", 90))
		for _, q := range quotes {
			fmt.Fprintf(w, "%-36s  %-8s  %-6s  %8s %s  %s\n",
				q.ID, q.Domain, q.Strategy, q.Amount.StringFixed(2), q.Currency,
				q.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var quotesCompareCmd = &cobra.Command{
	Use:   "compare <old-id> <new-id>",
	Short: "Compare two journaled quotes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.New(config.Get().Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := storage.Compare(cmd.Context(), store, args[0], args[1])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if outputFormat == "json" {
			return printJSON(w, result)
		}
		sign := "+"
		if result.Delta.IsNegative() {
			sign = ""
		}
		fmt.Fprintf(w, "%s → %s: %s%s (%s%.2f%%)\n",
			result.OldAmount.StringFixed(2), result.NewAmount.StringFixed(2),
			sign, result.Delta.StringFixed(2), sign, result.DeltaPercent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quotesCmd)
	quotesCmd.AddCommand(quotesListCmd)
	quotesCmd.AddCommand(quotesCompareCmd)

	quotesListCmd.Flags().StringVar(&listDomain, "domain", "", "only quotes of this domain")
	quotesListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum quotes to list")
}
