package main

import (
	"fmt"
	"io"

	"github.com/ogero/mediacatalog/internal/library"
	"github.com/spf13/cobra"
)

func newSeedCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the store from the manifest if it is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, result, err := cmdCtx.startSession(cmd.Context())
			if st == nil {
				return err
			}
			defer st.Close()

			printSeedResult(cmd.OutOrStdout(), result)
			return err
		},
	}
}

func printSeedResult(w io.Writer, result library.SeedResult) {
	switch {
	case result.Skipped:
		fmt.Fprintln(w, "Seed skipped: the catalog already holds items")
	case result.FetchFailed:
		fmt.Fprintln(w, "Seed skipped: the manifest could not be fetched, the catalog is empty")
	default:
		fmt.Fprintf(w, "Fetched %d, stored %d, failed %d\n", result.Fetched, result.Stored, result.Failed)
	}
}
