package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ogero/mediacatalog/internal/library"
	"github.com/spf13/cobra"
)

func newViewCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "view [query]",
		Short: "Show the hero and the grouped rows matching query",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, st, _, err := cmdCtx.startSession(cmd.Context())
			if st != nil {
				defer st.Close()
			}
			var partial *library.SeedPartialFailure
			if err != nil && !errors.As(err, &partial) {
				return err
			}

			view := session.View(strings.Join(args, " "))

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			_, err = fmt.Fprint(out, renderView(view, shouldColorize(out)))
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the view as JSON")

	return cmd
}
