package main

import (
	"errors"
	"fmt"

	"github.com/ogero/mediacatalog/internal/library"
	"github.com/spf13/cobra"
)

func newPlayCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "play <id>",
		Short: "Print the playback URL of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, st, _, err := cmdCtx.startSession(cmd.Context())
			if st != nil {
				defer st.Close()
			}
			var partial *library.SeedPartialFailure
			if err != nil && !errors.As(err, &partial) {
				return err
			}

			item, url, err := session.Select(args[0])
			switch {
			case errors.Is(err, library.ErrNotPlayable):
				return fmt.Errorf("%s is not playable", item.Title)
			case err != nil:
				return fmt.Errorf("%s: %w", args[0], err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}
