package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	cmdCtx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Local media catalog",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmdCtx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default $CATALOG_CONFIG_FILE)")

	rootCmd.AddCommand(newServeCommand(cmdCtx))
	rootCmd.AddCommand(newSeedCommand(cmdCtx))
	rootCmd.AddCommand(newViewCommand(cmdCtx))
	rootCmd.AddCommand(newPlayCommand(cmdCtx))

	return rootCmd
}
