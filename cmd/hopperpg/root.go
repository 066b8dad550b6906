package main

import "github.com/spf13/cobra"

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hopperpg",
		Short:         "Policy gradient agents for continuous control",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		trainCommand(),
		plotCommand(),
	)
	return cmd
}
