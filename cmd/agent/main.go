package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/slateroom/slateroom-agent/internal/config"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type commandContext struct {
	configFlag string
	addrFlag   string
	tokenFlag  string
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "slateroom",
		Short:         "Slateroom review-media agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.addrFlag, "addr", "", "Agent API address (default http://127.0.0.1:<port>)")
	rootCmd.PersistentFlags().StringVar(&ctx.tokenFlag, "token", "", "Agent API token (or SLATEROOM_API_TOKEN)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newSubmitCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("slateroom %s (built %s, commit %s)\n",
				config.Version, config.BuildTime, config.GitCommit)
		},
	}
}
