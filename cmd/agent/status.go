package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slateroom/slateroom-agent/internal/api"
)

func newStatusCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show agent status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(cctx)
			if err != nil {
				return err
			}

			var resp api.StatusResponse
			if err := client.get("/status", &resp); err != nil {
				return err
			}

			fmt.Printf("State:        %s\n", resp.State)
			fmt.Printf("Jobs running: %d\n", resp.JobsRunning)
			if resp.ActiveJob != nil {
				fmt.Printf("Active job:   %s %s (%d%%, %s)\n",
					resp.ActiveJob.ID[:8], resp.ActiveJob.Shot,
					resp.ActiveJob.Progress, resp.ActiveJob.Stage)
			}
			if resp.LastError != "" {
				fmt.Printf("Last error:   %s\n", resp.LastError)
			}
			return nil
		},
	}
}
