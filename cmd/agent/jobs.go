package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slateroom/slateroom-agent/internal/api"
)

func newJobsCommand(cctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs [id]",
		Short: "List review jobs or show one job with its derivatives",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(cctx)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return showJob(client, args[0])
			}
			return listJobs(client)
		},
	}
	return cmd
}

func listJobs(client *apiClient) error {
	var resp api.JobsResponse
	if err := client.get("/jobs", &resp); err != nil {
		return err
	}

	if len(resp.Jobs) == 0 {
		fmt.Println("no jobs")
		return nil
	}

	rows := make([][]string, len(resp.Jobs))
	for i, j := range resp.Jobs {
		stage := j.Stage
		if j.Status == "failed" {
			stage = j.Error
		}
		rows[i] = []string{
			j.ID[:8],
			j.Shot,
			j.Task,
			fmt.Sprintf("v%d", j.Version),
			fmt.Sprintf("%d-%d", j.FirstFrame, j.LastFrame),
			j.Status,
			fmt.Sprintf("%d%%", j.Progress),
			stage,
		}
	}

	fmt.Println(renderTable(
		[]string{"ID", "SHOT", "TASK", "VER", "FRAMES", "STATUS", "PROG", "STAGE"},
		rows, 6))
	return nil
}

func showJob(client *apiClient, id string) error {
	var job api.JobResponse
	if err := client.get("/jobs/"+id, &job); err != nil {
		return err
	}

	fmt.Printf("Job:      %s\n", job.ID)
	fmt.Printf("Shot:     %s  task=%s  v%d\n", job.Shot, job.Task, job.Version)
	fmt.Printf("Frames:   %d-%d\n", job.FirstFrame, job.LastFrame)
	fmt.Printf("Input:    %s\n", job.InputPath)
	fmt.Printf("Output:   %s\n", job.OutputPath)
	fmt.Printf("Status:   %s (%d%%)\n", job.Status, job.Progress)
	if job.Stage != "" {
		fmt.Printf("Stage:    %s\n", job.Stage)
	}
	if job.Error != "" {
		fmt.Printf("Error:    %s\n", job.Error)
	}
	if job.TrackerVersionID != "" {
		fmt.Printf("Version:  %s\n", job.TrackerVersionID)
	}

	var derivatives api.DerivativesResponse
	if err := client.get("/jobs/"+id+"/derivatives", &derivatives); err != nil {
		return err
	}
	if len(derivatives.Derivatives) == 0 {
		return nil
	}

	rows := make([][]string, len(derivatives.Derivatives))
	for i, d := range derivatives.Derivatives {
		rows[i] = []string{d.Kind, fmt.Sprintf("%d", d.ExitCode), d.Path, d.Error}
	}
	fmt.Println()
	fmt.Println(renderTable([]string{"KIND", "EXIT", "PATH", "ERROR"}, rows, 1))
	return nil
}
