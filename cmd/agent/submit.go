package main

import (
	"fmt"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/slateroom/slateroom-agent/internal/api"
	"github.com/slateroom/slateroom-agent/internal/review"
)

func newSubmitCommand(cctx *commandContext) *cobra.Command {
	var req review.SubmitRequest

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a frame sequence for review rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(cctx)
			if err != nil {
				return err
			}

			if req.Artist == "" {
				if u, err := user.Current(); err == nil {
					req.Artist = u.Username
				}
			}

			var resp api.SubmitResponse
			if err := client.post("/jobs", req, &resp); err != nil {
				return err
			}

			if resp.Warning != "" {
				fmt.Println("warning:", resp.Warning)
				return nil
			}
			fmt.Println("queued job", resp.JobID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Shot, "shot", "", "Shot code (required)")
	cmd.Flags().StringVar(&req.Task, "task", "", "Task name")
	cmd.Flags().StringVar(&req.Artist, "artist", "", "Artist name (defaults to the current user)")
	cmd.Flags().StringVar(&req.InputPath, "input", "", "Frame sequence path with a frame pattern, e.g. /renders/sh010.%04d.exr (required)")
	cmd.Flags().StringVar(&req.OutputPath, "output", "", "Review movie output path (defaults next to the frames)")
	cmd.Flags().IntVar(&req.FirstFrame, "first", 0, "First frame (required)")
	cmd.Flags().IntVar(&req.LastFrame, "last", 0, "Last frame (required)")
	cmd.Flags().IntVar(&req.Width, "width", 0, "Movie width (defaults from config)")
	cmd.Flags().IntVar(&req.Height, "height", 0, "Movie height (defaults from config)")
	cmd.Flags().StringVar(&req.Colorspace, "colorspace", "", "Input colorspace")
	cmd.Flags().IntVar(&req.Version, "version", 0, "Version number")
	cmd.Flags().StringVar(&req.Comment, "comment", "", "Version description")

	cmd.MarkFlagRequired("shot")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("first")
	cmd.MarkFlagRequired("last")

	return cmd
}
