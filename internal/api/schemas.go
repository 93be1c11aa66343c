package api

import (
	"time"

	"github.com/slateroom/slateroom-agent/internal/review"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State       string       `json:"state"`
	LastError   string       `json:"last_error,omitempty"`
	JobsRunning int          `json:"jobs_running"`
	ActiveJob   *JobResponse `json:"active_job,omitempty"`
}

type SubmitResponse struct {
	JobID   string `json:"job_id,omitempty"`
	Warning string `json:"warning,omitempty"`
}

type JobResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Shot             string `json:"shot"`
	Task             string `json:"task,omitempty"`
	Artist           string `json:"artist,omitempty"`
	InputPath        string `json:"input_path"`
	OutputPath       string `json:"output_path"`
	FirstFrame       int    `json:"first_frame"`
	LastFrame        int    `json:"last_frame"`
	Version          int    `json:"version"`
	Stage            string `json:"stage,omitempty"`
	Progress         int    `json:"progress"`
	Error            string `json:"error,omitempty"`
	TrackerVersionID string `json:"tracker_version_id,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type DerivativeResponse struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

type DerivativesResponse struct {
	Derivatives []DerivativeResponse `json:"derivatives"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func JobToResponse(j *review.Job) JobResponse {
	return JobResponse{
		ID:               j.ID,
		Status:           j.Status,
		Shot:             j.Shot,
		Task:             j.Task,
		Artist:           j.Artist,
		InputPath:        j.InputPath,
		OutputPath:       j.OutputPath,
		FirstFrame:       j.FirstFrame,
		LastFrame:        j.LastFrame,
		Version:          j.Version,
		Stage:            j.Stage,
		Progress:         j.Progress,
		Error:            j.Error,
		TrackerVersionID: j.TrackerVersionID,
		CreatedAt:        j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        j.UpdatedAt.Format(time.RFC3339),
	}
}

func DerivativeToResponse(d *review.Derivative) DerivativeResponse {
	return DerivativeResponse{
		ID:       d.ID,
		Kind:     d.Kind,
		Path:     d.Path,
		ExitCode: d.ExitCode,
		Error:    d.Error,
	}
}
