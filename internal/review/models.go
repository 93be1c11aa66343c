// Package review owns the job lifecycle of the agent: a submitted frame
// sequence becomes a slated review movie, a set of web derivatives, and a
// Version on the tracking service.
package review

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job stages, surfaced as human-readable progress text.
const (
	StagePreparing   = "Preparing"
	StageRendering   = "Rendering movie"
	StageDerivatives = "Creating derivatives"
	StageUploading   = "Creating version and uploading"
)

// Job is one review render request and its lifecycle state.
type Job struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Shot       string `json:"shot"`
	Task       string `json:"task,omitempty"`
	Artist     string `json:"artist,omitempty"`
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	FirstFrame int    `json:"first_frame"`
	LastFrame  int    `json:"last_frame"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Colorspace string `json:"colorspace,omitempty"`
	Version    int    `json:"version"`
	Comment    string `json:"comment,omitempty"`
	Stage      string `json:"stage,omitempty"`
	Progress   int    `json:"progress"`
	Error      string `json:"error,omitempty"`
	// TrackerVersionID is set once the Version exists on the tracking
	// service.
	TrackerVersionID string    `json:"tracker_version_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Derivative records one encoder output of a completed (or attempted)
// fan-out, including the encoder's exit code.
type Derivative struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	ExitCode  int       `json:"exit_code"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewID() string {
	return uuid.NewString()
}
