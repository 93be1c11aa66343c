package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/slateroom/slateroom-agent/internal/burnin"
	"github.com/slateroom/slateroom-agent/internal/frameplan"
	"github.com/slateroom/slateroom-agent/internal/render"
	"github.com/slateroom/slateroom-agent/internal/tracker"
	"github.com/slateroom/slateroom-agent/internal/transcode"
)

// Renderer produces the master review movie. Satisfied by
// *render.Orchestrator.
type Renderer interface {
	Render(ctx context.Context, req render.Request, rec burnin.Record, profile render.WriteProfile, slate *render.SlateWrite) (string, error)
}

// Transcoder fans the master out into web derivatives. Satisfied by
// *transcode.Runner.
type Transcoder interface {
	FanOut(ctx context.Context, master string, fps float64, plan frameplan.Plan) (transcode.Set, []transcode.Derivative, error)
}

// Options are the policy knobs applied to every job.
type Options struct {
	Project         string
	Width           int
	Height          int
	Padding         int
	FallbackFPS     float64
	HostMajor       int
	UploadToTracker bool
	StoreOnDisk     bool
}

// SubmitRequest is a review render submission.
type SubmitRequest struct {
	Shot       string `json:"shot"`
	Task       string `json:"task,omitempty"`
	Artist     string `json:"artist,omitempty"`
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path,omitempty"`
	FirstFrame int    `json:"first_frame"`
	LastFrame  int    `json:"last_frame"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Colorspace string `json:"colorspace,omitempty"`
	Version    int    `json:"version"`
	Comment    string `json:"comment,omitempty"`
}

type Service struct {
	repo       Repository
	resolver   *burnin.Resolver
	renderer   Renderer
	transcoder Transcoder
	client     tracker.Client
	opts       Options
	logger     *slog.Logger
}

func NewService(repo Repository, resolver *burnin.Resolver, renderer Renderer, transcoder Transcoder, client tracker.Client, opts Options, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		resolver:   resolver,
		renderer:   renderer,
		transcoder: transcoder,
		client:     client,
		opts:       opts,
		logger:     logger,
	}
}

// Submit validates a request and queues a job. When the result-handling
// configuration discards everything (no upload, no disk copy), no job is
// created and (nil, nil) is returned; the condition is a misconfiguration
// worth a warning but not an error.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Job, error) {
	if req.Shot == "" {
		return nil, fmt.Errorf("shot is required")
	}
	if req.InputPath == "" {
		return nil, fmt.Errorf("input_path is required")
	}
	if req.LastFrame < req.FirstFrame {
		return nil, fmt.Errorf("invalid frame range %d-%d", req.FirstFrame, req.LastFrame)
	}
	if req.Version < 0 {
		return nil, fmt.Errorf("version must not be negative")
	}

	if !s.opts.UploadToTracker && !s.opts.StoreOnDisk {
		s.logger.Warn("nothing to do: both upload_to_tracker and store_on_disk are off",
			"shot", req.Shot, "input", req.InputPath)
		return nil, nil
	}

	width, height := req.Width, req.Height
	if width <= 0 {
		width = s.opts.Width
	}
	if height <= 0 {
		height = s.opts.Height
	}

	output := req.OutputPath
	if output == "" {
		output = defaultOutputPath(req.InputPath)
	}

	now := time.Now()
	job := &Job{
		ID:         NewID(),
		Status:     JobStatusPending,
		Shot:       req.Shot,
		Task:       req.Task,
		Artist:     req.Artist,
		InputPath:  req.InputPath,
		OutputPath: output,
		FirstFrame: req.FirstFrame,
		LastFrame:  req.LastFrame,
		Width:      width,
		Height:     height,
		Colorspace: req.Colorspace,
		Version:    req.Version,
		Comment:    req.Comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("review job queued",
		"job_id", job.ID, "shot", job.Shot, "frames",
		fmt.Sprintf("%d-%d", job.FirstFrame, job.LastFrame))
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) ListDerivatives(ctx context.Context, jobID string) ([]*Derivative, error) {
	return s.repo.ListDerivativesByJob(ctx, jobID)
}

// Execute runs a job through the full pipeline: resolve burn-in metadata,
// render the master, fan out derivatives, create and upload the Version.
func (s *Service) Execute(ctx context.Context, job *Job) error {
	s.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")
	s.repo.UpdateJobProgress(ctx, job.ID, 10, StagePreparing)

	rec := s.resolver.Resolve(ctx, burnin.ResolveRequest{
		Project:    s.opts.Project,
		Shot:       job.Shot,
		Task:       job.Task,
		Artist:     job.Artist,
		InputPath:  job.InputPath,
		FirstFrame: job.FirstFrame,
		LastFrame:  job.LastFrame,
		Colorspace: job.Colorspace,
		Version:    job.Version,
	})

	plan, err := frameplan.Compute(job.FirstFrame, job.LastFrame)
	if err != nil {
		return s.fail(ctx, job.ID, fmt.Sprintf("frame plan: %v", err))
	}

	slate, err := s.loadSlateWrite(ctx, job)
	if err != nil {
		s.logger.Warn("delivery profile unusable, skipping slate pass",
			"job_id", job.ID, "error", err)
	}

	s.repo.UpdateJobProgress(ctx, job.ID, 20, StageRendering)

	master, err := s.renderer.Render(ctx, render.Request{
		InputPath:  job.InputPath,
		OutputPath: job.OutputPath,
		Width:      job.Width,
		Height:     job.Height,
		FirstFrame: job.FirstFrame,
		LastFrame:  job.LastFrame,
		Colorspace: job.Colorspace,
	}, rec, render.DefaultProfile(runtime.GOOS, s.opts.HostMajor), slate)
	if err != nil {
		return s.fail(ctx, job.ID, fmt.Sprintf("render: %v", err))
	}

	s.repo.UpdateJobProgress(ctx, job.ID, 40, StageDerivatives)

	set, results, err := s.transcoder.FanOut(ctx, master, s.opts.FallbackFPS, plan)
	if err != nil {
		return s.fail(ctx, job.ID, fmt.Sprintf("transcode: %v", err))
	}
	s.recordDerivatives(ctx, job.ID, results)

	s.repo.UpdateJobProgress(ctx, job.ID, 50, StageUploading)

	if s.opts.UploadToTracker {
		if err := s.publishVersion(ctx, job, rec, master); err != nil {
			return s.fail(ctx, job.ID, fmt.Sprintf("tracker: %v", err))
		}
	}

	if !s.opts.StoreOnDisk {
		if err := os.Remove(master); err != nil {
			s.logger.Warn("could not remove master after upload",
				"job_id", job.ID, "path", master, "error", err)
		} else {
			s.logger.Info("master removed after upload", "job_id", job.ID, "path", master)
		}
	}

	s.repo.UpdateJobProgress(ctx, job.ID, 100, "")
	s.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	s.logger.Info("review job completed",
		"job_id", job.ID, "master", master, "mp4", set.MP4)
	return nil
}

func (s *Service) fail(ctx context.Context, jobID, msg string) error {
	s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, msg)
	s.logger.Error("review job failed", "job_id", jobID, "error", msg)
	return fmt.Errorf("%s", msg)
}

// recordDerivatives persists every fan-out outcome. An encode failure is a
// defect of that one derivative, visible through its exit code, and never
// fails the job.
func (s *Service) recordDerivatives(ctx context.Context, jobID string, results []transcode.Derivative) {
	for _, d := range results {
		errMsg := ""
		if d.Err != nil {
			errMsg = d.Err.Error()
		}
		rec := &Derivative{
			ID:        NewID(),
			JobID:     jobID,
			Kind:      string(d.Kind),
			Path:      d.Path,
			ExitCode:  d.ExitCode,
			Error:     errMsg,
			CreatedAt: time.Now(),
		}
		if err := s.repo.CreateDerivative(ctx, rec); err != nil {
			s.logger.Warn("could not record derivative",
				"job_id", jobID, "kind", rec.Kind, "error", err)
		}
	}
}

func (s *Service) publishVersion(ctx context.Context, job *Job, rec burnin.Record, master string) error {
	code := strings.TrimSuffix(filepath.Base(master), filepath.Ext(master))

	description := job.Comment
	if description == "" {
		description = rec.Notes
	}

	v, err := s.client.CreateVersion(ctx, tracker.NewVersion{
		Project:     s.opts.Project,
		Shot:        job.Shot,
		Task:        job.Task,
		Code:        code,
		Description: description,
		FirstFrame:  job.FirstFrame,
		LastFrame:   job.LastFrame,
		FramesPath:  job.InputPath,
		MoviePath:   master,
	})
	if err != nil {
		return fmt.Errorf("create version: %w", err)
	}

	if err := s.repo.SetJobVersionID(ctx, job.ID, v.ID); err != nil {
		s.logger.Warn("could not record version id", "job_id", job.ID, "error", err)
	}

	if err := s.client.UploadMovie(ctx, v.ID, master); err != nil {
		return fmt.Errorf("upload movie: %w", err)
	}

	s.logger.Info("version uploaded", "job_id", job.ID, "version_id", v.ID, "code", code)
	return nil
}

// deliveryProfile is the stored shape of a per-delivery write configuration,
// kept in the config table under "delivery_profile:<output basename>".
type deliveryProfile struct {
	Path       string            `json:"path"`
	FileType   string            `json:"file_type"`
	Knobs      map[string]string `json:"knobs,omitempty"`
	Colorspace string            `json:"colorspace,omitempty"`
}

func deliveryProfileKey(outputPath string) string {
	return "delivery_profile:" + filepath.Base(outputPath)
}

// loadSlateWrite returns the optional slate pass reusing a stored delivery
// write configuration, or nil when none is stored for this output.
func (s *Service) loadSlateWrite(ctx context.Context, job *Job) (*render.SlateWrite, error) {
	raw, err := s.repo.GetConfig(ctx, deliveryProfileKey(job.OutputPath))
	if err != nil || raw == "" {
		return nil, err
	}

	var p deliveryProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("parse delivery profile: %w", err)
	}

	slate := &render.SlateWrite{
		Path: p.Path,
		Profile: render.WriteProfile{
			FileType:   p.FileType,
			Knobs:      p.Knobs,
			Colorspace: p.Colorspace,
		},
	}
	if err := slate.Profile.Validate(); err != nil {
		return nil, err
	}
	return slate, nil
}

// defaultOutputPath places the movie next to the frames, named after the
// sequence. "sh010_comp_v003.%04d.exr" becomes "sh010_comp_v003.mov".
func defaultOutputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return filepath.Join(filepath.Dir(inputPath), base+".mov")
}
