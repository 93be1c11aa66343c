package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/slateroom/slateroom-agent/internal/review"
	"github.com/slateroom/slateroom-agent/internal/transcode"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Post("/jobs", submitHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Get("/jobs/{id}/derivatives", listDerivativesHandler(cfg))
		r.Get("/jobs/{id}/artifact", artifactHandler(cfg))
		r.Post("/runner/pause", pauseHandler(cfg))
		r.Post("/runner/resume", resumeHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, _ := cfg.Repository.ListJobs(r.Context(), 10)

		state := "idle"
		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""
		for _, j := range jobs {
			if j.Status == review.JobStatusRunning {
				state = "rendering"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == review.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}
		if lastError != "" && state == "idle" {
			state = "error"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:       state,
			LastError:   lastError,
			JobsRunning: jobsRunning,
			ActiveJob:   activeJob,
		})
	}
}

func submitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req review.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		job, err := cfg.Service.Submit(r.Context(), req)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if job == nil {
			WriteJSON(w, http.StatusOK, SubmitResponse{
				Warning: "nothing to do: both upload_to_tracker and store_on_disk are off",
			})
			return
		}

		WriteJSON(w, http.StatusAccepted, SubmitResponse{JobID: job.ID})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func listDerivativesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		derivatives, err := cfg.Repository.ListDerivativesByJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resp := DerivativesResponse{Derivatives: make([]DerivativeResponse, len(derivatives))}
		for i, d := range derivatives {
			resp.Derivatives[i] = DerivativeToResponse(d)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// artifactHandler streams a job's master movie or one of its derivatives.
// Paths are resolved from the job record, never from the request, so the
// endpoint cannot read arbitrary files.
func artifactHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		kind := r.URL.Query().Get("kind")
		if kind == "" {
			kind = "master"
		}

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		path := ""
		if kind == "master" {
			path = job.OutputPath
		} else {
			derivatives, err := cfg.Repository.ListDerivativesByJob(r.Context(), id)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
				return
			}
			for _, d := range derivatives {
				if d.Kind == kind && d.Error == "" {
					path = d.Path
					break
				}
			}
		}
		if path == "" {
			WriteError(w, http.StatusNotFound, "no artifact of kind "+kind, "NOT_FOUND")
			return
		}

		if err := cfg.Artifacts.ServeFile(w, r, path); err != nil {
			cfg.Logger.Error("artifact streaming error", "error", err, "job_id", id, "kind", kind)
		}
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Runner == nil {
			WriteError(w, http.StatusServiceUnavailable, "runner not available", "UNAVAILABLE")
			return
		}
		cfg.Runner.Pause()
		WriteJSON(w, http.StatusOK, map[string]string{"state": "paused"})
	}
}

func resumeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Runner == nil {
			WriteError(w, http.StatusServiceUnavailable, "runner not available", "UNAVAILABLE")
			return
		}
		cfg.Runner.Resume()
		WriteJSON(w, http.StatusOK, map[string]string{"state": "running"})
	}
}

// validArtifactKinds guards tray and CLI helpers that build artifact URLs.
var validArtifactKinds = []string{
	"master",
	string(transcode.KindMP4),
	string(transcode.KindWebM),
	string(transcode.KindThumbnail),
	string(transcode.KindFilmstrip),
}

// IsArtifactKind reports whether kind names a servable artifact.
func IsArtifactKind(kind string) bool {
	for _, k := range validArtifactKinds {
		if k == kind {
			return true
		}
	}
	return false
}
