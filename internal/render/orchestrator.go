package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/slateroom/slateroom-agent/internal/burnin"
)

const maxStderrBytes = 8 * 1024 // tail of host stderr kept for diagnostics

// Config holds the orchestrator's settings.
type Config struct {
	HostBin        string // compositing host binary, run in terminal mode
	ScratchDir     string // base dir for ephemeral render scripts
	BurninTemplate string // overlay/slate template pasted into the graph
	SlateLogo      string // optional logo image, empty for none
	RenderTimeout  time.Duration
	Logger         *slog.Logger
}

// Orchestrator renders master review movies through the compositing host.
type Orchestrator struct {
	cfg Config
}

func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.HostBin == "" {
		return nil, fmt.Errorf("host binary not configured")
	}
	if cfg.BurninTemplate == "" {
		return nil, fmt.Errorf("burn-in template not configured")
	}
	if err := os.MkdirAll(cfg.ScratchDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create scratch dir: %w", err)
	}
	return &Orchestrator{cfg: cfg}, nil
}

// Render produces the master movie for req and returns the path written.
// The ephemeral script workspace is removed whether the render succeeds or
// fails. Host failures are fatal and propagate unmodified; there is no
// retry and no partial-output cleanup.
func (o *Orchestrator) Render(ctx context.Context, req Request, rec burnin.Record, profile WriteProfile, slate *SlateWrite) (string, error) {
	if err := profile.Validate(); err != nil {
		return "", fmt.Errorf("write profile: %w", err)
	}
	if slate != nil {
		if err := slate.Profile.Validate(); err != nil {
			return "", fmt.Errorf("slate write profile: %w", err)
		}
	}

	outPath := writePath(req)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("cannot create output dir: %w", err)
	}

	scratch := filepath.Join(o.cfg.ScratchDir, uuid.NewString())
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return "", fmt.Errorf("cannot create render workspace: %w", err)
	}
	defer os.RemoveAll(scratch)

	script := buildScript(req, rec, profile, slate, o.cfg.BurninTemplate, o.cfg.SlateLogo)
	scriptPath := filepath.Join(scratch, "render.py")
	if err := os.WriteFile(scriptPath, []byte(script), 0644); err != nil {
		return "", fmt.Errorf("cannot write render script: %w", err)
	}

	if req.ProxyMode {
		o.cfg.Logger.Info("proxy mode is on, rendering proxy", "proxy_path", req.ProxyPath)
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.RenderTimeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, o.cfg.HostBin, "-t", scriptPath)

	var stderrBuf bytes.Buffer
	cmd.Stderr = io.Writer(&tailWriter{w: &stderrBuf, limit: maxStderrBytes})
	cmd.Stdout = io.Discard

	o.cfg.Logger.Info("executing host render",
		"host", o.cfg.HostBin,
		"frames", fmt.Sprintf("%d-%d", req.FirstFrame, req.LastFrame),
		"output", outPath,
	)

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		o.cfg.Logger.Error("host render failed",
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", stderrBuf.String(),
		)
		return "", fmt.Errorf("host render exited %d: %s", exitCode, stderrBuf.String())
	}

	o.cfg.Logger.Info("host render complete",
		"duration_ms", elapsed.Milliseconds(),
		"output", outPath,
	)

	return outPath, nil
}

// tailWriter keeps only the last `limit` bytes written.
type tailWriter struct {
	w     *bytes.Buffer
	limit int
}

func (tw *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	tw.w.Write(p)
	if tw.w.Len() > tw.limit {
		b := tw.w.Bytes()
		tw.w.Reset()
		tw.w.Write(b[len(b)-tw.limit:])
	}
	return n, nil
}
