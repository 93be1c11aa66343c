// Package transcode fans a master review movie out into its web derivatives:
// an MP4, a WebM, a poster thumbnail and a filmstrip contact sheet. Each
// derivative is an independent encoder invocation; one failing does not stop
// the others, and every invocation's exit code is recorded.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/slateroom/slateroom-agent/internal/frameplan"
)

const maxStderrBytes = 4 * 1024

// Kind identifies a derivative output.
type Kind string

const (
	KindMP4       Kind = "mp4"
	KindWebM      Kind = "webm"
	KindThumbnail Kind = "thumbnail"
	KindFilmstrip Kind = "filmstrip"
)

// Set holds the output paths of one fan-out. All derivatives live under a
// transcodes/<basename>/ directory next to the master.
type Set struct {
	Master    string
	MP4       string
	WebM      string
	Thumbnail string
	Filmstrip string
}

// EncodeError reports a failed encoder invocation.
type EncodeError struct {
	Kind       Kind
	ExitCode   int
	StderrTail string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s encode exited %d: %s", e.Kind, e.ExitCode, e.StderrTail)
}

// Derivative is the outcome of one encoder invocation.
type Derivative struct {
	Kind       Kind
	Path       string
	ExitCode   int
	StderrTail string
	Err        error
	Duration   time.Duration
}

// OutputSet computes the derivative layout for a master movie path.
func OutputSet(master string) Set {
	base := strings.TrimSuffix(filepath.Base(master), filepath.Ext(master))
	dir := filepath.Join(filepath.Dir(master), "transcodes", base)
	return Set{
		Master:    master,
		MP4:       filepath.Join(dir, base+".mp4"),
		WebM:      filepath.Join(dir, base+".webm"),
		Thumbnail: filepath.Join(dir, base+"_thumbnail.jpg"),
		Filmstrip: filepath.Join(dir, base+"_filmstrip.jpg"),
	}
}

// Runner executes the encoder.
type Runner struct {
	ffmpegBin string
	timeout   time.Duration
	logger    *slog.Logger
}

func NewRunner(ffmpegBin string, timeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{ffmpegBin: ffmpegBin, timeout: timeout, logger: logger}
}

// FanOut encodes all four derivatives of master concurrently. The returned
// error covers only setup (the output directory); per-derivative failures are
// reported in the Derivative slice and never abort the other encodes.
func (r *Runner) FanOut(ctx context.Context, master string, fps float64, plan frameplan.Plan) (Set, []Derivative, error) {
	set := OutputSet(master)
	if err := os.MkdirAll(filepath.Dir(set.MP4), 0755); err != nil {
		return Set{}, nil, fmt.Errorf("cannot create transcode dir: %w", err)
	}

	jobs := []struct {
		kind Kind
		path string
		args []string
	}{
		{KindMP4, set.MP4, mp4Args(master, set.MP4, fps)},
		{KindWebM, set.WebM, webmArgs(master, set.WebM, fps)},
		{KindThumbnail, set.Thumbnail, thumbnailArgs(master, set.Thumbnail, plan)},
		{KindFilmstrip, set.Filmstrip, filmstripArgs(master, set.Filmstrip, plan)},
	}

	results := make([]Derivative, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, kind Kind, path string, args []string) {
			defer wg.Done()
			results[i] = r.encode(ctx, kind, path, args)
		}(i, job.kind, job.path, job.args)
	}
	wg.Wait()

	return set, results, nil
}

func (r *Runner) encode(ctx context.Context, kind Kind, path string, args []string) Derivative {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, r.ffmpegBin, args...)

	var stderr tailBuffer
	cmd.Stderr = &stderr
	cmd.Stdout = &tailBuffer{}

	err := cmd.Run()
	d := Derivative{
		Kind:       kind,
		Path:       path,
		StderrTail: stderr.String(),
		Duration:   time.Since(start),
	}

	if err != nil {
		d.ExitCode = -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			d.ExitCode = exitErr.ExitCode()
		}
		d.Err = &EncodeError{Kind: kind, ExitCode: d.ExitCode, StderrTail: d.StderrTail}
		r.logger.Warn("derivative encode failed",
			"kind", string(kind),
			"exit_code", d.ExitCode,
			"duration_ms", d.Duration.Milliseconds(),
			"stderr_tail", d.StderrTail,
		)
		return d
	}

	r.logger.Info("derivative encode complete",
		"kind", string(kind),
		"path", path,
		"duration_ms", d.Duration.Milliseconds(),
	)
	return d
}

func mp4Args(master, out string, fps float64) []string {
	return []string{
		"-y", "-i", master,
		"-r", formatFPS(fps),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-g", "30",
		"-b:v", "2000k",
		"-preset", "veryslow",
		"-bf", "0",
		"-movflags", "+faststart",
		"-crf", "17",
		"-tune", "zerolatency",
		"-c:a", "aac",
		out,
	}
}

func webmArgs(master, out string, fps float64) []string {
	return []string{
		"-y", "-i", master,
		"-r", formatFPS(fps),
		"-c:v", "libvpx-vp9",
		"-pix_fmt", "yuv420p",
		"-b:v", "0",
		"-crf", "17",
		"-threads", "2",
		"-speed", "2",
		out,
	}
}

func thumbnailArgs(master, out string, plan frameplan.Plan) []string {
	return []string{
		"-y", "-i", master,
		"-vf", fmt.Sprintf(`scale=640:-1,select=gte(n\,%d)`, plan.ThumbFrame),
		"-frames:v", "1",
		out,
	}
}

func filmstripArgs(master, out string, plan frameplan.Plan) []string {
	return []string{
		"-y", "-i", master,
		"-vf", fmt.Sprintf(`scale=240:-1,select=not(mod(n\,%d)),tile=%dx1`,
			plan.SampleStride(), plan.TileCount),
		"-frames:v", "1",
		out,
	}
}

func formatFPS(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

// tailBuffer keeps only the last maxStderrBytes bytes written.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if t.buf.Len() > maxStderrBytes {
		b := t.buf.Bytes()
		tail := make([]byte, maxStderrBytes)
		copy(tail, b[len(b)-maxStderrBytes:])
		t.buf.Reset()
		t.buf.Write(tail)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(t.buf.String())
}
