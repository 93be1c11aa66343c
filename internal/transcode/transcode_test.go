package transcode

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/slateroom/slateroom-agent/internal/frameplan"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testPlan(t *testing.T) frameplan.Plan {
	t.Helper()
	plan, err := frameplan.Compute(1001, 1100)
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func TestOutputSet_Layout(t *testing.T) {
	set := OutputSet("/reviews/sh010/sh010_comp_v003.mov")

	dir := filepath.FromSlash("/reviews/sh010/transcodes/sh010_comp_v003")
	want := Set{
		Master:    "/reviews/sh010/sh010_comp_v003.mov",
		MP4:       filepath.Join(dir, "sh010_comp_v003.mp4"),
		WebM:      filepath.Join(dir, "sh010_comp_v003.webm"),
		Thumbnail: filepath.Join(dir, "sh010_comp_v003_thumbnail.jpg"),
		Filmstrip: filepath.Join(dir, "sh010_comp_v003_filmstrip.jpg"),
	}
	if set != want {
		t.Errorf("OutputSet = %+v, want %+v", set, want)
	}
}

func TestMP4Args(t *testing.T) {
	args := strings.Join(mp4Args("in.mov", "out.mp4", 24), " ")

	for _, want := range []string{
		"-c:v libx264", "-pix_fmt yuv420p", "-g 30", "-b:v 2000k",
		"-preset veryslow", "-bf 0", "-movflags +faststart",
		"-crf 17", "-tune zerolatency", "-c:a aac", "-r 24",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("mp4 args missing %q in %q", want, args)
		}
	}
	if !strings.HasSuffix(args, "out.mp4") {
		t.Errorf("output path must be last: %q", args)
	}
}

func TestWebMArgs(t *testing.T) {
	args := strings.Join(webmArgs("in.mov", "out.webm", 23.976), " ")

	for _, want := range []string{
		"-c:v libvpx-vp9", "-b:v 0", "-crf 17", "-threads 2", "-speed 2", "-r 23.976",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("webm args missing %q in %q", want, args)
		}
	}
}

func TestThumbnailArgs_SelectsMidpointFrame(t *testing.T) {
	args := strings.Join(thumbnailArgs("in.mov", "thumb.jpg", testPlan(t)), " ")

	if !strings.Contains(args, `scale=640:-1,select=gte(n\,50)`) {
		t.Errorf("thumbnail filter wrong: %q", args)
	}
	if !strings.Contains(args, "-frames:v 1") {
		t.Errorf("thumbnail should emit a single frame: %q", args)
	}
}

func TestFilmstripArgs_TilesSampledFrames(t *testing.T) {
	args := strings.Join(filmstripArgs("in.mov", "strip.jpg", testPlan(t)), " ")

	if !strings.Contains(args, `scale=240:-1,select=not(mod(n\,2)),tile=50x1`) {
		t.Errorf("filmstrip filter wrong: %q", args)
	}
}

func TestFilmstripArgs_ShortRangeStrideClamped(t *testing.T) {
	plan, err := frameplan.Compute(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	args := strings.Join(filmstripArgs("in.mov", "strip.jpg", plan), " ")

	// A degenerate interval must not produce mod(n\,0).
	if strings.Contains(args, `mod(n\,0)`) {
		t.Errorf("filmstrip stride not clamped: %q", args)
	}
}

func writeStubEncoder(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub encoder requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFanOut_AllDerivativesSucceed(t *testing.T) {
	bin := writeStubEncoder(t, "exit 0")
	runner := NewRunner(bin, 10*time.Second, testLogger())

	master := filepath.Join(t.TempDir(), "sh010_comp_v003.mov")
	set, results, err := runner.FanOut(context.Background(), master, 24, testPlan(t))
	if err != nil {
		t.Fatalf("FanOut() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for _, d := range results {
		if d.Err != nil || d.ExitCode != 0 {
			t.Errorf("%s: exit=%d err=%v", d.Kind, d.ExitCode, d.Err)
		}
	}
	if filepath.Dir(set.MP4) != filepath.Join(filepath.Dir(master), "transcodes", "sh010_comp_v003") {
		t.Errorf("mp4 path %q not under transcodes dir", set.MP4)
	}
	if _, err := os.Stat(filepath.Dir(set.MP4)); err != nil {
		t.Errorf("transcode dir not created: %v", err)
	}
}

func TestFanOut_FailureIsRecordedNotFatal(t *testing.T) {
	bin := writeStubEncoder(t, `echo "encoder blew up" >&2; exit 3`)
	runner := NewRunner(bin, 10*time.Second, testLogger())

	master := filepath.Join(t.TempDir(), "sh010_comp_v003.mov")
	_, results, err := runner.FanOut(context.Background(), master, 24, testPlan(t))
	if err != nil {
		t.Fatalf("FanOut() error = %v, want nil despite encode failures", err)
	}
	for _, d := range results {
		if d.ExitCode != 3 {
			t.Errorf("%s: exit code = %d, want 3", d.Kind, d.ExitCode)
		}
		if d.Err == nil {
			t.Errorf("%s: expected recorded error", d.Kind)
		}
		if !strings.Contains(d.StderrTail, "encoder blew up") {
			t.Errorf("%s: stderr tail = %q", d.Kind, d.StderrTail)
		}
	}
}
