// Package watcher polls a drop directory for frame sequences and submits
// each one as a review job once it has settled (two consecutive polls with
// no new frames, growth, or writes).
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/slateroom/slateroom-agent/internal/review"
)

// Submitter queues review jobs. Satisfied by *review.Service.
type Submitter interface {
	Submit(ctx context.Context, req review.SubmitRequest) (*review.Job, error)
}

// frameFile matches "<name>.<frame>.<ext>" sequence members.
var frameFile = regexp.MustCompile(`^(.+)\.(\d+)\.([A-Za-z0-9]+)$`)

// versionToken matches a trailing "_v<digits>" in a sequence name.
var versionToken = regexp.MustCompile(`_v(\d+)$`)

var frameExtensions = map[string]bool{
	"exr": true,
	"dpx": true,
	"tif": true,
	"png": true,
	"jpg": true,
}

// sequence is one frame sequence found in the watch directory.
type sequence struct {
	name       string // base name without frame number or extension
	ext        string
	padWidth   int
	firstFrame int
	lastFrame  int
	frameCount int
	totalSize  int64
	latestMod  time.Time
}

// signature changes whenever frames are added, removed, or rewritten.
func (s *sequence) signature() string {
	return fmt.Sprintf("%d:%d:%d:%d:%d",
		s.frameCount, s.firstFrame, s.lastFrame, s.totalSize, s.latestMod.UnixNano())
}

func (s *sequence) inputPath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%%0%dd.%s", s.name, s.padWidth, s.ext))
}

type Watcher struct {
	dir          string
	submitter    Submitter
	logger       *slog.Logger
	pollInterval time.Duration

	lastSeen  map[string]string
	submitted map[string]bool
}

func New(dir string, submitter Submitter, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:          dir,
		submitter:    submitter,
		logger:       logger,
		pollInterval: 10 * time.Second,
		lastSeen:     make(map[string]string),
		submitted:    make(map[string]bool),
	}
}

func (w *Watcher) Start(ctx context.Context) {
	w.logger.Info("sequence watcher started", "dir", w.dir)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sequence watcher stopping")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll scans the watch directory and submits every sequence whose signature
// has not changed since the previous poll.
func (w *Watcher) poll(ctx context.Context) {
	sequences, err := scanSequences(w.dir)
	if err != nil {
		w.logger.Error("watch directory scan failed", "dir", w.dir, "error", err)
		return
	}

	for name, seq := range sequences {
		if w.submitted[name] {
			continue
		}

		sig := seq.signature()
		if w.lastSeen[name] != sig {
			w.lastSeen[name] = sig
			continue
		}

		w.submitSequence(ctx, seq)
		w.submitted[name] = true
	}

	// Forget sequences that disappeared so a re-drop is picked up again.
	for name := range w.lastSeen {
		if _, ok := sequences[name]; !ok {
			delete(w.lastSeen, name)
			delete(w.submitted, name)
		}
	}
}

func (w *Watcher) submitSequence(ctx context.Context, seq *sequence) {
	req := review.SubmitRequest{
		Shot:       shotForSequence(seq.name),
		Task:       taskForSequence(seq.name),
		InputPath:  seq.inputPath(w.dir),
		FirstFrame: seq.firstFrame,
		LastFrame:  seq.lastFrame,
		Version:    versionForSequence(seq.name),
	}

	job, err := w.submitter.Submit(ctx, req)
	if err != nil {
		w.logger.Error("could not submit watched sequence",
			"sequence", seq.name, "error", err)
		return
	}
	if job == nil {
		w.logger.Warn("watched sequence skipped", "sequence", seq.name)
		return
	}

	w.logger.Info("watched sequence submitted",
		"sequence", seq.name, "job_id", job.ID,
		"frames", fmt.Sprintf("%d-%d", seq.firstFrame, seq.lastFrame))
}

func scanSequences(dir string) (map[string]*sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	sequences := make(map[string]*sequence)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := frameFile.FindStringSubmatch(e.Name())
		if m == nil || !frameExtensions[strings.ToLower(m[3])] {
			continue
		}

		frame, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		seq, ok := sequences[m[1]]
		if !ok {
			seq = &sequence{
				name:       m[1],
				ext:        m[3],
				padWidth:   len(m[2]),
				firstFrame: frame,
				lastFrame:  frame,
			}
			sequences[m[1]] = seq
		}

		if frame < seq.firstFrame {
			seq.firstFrame = frame
		}
		if frame > seq.lastFrame {
			seq.lastFrame = frame
		}
		seq.frameCount++
		seq.totalSize += info.Size()
		if info.ModTime().After(seq.latestMod) {
			seq.latestMod = info.ModTime()
		}
	}
	return sequences, nil
}

// shotForSequence takes the leading underscore token: "sh010_comp_v003"
// names shot sh010.
func shotForSequence(name string) string {
	if i := strings.Index(name, "_"); i > 0 {
		return name[:i]
	}
	return name
}

// taskForSequence takes the middle tokens between shot and version:
// "sh010_comp_v003" names task comp.
func taskForSequence(name string) string {
	trimmed := versionToken.ReplaceAllString(name, "")
	parts := strings.SplitN(trimmed, "_", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func versionForSequence(name string) int {
	m := versionToken.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	v, _ := strconv.Atoi(m[1])
	return v
}
