package burnin

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/slateroom/slateroom-agent/internal/tracker"
)

const (
	notesMaxLen = 512
	slateDate   = "01/02/06"
)

// ResolveRequest identifies the shot/task context of one review render.
type ResolveRequest struct {
	Project    string
	Shot       string
	Task       string
	Artist     string
	InputPath  string
	FirstFrame int
	LastFrame  int
	Colorspace string
	Version    int
}

// Resolver builds burn-in records from tracker lookups.
type Resolver struct {
	client  tracker.Client
	padding int
	logger  *slog.Logger
	// now is swappable for deterministic tests.
	now func() time.Time
}

func NewResolver(client tracker.Client, padding int, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:  client,
		padding: padding,
		logger:  logger,
		now:     time.Now,
	}
}

// Resolve produces a complete Record. Lookup misses yield blank fields;
// transport errors are logged and treated as misses. The returned record is
// always usable.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) Record {
	rec := Record{
		Project:    req.Project,
		Shot:       req.Shot,
		Artist:     req.Artist,
		Date:       r.now().Format(slateDate),
		FrameRange: fmt.Sprintf("%d - %d", req.FirstFrame, req.LastFrame),
		Colorspace: req.Colorspace,
	}

	rec.CubeFilePath = r.findCubeFile(ctx, req)
	rec.Notes = SanitizeText(r.findScriptNotes(ctx, req), notesMaxLen)

	version := req.Version
	if shot := r.findShot(ctx, req.Shot); shot != nil {
		rec.Description = SanitizeText(shot.Description, notesMaxLen)
		if shot.ClientVersion != "" {
			if cv, err := strconv.Atoi(shot.ClientVersion); err == nil {
				version = cv
			} else {
				r.logger.Warn("ignoring non-numeric client version",
					"shot", req.Shot, "client_version", shot.ClientVersion)
			}
		}
	}

	rec.VersionString = FormatVersionString(version, r.padding)
	rec.VersionLabel = FormatVersionLabel(req.Task, version, r.padding)

	return rec
}

// findCubeFile returns the path of the newest published color lookup table
// for the shot/task, or empty when none exists.
func (r *Resolver) findCubeFile(ctx context.Context, req ResolveRequest) string {
	files, err := r.client.FindPublishedFiles(ctx, tracker.PublishedFileQuery{
		Shot: req.Shot,
		Task: req.Task,
		Type: tracker.TypeCubeFile,
	})
	if err != nil {
		r.logger.Warn("cube file lookup failed, rendering without LUT",
			"shot", req.Shot, "error", err)
		return ""
	}
	if len(files) == 0 {
		return ""
	}

	// Results arrive ordered by version number descending; the first match
	// is the contract's highest-version tie-break.
	return strings.ReplaceAll(files[0].LocalPath, "\\", "/")
}

// findScriptNotes returns the description of the published script whose name
// matches the input sequence, or empty.
func (r *Resolver) findScriptNotes(ctx context.Context, req ResolveRequest) string {
	want := scriptNameForSequence(req.InputPath)
	if want == "" {
		return ""
	}

	files, err := r.client.FindPublishedFiles(ctx, tracker.PublishedFileQuery{
		Shot: req.Shot,
		Task: req.Task,
		Type: tracker.TypeNukeScript,
	})
	if err != nil {
		r.logger.Warn("script lookup failed, slate notes left blank",
			"shot", req.Shot, "error", err)
		return ""
	}

	for _, f := range files {
		if f.Code == want {
			r.logger.Debug("matched published script for notes", "code", want)
			return f.Description
		}
	}
	return ""
}

func (r *Resolver) findShot(ctx context.Context, code string) *tracker.Shot {
	shot, err := r.client.GetShot(ctx, code)
	if err != nil {
		r.logger.Warn("shot lookup failed, description left blank",
			"shot", code, "error", err)
		return nil
	}
	return shot
}

// scriptNameForSequence derives the published script name that produced a
// frame sequence. "sh010_comp_v003.1001.exr" maps to "sh010_comp.v003.nk":
// the trailing underscore token is the version, everything before it the
// script code.
func scriptNameForSequence(inputPath string) string {
	base := filepath.Base(inputPath)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		return ""
	}

	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return ""
	}

	code := strings.Join(parts[:len(parts)-1], "_")
	version := parts[len(parts)-1]
	return fmt.Sprintf("%s.%s.nk", code, version)
}
