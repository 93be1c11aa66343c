// Package tracker is the client for the production-tracking service. It
// resolves published files and shot metadata used for burn-ins, and creates
// review Versions with uploaded movies.
package tracker

import "context"

// Published file type names recognised by the burn-in resolver.
const (
	TypeCubeFile   = "Cube File"
	TypeNukeScript = "Nuke Script"
)

// PublishedFile is a tracked, versioned file record.
type PublishedFile struct {
	ID            int    `json:"id"`
	Code          string `json:"code"`
	Type          string `json:"type"`
	LocalPath     string `json:"local_path"`
	Description   string `json:"description,omitempty"`
	VersionNumber int    `json:"version_number"`
}

// Shot holds the slate-relevant fields of a shot entity.
type Shot struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	// ClientVersion, when set, supersedes the pipeline-internal version
	// number on the slate.
	ClientVersion string `json:"client_version,omitempty"`
}

// PublishedFileQuery describes a server-side filtered published-file lookup.
// Results are always ordered by version number descending; the first match
// wins, which makes the highest-version tie-break part of the contract.
type PublishedFileQuery struct {
	Shot string
	Task string
	Type string
}

// NewVersion is the payload for creating a review Version.
type NewVersion struct {
	Project     string `json:"project"`
	Shot        string `json:"shot"`
	Task        string `json:"task,omitempty"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	FirstFrame  int    `json:"first_frame"`
	LastFrame   int    `json:"last_frame"`
	FramesPath  string `json:"frames_path,omitempty"`
	MoviePath   string `json:"movie_path,omitempty"`
}

// Version is a created review Version record.
type Version struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// Client is the tracking-service contract used by the rest of the agent.
type Client interface {
	// FindPublishedFiles returns matches ordered by version number
	// descending. A miss is an empty slice, not an error.
	FindPublishedFiles(ctx context.Context, q PublishedFileQuery) ([]PublishedFile, error)

	// GetShot returns nil without error when the shot does not exist.
	GetShot(ctx context.Context, code string) (*Shot, error)

	CreateVersion(ctx context.Context, v NewVersion) (*Version, error)

	// UploadMovie attaches a rendered movie file to an existing Version.
	UploadMovie(ctx context.Context, versionID, moviePath string) error
}
