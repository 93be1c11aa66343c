package tracker

import (
	"context"
	"log/slog"
)

// StubClient satisfies Client without a configured tracking service. All
// lookups miss, so burn-ins degrade to blank fields and version creation is
// a logged no-op.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (c *StubClient) FindPublishedFiles(ctx context.Context, q PublishedFileQuery) ([]PublishedFile, error) {
	c.logger.Info("tracker stub: published file query", "shot", q.Shot, "type", q.Type)
	return nil, nil
}

func (c *StubClient) GetShot(ctx context.Context, code string) (*Shot, error) {
	c.logger.Info("tracker stub: shot lookup", "shot", code)
	return nil, nil
}

func (c *StubClient) CreateVersion(ctx context.Context, v NewVersion) (*Version, error) {
	c.logger.Info("tracker stub: version creation requested", "shot", v.Shot, "code", v.Code)
	return &Version{ID: "stub-version-id", Code: v.Code}, nil
}

func (c *StubClient) UploadMovie(ctx context.Context, versionID, moviePath string) error {
	c.logger.Info("tracker stub: movie upload requested", "version_id", versionID, "path", moviePath)
	return nil
}
