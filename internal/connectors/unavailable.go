package connectors

import (
	"context"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// unavailableSource stands in for a source whose credentials could not be
// loaded. Every call returns the original configuration error, so register
// and reindex report it to the caller while the rest of the service runs.
type unavailableSource struct {
	name string
	err  error
}

func (s *unavailableSource) Name() string { return s.name }

func (s *unavailableSource) ValidateFolder(context.Context, string) error { return s.err }

func (s *unavailableSource) StartToken(context.Context, string) (string, error) {
	return "", s.err
}

func (s *unavailableSource) ListFolderFiles(context.Context, string) ([]domain.FileDescriptor, error) {
	return nil, s.err
}

func (s *unavailableSource) ListChangesSince(context.Context, string, string) (*domain.ChangeSet, error) {
	return nil, s.err
}

func (s *unavailableSource) DownloadContent(context.Context, domain.FileDescriptor) (string, bool, error) {
	return "", false, s.err
}
