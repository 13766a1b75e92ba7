package connectors

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/kbsync/internal/connectors/filesystem"
	"github.com/custodia-labs/kbsync/internal/connectors/google"
	"github.com/custodia-labs/kbsync/internal/connectors/google/drive"
	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync/internal/logger"
)

// SourceSettings selects and configures a document source.
type SourceSettings struct {
	// Kind is "gdrive" or "filesystem". Empty means gdrive.
	Kind string

	// ServiceAccountFile is the Google service account JSON key path.
	ServiceAccountFile string

	// Drive tunes the Drive source. Nil uses defaults.
	Drive *drive.Config
}

// NewSource creates the source named by settings.Kind.
// Unusable Drive credentials do not fail construction: the returned source
// reports the configuration error from every call instead.
func NewSource(ctx context.Context, settings SourceSettings, extractors driven.ExtractorRegistry) (driven.DocumentSource, error) {
	switch settings.Kind {
	case "", drive.SourceName:
		svc, err := google.NewServiceAccountDriveService(ctx, settings.ServiceAccountFile)
		if errors.Is(err, domain.ErrConfiguration) {
			logger.Warn("Drive source unavailable: %v", err)
			return &unavailableSource{name: drive.SourceName, err: err}, nil
		}
		if err != nil {
			return nil, err
		}
		src, err := drive.New(svc, extractors, settings.Drive)
		if err != nil {
			return nil, err
		}
		return src, nil
	case filesystem.SourceName:
		return filesystem.New(extractors), nil
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrConfiguration, settings.Kind)
	}
}

// Kinds lists the supported source kinds.
func Kinds() []string {
	return []string{drive.SourceName, filesystem.SourceName}
}
