package google

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// ServiceAccountTokenSource loads a service-account key file and returns a
// token source scoped to read-only Drive access.
// A missing or malformed key file is a configuration error.
func ServiceAccountTokenSource(ctx context.Context, path string) (oauth2.TokenSource, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: service account file path is not set", domain.ErrConfiguration)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: Service account file not found at %s", domain.ErrConfiguration, path)
		}
		return nil, fmt.Errorf("%w: read service account file: %w", domain.ErrConfiguration, err)
	}

	cfg, err := googleoauth.JWTConfigFromJSON(data, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse service account file: %w", domain.ErrConfiguration, err)
	}

	return cfg.TokenSource(ctx), nil
}
