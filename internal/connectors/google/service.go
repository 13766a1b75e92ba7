package google

import (
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewDriveService creates a Google Drive API service.
// Callers pass option.WithTokenSource for production use; tests pass
// option.WithEndpoint and option.WithoutAuthentication.
func NewDriveService(ctx context.Context, opts ...option.ClientOption) (*drive.Service, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}

// NewServiceAccountDriveService loads credentials from path and creates a
// Drive service authenticated as the service account.
func NewServiceAccountDriveService(ctx context.Context, path string, opts ...option.ClientOption) (*drive.Service, error) {
	ts, err := ServiceAccountTokenSource(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewDriveService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}
