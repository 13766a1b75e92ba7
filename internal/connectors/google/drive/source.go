package drive

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/kbsync/internal/connectors/google"
	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// SourceName identifies the Drive source in chunk records and logs.
const SourceName = "gdrive"

// Source is a DocumentSource over a Google Drive folder.
type Source struct {
	svc        *drive.Service
	extractors driven.ExtractorRegistry
	limiter    *google.RateLimiter
	cfg        *Config
}

// New creates a Drive source. A nil cfg uses DefaultConfig.
func New(svc *drive.Service, extractors driven.ExtractorRegistry, cfg *Config) (*Source, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{
		svc:        svc,
		extractors: extractors,
		limiter:    google.NewRateLimiterWithConfig(cfg.RateLimit),
		cfg:        cfg,
	}, nil
}

// Name returns the source identifier.
func (s *Source) Name() string {
	return SourceName
}

// ValidateFolder checks the folder exists, is a folder, and is visible to
// the service account.
func (s *Source) ValidateFolder(ctx context.Context, folderID string) error {
	if folderID == "" {
		return domain.ErrFolderRequired
	}

	var f *drive.File
	err := s.limiter.Do(ctx, func() error {
		var callErr error
		f, callErr = s.svc.Files.Get(folderID).
			Fields("id, name, mimeType, trashed").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return callErr
	})
	if err != nil {
		if google.IsNotFound(err) {
			return fmt.Errorf("%w: folder %s not found or not shared with the service account",
				domain.ErrConfiguration, folderID)
		}
		return fmt.Errorf("validate folder %s: %w", folderID, err)
	}

	if f.MimeType != MimeTypeFolder {
		return fmt.Errorf("%w: %s is not a folder (%s)", domain.ErrConfiguration, folderID, f.MimeType)
	}
	if f.Trashed {
		return fmt.Errorf("%w: folder %s is in the trash", domain.ErrConfiguration, folderID)
	}
	return nil
}

// StartToken returns a cursor for the current Drive changes position.
// The Drive change feed is account-wide, so folderID is not used.
func (s *Source) StartToken(ctx context.Context, _ string) (string, error) {
	var resp *drive.StartPageToken
	err := s.limiter.Do(ctx, func() error {
		var callErr error
		resp, callErr = s.svc.Changes.GetStartPageToken().SupportsAllDrives(true).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("get start page token: %w", err)
	}
	return NewCursor(resp.StartPageToken).Encode(), nil
}

// ListFolderFiles returns every non-trashed, non-folder file directly inside
// folderID, following pagination.
func (s *Source) ListFolderFiles(ctx context.Context, folderID string) ([]domain.FileDescriptor, error) {
	if folderID == "" {
		return nil, domain.ErrFolderRequired
	}

	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))
	var files []domain.FileDescriptor
	pageToken := ""

	for {
		var resp *drive.FileList
		err := s.limiter.Do(ctx, func() error {
			call := s.svc.Files.List().
				Q(query).
				PageSize(s.cfg.PageSize).
				Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
				IncludeItemsFromAllDrives(true).
				SupportsAllDrives(true).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var callErr error
			resp, callErr = call.Do()
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("list folder %s: %w", folderID, err)
		}

		for _, f := range resp.Files {
			if f.MimeType == MimeTypeFolder {
				continue
			}
			files = append(files, toDescriptor(f))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return files, nil
		}
	}
}

// ListChangesSince lists every change page after token and classifies each
// change against folderID. The next token is the final page's
// newStartPageToken, or token itself when Drive issued none.
func (s *Source) ListChangesSince(ctx context.Context, folderID, token string) (*domain.ChangeSet, error) {
	if folderID == "" {
		return nil, domain.ErrFolderRequired
	}

	cursor, err := DecodeCursor(token)
	if err != nil {
		return nil, err
	}

	set := &domain.ChangeSet{NextToken: token}
	pageToken := cursor.PageToken

	for {
		var resp *drive.ChangeList
		err := s.limiter.Do(ctx, func() error {
			var callErr error
			resp, callErr = s.svc.Changes.List(pageToken).
				Spaces("drive").
				PageSize(s.cfg.PageSize).
				Fields(googleapi.Field("nextPageToken, newStartPageToken, changes(fileId, removed, changeType, file(" + fileFields + "))")).
				IncludeItemsFromAllDrives(true).
				SupportsAllDrives(true).
				IncludeRemoved(true).
				Context(ctx).
				Do()
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("list changes: %w", err)
		}

		for _, c := range resp.Changes {
			change, ok := toChange(c)
			if !ok {
				continue
			}
			set.Classify(folderID, change)
		}

		if resp.NextPageToken == "" {
			if resp.NewStartPageToken != "" {
				set.NextToken = NewCursor(resp.NewStartPageToken).Encode()
			}
			return set, nil
		}
		pageToken = resp.NextPageToken
	}
}

// toChange converts a Drive change. Shared-drive level changes and folder
// updates carry no document content and are dropped.
func toChange(c *drive.Change) (domain.Change, bool) {
	if c.ChangeType == "drive" {
		return domain.Change{}, false
	}

	change := domain.Change{FileID: c.FileId, Removed: c.Removed}
	if c.File != nil {
		if c.File.MimeType == MimeTypeFolder && !c.Removed && !c.File.Trashed {
			return domain.Change{}, false
		}
		if c.File.Trashed {
			change.Removed = true
		}
		fd := toDescriptor(c.File)
		change.File = &fd
	}
	return change, true
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
