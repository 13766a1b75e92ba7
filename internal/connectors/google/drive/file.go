package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/kbsync/internal/connectors/google"
	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/logger"
	"github.com/custodia-labs/kbsync/internal/normalisers/plaintext"
)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// fileFields is the partial response selector for file metadata.
const fileFields = "id, name, mimeType, modifiedTime, md5Checksum, headRevisionId, parents, size, trashed"

// exportMIME returns the conversion format for Workspace files.
func exportMIME(mimeType string) (string, bool) {
	switch mimeType {
	case MimeTypeGoogleDoc, MimeTypeGoogleSlides:
		return ExportMimeText, true
	case MimeTypeGoogleSheet:
		return ExportMimeCSV, true
	default:
		return "", false
	}
}

// toDescriptor converts a Drive file to a domain descriptor.
func toDescriptor(f *drive.File) domain.FileDescriptor {
	return domain.FileDescriptor{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Checksum:     f.Md5Checksum,
		Revision:     f.HeadRevisionId,
		Parents:      f.Parents,
		Size:         f.Size,
	}
}

// DownloadContent returns the text of a file. Workspace files are exported,
// text files are downloaded directly and other supported formats go through
// the extractor registry. Unsupported or oversized files, API errors on a
// single file and extraction failures all yield ok=false.
func (s *Source) DownloadContent(ctx context.Context, file domain.FileDescriptor) (string, bool, error) {
	if file.ID == "" || file.MimeType == "" {
		return "", false, nil
	}

	if file.Size > s.cfg.MaxDownloadSize {
		logger.Debug("drive: skipping %s (%s): %d bytes exceeds limit", file.Name, file.ID, file.Size)
		return "", false, nil
	}

	if target, ok := exportMIME(file.MimeType); ok {
		data, err := s.fetch(ctx, func() (*http.Response, error) {
			return s.svc.Files.Export(file.ID, target).Context(ctx).Download()
		})
		if err != nil {
			return skipOnAPIError(file, err)
		}
		return plaintext.Decode(data), true, nil
	}

	if !s.extractors.Supports(file.MimeType) {
		logger.Debug("drive: skipping unsupported mime type %s for file %s", file.MimeType, file.ID)
		return "", false, nil
	}

	data, err := s.fetch(ctx, func() (*http.Response, error) {
		return s.svc.Files.Get(file.ID).SupportsAllDrives(true).Context(ctx).Download()
	})
	if err != nil {
		return skipOnAPIError(file, err)
	}

	text, err := s.extractors.Extract(ctx, file.MimeType, data)
	if err != nil {
		logger.Warn("drive: extract %s (%s): %v", file.Name, file.ID, err)
		return "", false, nil
	}
	return text, true, nil
}

// fetch performs a rate-limited download and reads the body up to the size limit.
func (s *Source) fetch(ctx context.Context, do func() (*http.Response, error)) ([]byte, error) {
	var resp *http.Response
	err := s.limiter.Do(ctx, func() error {
		var callErr error
		resp, callErr = do()
		return callErr
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxDownloadSize {
		return nil, errTooLarge
	}
	return data, nil
}

var errTooLarge = errors.New("drive: content exceeds download limit")

// skipOnAPIError treats a per-file API failure as "no content" so one bad
// file does not fail the cycle. Rate limits and transport errors still do.
func skipOnAPIError(file domain.FileDescriptor, err error) (string, bool, error) {
	if errors.Is(err, errTooLarge) {
		logger.Debug("drive: skipping %s (%s): %v", file.Name, file.ID, err)
		return "", false, nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && !google.IsRateLimited(err) {
		logger.Warn("drive: failed to download file %s: %v", file.ID, err)
		return "", false, nil
	}
	return "", false, fmt.Errorf("download %s: %w", file.ID, err)
}
