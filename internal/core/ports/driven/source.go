package driven

import (
	"context"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// DocumentSource abstracts a remote folder-backed file store.
// All operations may be slow and paginate internally; callers always see
// flattened results.
type DocumentSource interface {
	// Name identifies the source implementation (e.g. "gdrive", "filesystem").
	Name() string

	// ValidateFolder checks the folder exists and is readable.
	// Returns an error wrapping domain.ErrConfiguration for client-fixable problems.
	ValidateFolder(ctx context.Context, folderID string) error

	// StartToken returns a fresh continuation token representing "now" for
	// folderID. Sources with a global change feed may ignore the folder.
	StartToken(ctx context.Context, folderID string) (string, error)

	// ListFolderFiles returns every non-trashed file directly inside the folder.
	ListFolderFiles(ctx context.Context, folderID string) ([]domain.FileDescriptor, error)

	// ListChangesSince returns the changes reported after token, classified
	// against folderID. Files moved out of the folder are reported as removed.
	// NextToken is the token issued by the final page, or token itself when
	// the source issued none.
	ListChangesSince(ctx context.Context, folderID, token string) (*domain.ChangeSet, error)

	// DownloadContent returns the plain-text content of a file.
	// ok is false for unsupported formats, which is not an error.
	DownloadContent(ctx context.Context, file domain.FileDescriptor) (text string, ok bool, err error)
}
