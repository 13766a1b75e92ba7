// Package filesystem provides a DocumentSource over a local directory.
// It is intended for offline use and development: the folder ID is a
// directory path and continuation tokens are manifests of file fingerprints.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// SourceName identifies the filesystem source.
const SourceName = "filesystem"

// DefaultMaxFileSize skips files larger than this many bytes.
const DefaultMaxFileSize = 20 * 1024 * 1024

// Source is a DocumentSource over the regular files directly inside a
// directory. Hidden files are ignored.
type Source struct {
	extractors  driven.ExtractorRegistry
	maxFileSize int64
}

// New creates a filesystem source.
func New(extractors driven.ExtractorRegistry) *Source {
	return &Source{
		extractors:  extractors,
		maxFileSize: DefaultMaxFileSize,
	}
}

// Name returns the source identifier.
func (s *Source) Name() string {
	return SourceName
}

// ValidateFolder checks folderID is a readable directory.
func (s *Source) ValidateFolder(_ context.Context, folderID string) error {
	if folderID == "" {
		return domain.ErrFolderRequired
	}
	info, err := os.Stat(folderID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: folder %s does not exist", domain.ErrConfiguration, folderID)
		}
		return fmt.Errorf("%w: stat %s: %w", domain.ErrConfiguration, folderID, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrConfiguration, folderID)
	}
	return nil
}

// StartToken returns the manifest of the folder as it is now.
func (s *Source) StartToken(ctx context.Context, folderID string) (string, error) {
	m, _, err := s.scan(ctx, folderID)
	if err != nil {
		return "", err
	}
	return m.encode(), nil
}

// ListFolderFiles returns every visible regular file in the folder, sorted by name.
func (s *Source) ListFolderFiles(ctx context.Context, folderID string) ([]domain.FileDescriptor, error) {
	_, files, err := s.scan(ctx, folderID)
	return files, err
}

// ListChangesSince diffs the folder against the manifest in token. Files
// whose size, modification time or content hash changed are updates; files
// no longer present are removals.
func (s *Source) ListChangesSince(ctx context.Context, folderID, token string) (*domain.ChangeSet, error) {
	prev, err := decodeManifest(token)
	if err != nil {
		return nil, err
	}

	current, files, err := s.scan(ctx, folderID)
	if err != nil {
		return nil, err
	}

	set := &domain.ChangeSet{NextToken: current.encode()}
	for i := range files {
		f := files[i]
		old, ok := prev.Files[f.Name]
		if ok && old == current.Files[f.Name] {
			continue
		}
		set.Classify(folderID, domain.Change{FileID: f.ID, File: &f})
	}

	var removed []string
	for name := range prev.Files {
		if _, ok := current.Files[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	for _, name := range removed {
		set.Classify(folderID, domain.Change{FileID: documentID(folderID, name), Removed: true})
	}

	return set, nil
}

// DownloadContent reads and extracts the file's text.
func (s *Source) DownloadContent(ctx context.Context, file domain.FileDescriptor) (string, bool, error) {
	if !s.extractors.Supports(file.MimeType) {
		logger.Debug("filesystem: skipping unsupported mime type %s for %s", file.MimeType, file.ID)
		return "", false, nil
	}
	if file.Size > s.maxFileSize {
		logger.Debug("filesystem: skipping %s: %d bytes exceeds limit", file.ID, file.Size)
		return "", false, nil
	}

	data, err := os.ReadFile(file.ID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", file.ID, err)
	}

	text, err := s.extractors.Extract(ctx, file.MimeType, data)
	if err != nil {
		logger.Warn("filesystem: extract %s: %v", file.ID, err)
		return "", false, nil
	}
	return text, true, nil
}

// scan fingerprints every visible regular file directly inside folderID.
func (s *Source) scan(ctx context.Context, folderID string) (*manifest, []domain.FileDescriptor, error) {
	if err := s.ValidateFolder(ctx, folderID); err != nil {
		return nil, nil, err
	}

	entries, err := os.ReadDir(folderID)
	if err != nil {
		return nil, nil, fmt.Errorf("read folder %s: %w", folderID, err)
	}

	m := &manifest{Version: manifestVersion, Folder: folderID, Files: make(map[string]entry, len(entries))}
	files := make([]domain.FileDescriptor, 0, len(entries))

	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if isHidden(de.Name()) || !de.Type().IsRegular() {
			continue
		}

		info, err := de.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, nil, fmt.Errorf("stat %s: %w", de.Name(), err)
		}

		path := documentID(folderID, de.Name())
		sum, err := hashFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, nil, err
		}

		m.Files[de.Name()] = entry{Size: info.Size(), ModTime: info.ModTime().UnixNano(), SHA256: sum}
		files = append(files, domain.FileDescriptor{
			ID:           path,
			Name:         de.Name(),
			MimeType:     detectMIMEType(de.Name()),
			ModifiedTime: info.ModTime().UTC().Format(time.RFC3339),
			Checksum:     sum,
			Revision:     strconv.FormatInt(info.ModTime().UnixNano(), 10),
			Parents:      []string{folderID},
			Size:         info.Size(),
		})
	}

	return m, files, nil
}

// documentID is the stable identifier of a file: its path under the folder.
func documentID(folderID, name string) string {
	return filepath.Join(folderID, name)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
