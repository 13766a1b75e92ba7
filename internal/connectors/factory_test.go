package connectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/normalisers"
)

func TestNewSource_Filesystem(t *testing.T) {
	src, err := NewSource(context.Background(), SourceSettings{Kind: "filesystem"}, normalisers.NewDefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, "filesystem", src.Name())
}

func TestNewSource_DriveMissingServiceAccount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	src, err := NewSource(context.Background(), SourceSettings{ServiceAccountFile: path}, normalisers.NewDefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, "gdrive", src.Name())

	ctx := context.Background()
	err = src.ValidateFolder(ctx, "folder")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "Service account file not found at "+path)

	_, err = src.StartToken(ctx, "folder")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, err = src.ListFolderFiles(ctx, "folder")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, err = src.ListChangesSince(ctx, "folder", "token")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, ok, err := src.DownloadContent(ctx, domain.FileDescriptor{ID: "f"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.False(t, ok)
}

func TestNewSource_DriveMalformedServiceAccount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	src, err := NewSource(context.Background(), SourceSettings{ServiceAccountFile: path}, normalisers.NewDefaultRegistry())
	require.NoError(t, err)
	assert.ErrorIs(t, src.ValidateFolder(context.Background(), "folder"), domain.ErrConfiguration)
}

func TestNewSource_UnknownKind(t *testing.T) {
	_, err := NewSource(context.Background(), SourceSettings{Kind: "dropbox"}, normalisers.NewDefaultRegistry())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []string{"gdrive", "filesystem"}, Kinds())
}
