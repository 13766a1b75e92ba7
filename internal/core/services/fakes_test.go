package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// fakeSource is an in-memory DocumentSource. Tokens are "t<n>" where n is
// the number of changes recorded so far.
type fakeSource struct {
	mu        sync.Mutex
	folders   map[string]bool
	files     map[string]domain.FileDescriptor
	contents  map[string]string
	changes   []domain.Change
	listErr   error
	changeErr error
	downloads int
}

var _ driven.DocumentSource = (*fakeSource)(nil)

func newFakeSource(folders ...string) *fakeSource {
	s := &fakeSource{
		folders:  make(map[string]bool),
		files:    make(map[string]domain.FileDescriptor),
		contents: make(map[string]string),
	}
	for _, f := range folders {
		s.folders[f] = true
	}
	return s
}

// put adds or updates a file and records the change.
func (s *fakeSource) put(folderID, id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fd := domain.FileDescriptor{
		ID:       id,
		Name:     id + ".txt",
		MimeType: "text/plain",
		Parents:  []string{folderID},
		Revision: fmt.Sprintf("r%d", len(s.changes)+1),
	}
	s.files[id] = fd
	s.contents[id] = text
	copyFD := fd
	s.changes = append(s.changes, domain.Change{FileID: id, File: &copyFD})
}

// move reparents a file and records the change.
func (s *fakeSource) move(id, newParent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fd := s.files[id]
	fd.Parents = []string{newParent}
	s.files[id] = fd
	copyFD := fd
	s.changes = append(s.changes, domain.Change{FileID: id, File: &copyFD})
}

// remove deletes a file and records the change.
func (s *fakeSource) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, id)
	delete(s.contents, id)
	s.changes = append(s.changes, domain.Change{FileID: id, Removed: true})
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) ValidateFolder(_ context.Context, folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.folders[folderID] {
		return fmt.Errorf("%w: folder %s not found", domain.ErrConfiguration, folderID)
	}
	return nil
}

func (s *fakeSource) StartToken(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("t%d", len(s.changes)), nil
}

func (s *fakeSource) ListFolderFiles(_ context.Context, folderID string) ([]domain.FileDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.FileDescriptor
	for _, fd := range s.files {
		if fd.HasParent(folderID) {
			out = append(out, fd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeSource) ListChangesSince(_ context.Context, folderID, token string) (*domain.ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.changeErr != nil {
		return nil, s.changeErr
	}
	var from int
	if _, err := fmt.Sscanf(token, "t%d", &from); err != nil || from > len(s.changes) {
		return nil, domain.ErrInvalidToken
	}
	set := &domain.ChangeSet{NextToken: fmt.Sprintf("t%d", len(s.changes))}
	for _, c := range s.changes[from:] {
		set.Classify(folderID, c)
	}
	return set, nil
}

func (s *fakeSource) DownloadContent(_ context.Context, file domain.FileDescriptor) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads++
	text, ok := s.contents[file.ID]
	if !ok || text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// failingEmbedder always fails.
type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding backend down")
}
func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding backend down")
}
func (failingEmbedder) Dimensions() int            { return 0 }
func (failingEmbedder) ModelName() string          { return "failing" }
func (failingEmbedder) Ping(context.Context) error { return errors.New("down") }
func (failingEmbedder) Close() error               { return nil }
