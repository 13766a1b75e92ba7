package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/custodia-labs/kbsync/internal/connectors/google"
	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/normalisers"
)

const folderID = "folder-1"

// fakeDrive serves the subset of the Drive v3 API the source uses.
type fakeDrive struct {
	mu          sync.Mutex
	files       map[string]map[string]any
	content     map[string]string
	listPages   [][]string
	changePages map[string]map[string]any
	startToken  string
	requests    []string
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		files:       map[string]map[string]any{},
		content:     map[string]string{},
		changePages: map[string]map[string]any{},
		startToken:  "100",
	}
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/")
	q := r.URL.Query()

	switch {
	case path == "changes/startPageToken":
		writeJSON(w, map[string]any{"startPageToken": f.startToken})

	case path == "changes":
		page, ok := f.changePages[q.Get("pageToken")]
		if !ok {
			writeError(w, http.StatusGone, "Invalid page token")
			return
		}
		writeJSON(w, page)

	case path == "files":
		page := 0
		if tok := q.Get("pageToken"); tok != "" {
			page = int(tok[len(tok)-1] - '0')
		}
		var files []map[string]any
		for _, id := range f.listPages[page] {
			files = append(files, f.files[id])
		}
		resp := map[string]any{"files": files}
		if page+1 < len(f.listPages) {
			resp["nextPageToken"] = "page" + string(rune('0'+page+1))
		}
		writeJSON(w, resp)

	case strings.HasSuffix(path, "/export"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "files/"), "/export")
		body, ok := f.content[id+"|"+q.Get("mimeType")]
		if !ok {
			writeError(w, http.StatusNotFound, "File not found: "+id)
			return
		}
		_, _ = w.Write([]byte(body))

	case strings.HasPrefix(path, "files/"):
		id := strings.TrimPrefix(path, "files/")
		meta, ok := f.files[id]
		if !ok {
			writeError(w, http.StatusNotFound, "File not found: "+id)
			return
		}
		if q.Get("alt") == "media" {
			body, ok := f.content[id]
			if !ok {
				writeError(w, http.StatusForbidden, "cannotDownloadFile")
				return
			}
			_, _ = w.Write([]byte(body))
			return
		}
		writeJSON(w, meta)

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func newTestSource(t *testing.T, fake *fakeDrive) *Source {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := google.NewDriveService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.RateLimit = google.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 100}
	src, err := New(svc, normalisers.NewDefaultRegistry(), cfg)
	require.NoError(t, err)
	return src
}

func file(id, name, mime string, parents ...string) map[string]any {
	return map[string]any{
		"id":             id,
		"name":           name,
		"mimeType":       mime,
		"modifiedTime":   "2024-05-01T10:00:00.000Z",
		"md5Checksum":    "md5-" + id,
		"headRevisionId": "rev-" + id,
		"parents":        parents,
	}
}

func TestSource_Name(t *testing.T) {
	assert.Equal(t, "gdrive", newTestSource(t, newFakeDrive()).Name())
}

func TestSource_ValidateFolder(t *testing.T) {
	fake := newFakeDrive()
	fake.files[folderID] = file(folderID, "KB", MimeTypeFolder)
	fake.files["doc"] = file("doc", "notes.txt", "text/plain", folderID)
	src := newTestSource(t, fake)
	ctx := context.Background()

	assert.NoError(t, src.ValidateFolder(ctx, folderID))
	assert.ErrorIs(t, src.ValidateFolder(ctx, ""), domain.ErrFolderRequired)
	assert.ErrorIs(t, src.ValidateFolder(ctx, "missing"), domain.ErrConfiguration)
	assert.ErrorIs(t, src.ValidateFolder(ctx, "doc"), domain.ErrConfiguration)
}

func TestSource_StartToken(t *testing.T) {
	src := newTestSource(t, newFakeDrive())

	token, err := src.StartToken(context.Background(), folderID)
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "100", cursor.PageToken)
}

func TestSource_ListFolderFiles_Paginates(t *testing.T) {
	fake := newFakeDrive()
	fake.files["a"] = file("a", "a.txt", "text/plain", folderID)
	fake.files["b"] = file("b", "b.txt", "text/plain", folderID)
	fake.files["sub"] = file("sub", "sub", MimeTypeFolder, folderID)
	fake.files["c"] = file("c", "c.txt", "text/plain", folderID)
	fake.listPages = [][]string{{"a", "sub"}, {"b"}, {"c"}}
	src := newTestSource(t, fake)

	files, err := src.ListFolderFiles(context.Background(), folderID)
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{files[0].ID, files[1].ID, files[2].ID})
	assert.Equal(t, "md5-a", files[0].Checksum)
	assert.Equal(t, "rev-a", files[0].Revision)
}

func TestSource_ListChangesSince(t *testing.T) {
	fake := newFakeDrive()
	fake.changePages["100"] = map[string]any{
		"nextPageToken": "101",
		"changes": []map[string]any{
			{"fileId": "kept", "file": file("kept", "kept.txt", "text/plain", folderID)},
			{"fileId": "gone", "removed": true},
		},
	}
	fake.changePages["101"] = map[string]any{
		"newStartPageToken": "200",
		"changes": []map[string]any{
			{"fileId": "moved", "file": file("moved", "moved.txt", "text/plain", "elsewhere")},
			{"fileId": "sub", "file": file("sub", "sub", MimeTypeFolder, folderID)},
			{"fileId": "shared", "changeType": "drive"},
		},
	}
	src := newTestSource(t, fake)

	set, err := src.ListChangesSince(context.Background(), folderID, NewCursor("100").Encode())
	require.NoError(t, err)

	require.Len(t, set.Updated, 1)
	assert.Equal(t, "kept", set.Updated[0].ID)
	assert.Equal(t, []string{"gone", "moved"}, set.Removed)

	next, err := DecodeCursor(set.NextToken)
	require.NoError(t, err)
	assert.Equal(t, "200", next.PageToken)
}

func TestSource_ListChangesSince_TrashedIsRemoval(t *testing.T) {
	fake := newFakeDrive()
	trashed := file("t", "t.txt", "text/plain", folderID)
	trashed["trashed"] = true
	fake.changePages["100"] = map[string]any{
		"changes": []map[string]any{{"fileId": "t", "file": trashed}},
	}
	src := newTestSource(t, fake)

	token := NewCursor("100").Encode()
	set, err := src.ListChangesSince(context.Background(), folderID, token)
	require.NoError(t, err)

	assert.Empty(t, set.Updated)
	assert.Equal(t, []string{"t"}, set.Removed)
	assert.Equal(t, token, set.NextToken, "prior token kept when none issued")
}

func TestSource_ListChangesSince_Errors(t *testing.T) {
	src := newTestSource(t, newFakeDrive())
	ctx := context.Background()

	_, err := src.ListChangesSince(ctx, folderID, "not-a-cursor")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = src.ListChangesSince(ctx, folderID, NewCursor("expired").Encode())
	assert.ErrorIs(t, err, google.ErrSyncTokenExpired)

	_, err = src.ListChangesSince(ctx, "", NewCursor("100").Encode())
	assert.ErrorIs(t, err, domain.ErrFolderRequired)
}

func TestSource_DownloadContent(t *testing.T) {
	fake := newFakeDrive()
	fake.files["txt"] = file("txt", "notes.txt", "text/plain", folderID)
	fake.content["txt"] = "plain notes"
	fake.files["latin"] = file("latin", "latin.txt", "text/plain", folderID)
	fake.content["latin"] = string([]byte{'c', 'a', 'f', 0xE9})
	fake.files["html"] = file("html", "page.html", "text/html", folderID)
	fake.content["html"] = "<p>Hello <b>there</b></p>"
	fake.content["doc|text/plain"] = "exported doc"
	fake.content["sheet|text/csv"] = "a,b\n1,2"
	fake.content["slides|text/plain"] = "slide text"
	fake.files["locked"] = file("locked", "locked.txt", "text/plain", folderID)
	src := newTestSource(t, fake)
	ctx := context.Background()

	tests := []struct {
		name   string
		file   domain.FileDescriptor
		want   string
		wantOK bool
	}{
		{"text downloaded directly", domain.FileDescriptor{ID: "txt", MimeType: "text/plain"}, "plain notes", true},
		{"latin-1 fallback", domain.FileDescriptor{ID: "latin", MimeType: "text/plain"}, "café", true},
		{"html extracted", domain.FileDescriptor{ID: "html", MimeType: "text/html"}, "Hello there", true},
		{"doc exported as text", domain.FileDescriptor{ID: "doc", MimeType: MimeTypeGoogleDoc}, "exported doc", true},
		{"sheet exported as csv", domain.FileDescriptor{ID: "sheet", MimeType: MimeTypeGoogleSheet}, "a,b\n1,2", true},
		{"slides exported as text", domain.FileDescriptor{ID: "slides", MimeType: MimeTypeGoogleSlides}, "slide text", true},
		{"unsupported type skipped", domain.FileDescriptor{ID: "img", MimeType: "image/png"}, "", false},
		{"missing mime skipped", domain.FileDescriptor{ID: "x"}, "", false},
		{"oversized skipped", domain.FileDescriptor{ID: "txt", MimeType: "text/plain", Size: DefaultMaxDownloadSize + 1}, "", false},
		{"api error is no content", domain.FileDescriptor{ID: "locked", MimeType: "text/plain"}, "", false},
		{"export error is no content", domain.FileDescriptor{ID: "ghost", MimeType: MimeTypeGoogleDoc}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok, err := src.DownloadContent(ctx, tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(DefaultPageSize), cfg.PageSize)
	assert.Equal(t, int64(DefaultMaxDownloadSize), cfg.MaxDownloadSize)

	bad := &Config{PageSize: 5000}
	assert.ErrorIs(t, bad.Validate(), domain.ErrConfiguration)
}
