package filesystem

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// manifestVersion is the current token format version.
const manifestVersion = 1

// ErrInvalidToken indicates the token is not a filesystem manifest.
var ErrInvalidToken = fmt.Errorf("filesystem: invalid token: %w", domain.ErrInvalidToken)

// entry is the fingerprint of one file at token time.
type entry struct {
	Size    int64  `json:"s"`
	ModTime int64  `json:"m"`
	SHA256  string `json:"h"`
}

// manifest is the token payload: every file in the folder keyed by name.
type manifest struct {
	Version int              `json:"v"`
	Folder  string           `json:"f"`
	Files   map[string]entry `json:"files"`
}

func (m *manifest) encode() string {
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

func decodeManifest(token string) (*manifest, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, ErrInvalidToken
	}
	if m.Version != manifestVersion {
		return nil, ErrInvalidToken
	}
	if m.Files == nil {
		m.Files = map[string]entry{}
	}
	return &m, nil
}
