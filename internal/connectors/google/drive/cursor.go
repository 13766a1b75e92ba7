package drive

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// CursorVersion is the current cursor format version.
const CursorVersion = 1

// ErrInvalidCursor indicates the cursor could not be decoded.
var ErrInvalidCursor = fmt.Errorf("drive: invalid cursor format: %w", domain.ErrInvalidToken)

// Cursor wraps a Drive changes page token. The encoded form is what the
// rest of the pipeline stores as its opaque continuation token.
type Cursor struct {
	// Version is the cursor format version for future compatibility.
	Version int `json:"v"`
	// PageToken is the Drive changes page token to list from.
	PageToken string `json:"page_token"`
}

// NewCursor creates a cursor for a Drive page token.
func NewCursor(pageToken string) *Cursor {
	return &Cursor{
		Version:   CursorVersion,
		PageToken: pageToken,
	}
}

// Encode serialises the cursor to a base64 string for storage.
func (c *Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserialises a cursor from a base64 string.
// An empty string or a cursor without a page token is invalid.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, ErrInvalidCursor
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, ErrInvalidCursor
	}

	if cursor.Version < 1 || cursor.Version > CursorVersion || cursor.PageToken == "" {
		return nil, ErrInvalidCursor
	}

	return &cursor, nil
}
