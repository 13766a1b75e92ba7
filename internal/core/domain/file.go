package domain

// FileDescriptor describes one file in a remote folder.
type FileDescriptor struct {
	ID           string
	Name         string
	MimeType     string
	ModifiedTime string
	Checksum     string
	Revision     string

	// Parents lists the folder IDs containing the file. Populated by change
	// listings; folder listings may leave it empty.
	Parents []string

	// Size is the content size in bytes when known.
	Size int64
}

// Metadata returns the chunk metadata derived from the descriptor.
func (f FileDescriptor) Metadata() SourceMetadata {
	return SourceMetadata{
		FileName:     f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Revision:     f.Revision,
	}
}

// HasParent reports whether folderID is among the file's parents.
func (f FileDescriptor) HasParent(folderID string) bool {
	for _, p := range f.Parents {
		if p == folderID {
			return true
		}
	}
	return false
}

// Change is one raw entry of a remote change listing.
type Change struct {
	// FileID identifies the changed file.
	FileID string

	// Removed is set when the file was deleted or access was lost.
	Removed bool

	// File is nil when the source no longer exposes the file.
	File *FileDescriptor
}

// ChangeSet is the classified result of a change listing.
type ChangeSet struct {
	// Updated holds files still inside the watched folder.
	Updated []FileDescriptor

	// Removed holds document IDs whose chunks must be dropped.
	Removed []string

	// NextToken is the continuation token for the next listing.
	NextToken string
}

// Classify sorts a change into the set relative to the watched folder.
// A removed or inaccessible file is a removal. A file that no longer lists
// folderID as a parent is also a removal, since its content should stop
// being searchable under the folder.
func (s *ChangeSet) Classify(folderID string, c Change) {
	switch {
	case c.Removed || c.File == nil:
		if c.FileID != "" {
			s.Removed = append(s.Removed, c.FileID)
		}
	case !c.File.HasParent(folderID):
		id := c.File.ID
		if id == "" {
			id = c.FileID
		}
		s.Removed = append(s.Removed, id)
	default:
		s.Updated = append(s.Updated, *c.File)
	}
}

// Empty reports whether the set carries no updates or removals.
func (s *ChangeSet) Empty() bool {
	return len(s.Updated) == 0 && len(s.Removed) == 0
}
