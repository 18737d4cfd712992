package domain

import (
	"path"
	"strings"
	"time"
)

// NormalizeBlobID converts separators to slashes and cleans the path.
// A trailing slash, which marks a directory ID, is preserved.
func NormalizeBlobID(id string) string {
	id = strings.ReplaceAll(id, "\\", "/")
	dir := strings.HasSuffix(id, "/")
	cleaned := strings.TrimPrefix(path.Clean("/"+id), "/")
	if dir && cleaned != "" {
		cleaned += "/"
	}
	return cleaned
}

// IsDirBlobID reports whether id names a directory.
func IsDirBlobID(id string) bool {
	return strings.HasSuffix(id, "/")
}

// BlobIDInDir reports whether id sits under dir. When recursive is false only
// direct children match.
func BlobIDInDir(id, dir string, recursive bool) bool {
	if dir != "" && !IsDirBlobID(dir) {
		dir += "/"
	}
	rest, ok := strings.CutPrefix(id, dir)
	if !ok || rest == "" {
		return false
	}
	return recursive || !strings.Contains(strings.TrimSuffix(rest, "/"), "/")
}

// FileStat is the metadata used to decide whether a file changed.
type FileStat struct {
	ModTime time.Time
	Size    int64
}

// Same reports whether both stats describe the same file state.
func (s FileStat) Same(other FileStat) bool {
	return s.Size == other.Size && s.ModTime.Equal(other.ModTime)
}
