// Package store persists catalog snapshots as a single JSON document on a
// go-billy filesystem.
//
// Writes go to a temporary file in the same directory which is then renamed
// over the snapshot, so a reader observes either the previous snapshot or
// the new one, never a truncated document.
package store

import (
	"encoding/json"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/catalog"
)

// DefaultFile is the snapshot file name relative to the filesystem root.
const DefaultFile = "plugins_database.json"

// FileStore implements catalog.Store over a billy filesystem.
type FileStore struct {
	fs   billy.Filesystem
	path string
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithPath sets the snapshot path relative to the filesystem root.
func WithPath(p string) Option {
	return func(s *FileStore) {
		if p != "" {
			s.path = p
		}
	}
}

// New creates a FileStore on fs. The snapshot lives at DefaultFile unless
// WithPath is given.
func New(fs billy.Filesystem, opts ...Option) *FileStore {
	s := &FileStore{
		fs:   fs,
		path: DefaultFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOS creates a FileStore rooted at dataDir on the local filesystem.
func NewOS(dataDir string, opts ...Option) *FileStore {
	return New(osfs.New(dataDir), opts...)
}

// Path returns the snapshot path relative to the filesystem root.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted snapshot. It returns (nil, nil) if no snapshot has
// been written yet.
//
// A snapshot without a version field is accepted as the current version;
// any other version is reported as corrupt. Absent optional fields load as
// their zero values.
func (s *FileStore) Load() (*catalog.Snapshot, error) {
	if _, err := s.fs.Stat(s.path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := util.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, s.wrap(err, catalog.CodeStoreReadFailed, "failed to read catalog snapshot")
	}

	var snapshot catalog.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, s.wrap(err, catalog.CodeStoreCorrupt, "failed to parse catalog snapshot")
	}

	switch snapshot.Version {
	case "":
		snapshot.Version = catalog.SnapshotVersion
	case catalog.SnapshotVersion:
	default:
		err := errors.Newf(catalog.CodeStoreCorrupt, "unsupported snapshot version: %s (expected %s)",
			snapshot.Version, catalog.SnapshotVersion)
		return nil, errors.WithContext(err, "path", s.path)
	}

	if snapshot.Entries == nil {
		snapshot.Entries = []catalog.Entry{}
	}
	if snapshot.StarCache == nil {
		snapshot.StarCache = catalog.StarCache{}
	}

	return &snapshot, nil
}

// Save writes the snapshot atomically using write-to-temp then rename.
func (s *FileStore) Save(snapshot *catalog.Snapshot) error {
	if snapshot == nil {
		return errors.New(errors.CodeInvalidInput, "snapshot cannot be nil")
	}

	out := *snapshot
	if out.Version == "" {
		out.Version = catalog.SnapshotVersion
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return s.wrap(err, catalog.CodeStoreWriteFailed, "failed to marshal catalog snapshot")
	}

	if dir := path.Dir(s.path); dir != "." && dir != "/" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return s.wrap(err, catalog.CodeStoreWriteFailed, "failed to create snapshot directory")
		}
	}

	tmpPath := s.path + ".tmp"
	tmpFile, err := s.fs.Create(tmpPath)
	if err != nil {
		return s.wrap(err, catalog.CodeStoreWriteFailed, "failed to create temporary snapshot file")
	}

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = s.fs.Remove(tmpPath)
		return s.wrap(err, catalog.CodeStoreWriteFailed, "failed to write temporary snapshot file")
	}

	if err := tmpFile.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return s.wrap(err, catalog.CodeStoreWriteFailed, "failed to close temporary snapshot file")
	}

	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return s.wrap(err, catalog.CodeStoreWriteFailed, "failed to rename snapshot file")
	}

	return nil
}

func (s *FileStore) wrap(err error, code errors.ErrorCode, message string) error {
	return errors.WithContext(errors.Wrap(err, code, message), "path", s.path)
}

var _ catalog.Store = (*FileStore)(nil)
