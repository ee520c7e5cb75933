package host

import (
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/catalog"
)

// pycacheDir is never an extension even though it is a directory.
const pycacheDir = "__pycache__"

// StaticSet is an InstalledSet backed by a fixed list of plugin names.
type StaticSet map[string]struct{}

// NewStaticSet returns a StaticSet containing names.
func NewStaticSet(names ...string) StaticSet {
	set := make(StaticSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Contains implements catalog.InstalledSet.
func (s StaticSet) Contains(pluginName string) bool {
	_, ok := s[pluginName]
	return ok
}

// Len returns the number of installed plugins.
func (s StaticSet) Len() int {
	return len(s)
}

// DirectorySet is an InstalledSet that treats every visible subdirectory of
// the host's extension directory, other than __pycache__, as an installed
// plugin. Contains rescans the directory; Snapshot scans it once.
type DirectorySet struct {
	fs  billy.Filesystem
	dir string
}

// NewDirectorySet returns a DirectorySet scanning dir on fs.
func NewDirectorySet(fs billy.Filesystem, dir string) *DirectorySet {
	return &DirectorySet{fs: fs, dir: dir}
}

// NewOSDirectorySet returns a DirectorySet scanning dir on the local disk.
func NewOSDirectorySet(dir string) *DirectorySet {
	return NewDirectorySet(osfs.New(dir), ".")
}

// Scan lists the installed plugin names. A missing directory yields an empty
// set.
func (d *DirectorySet) Scan() (StaticSet, error) {
	infos, err := d.fs.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return StaticSet{}, nil
		}
		wrapped := errors.Wrap(err, errors.CodeInternal, "failed to list extension directory")
		return nil, errors.WithContext(wrapped, "path", d.fs.Join(d.fs.Root(), d.dir))
	}

	set := make(StaticSet, len(infos))
	for _, info := range infos {
		name := info.Name()
		if !info.IsDir() || strings.HasPrefix(name, ".") || name == pycacheDir {
			continue
		}
		set[name] = struct{}{}
	}
	return set, nil
}

// Snapshot implements catalog.InstalledSnapshotter.
func (d *DirectorySet) Snapshot() (catalog.InstalledSet, error) {
	return d.Scan()
}

// Contains implements catalog.InstalledSet. Scan errors are treated as an
// empty set.
func (d *DirectorySet) Contains(pluginName string) bool {
	set, err := d.Scan()
	if err != nil {
		return false
	}
	return set.Contains(pluginName)
}

var (
	_ catalog.InstalledSet = StaticSet(nil)
	_ catalog.InstalledSet = (*DirectorySet)(nil)

	_ catalog.InstalledSnapshotter = (*DirectorySet)(nil)
)
