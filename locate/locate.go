// Package locate finds template files inside an ordered list of lookup
// folders. It is the path-search collaborator behind viewstack.Resolver:
// fragments are joined into a relative path, the configured extension is
// appended, and the folders are searched in priority order for the first
// regular file that exists.
package locate

import (
	"io/fs"
	"path"
)

// FolderLocator searches folders inside a fs.FS for template files. The
// zero folder list searches the root of the filesystem.
type FolderLocator struct {
	fsys    fs.FS
	folders []string
	ext     string
}

type Option func(*FolderLocator) error

// Folders sets the lookup folders in priority order. Folder paths follow
// fs.FS conventions ("." for the root, no leading slash).
func Folders(folders ...string) Option {
	return func(fl *FolderLocator) error {
		fl.folders = folders
		return nil
	}
}

// Ext sets the filename extension appended to joined fragments. Defaults
// to ".html".
func Ext(ext string) Option {
	return func(fl *FolderLocator) error {
		fl.ext = ext
		return nil
	}
}

func New(fsys fs.FS, opts ...Option) (*FolderLocator, error) {
	fl := &FolderLocator{
		fsys:    fsys,
		folders: []string{"."},
		ext:     ".html",
	}
	var err error
	for _, opt := range opts {
		err = opt(fl)
		if err != nil {
			return fl, err
		}
	}
	return fl, nil
}

// Locate returns the path of the first regular file matching the joined
// fragments plus the configured extension, searching folders in priority
// order. Deterministic for a fixed filesystem state; an empty fragment
// sequence is always a miss.
func (fl *FolderLocator) Locate(fragments ...string) (string, bool) {
	if len(fragments) == 0 {
		return "", false
	}
	relpath := path.Join(fragments...) + fl.ext
	for _, folder := range fl.folders {
		name := relpath
		if folder != "" && folder != "." {
			name = folder + "/" + relpath
		}
		info, err := fs.Stat(fl.fsys, name)
		if err != nil || info.IsDir() {
			continue
		}
		return name, true
	}
	return "", false
}

// Folders returns a copy of the configured lookup folders in priority
// order.
func (fl *FolderLocator) Folders() []string {
	folders := make([]string, len(fl.folders))
	copy(folders, fl.folders)
	return folders
}
