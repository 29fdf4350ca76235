package vfs

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type DirectoryDriver struct {
	path string
}

func (dd *DirectoryDriver) Name() string {
	return filepath.Base(dd.path)
}

func (dd *DirectoryDriver) IsDirectory() bool {
	return true
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func (dd *DirectoryDriver) List() ([]string, error) {
	if fileinfos, err := ioutil.ReadDir(dd.path); err != nil {
		return nil, errors.Wrapf(err, "Error getting directory '%s' info", dd.path)
	} else {
		result := make([]string, 0, len(fileinfos))
		for _, f := range fileinfos {
			result = append(result, f.Name())
		}
		return result, nil
	}
}

// GetElement resolves name relative to the directory. Nested and absolute
// names are allowed.
func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	newPath := name
	if !filepath.IsAbs(name) {
		newPath = filepath.Join(dd.path, filepath.FromSlash(name))
	}
	if s, err := os.Stat(newPath); err != nil {
		return nil, errors.Wrapf(err, "Stat error")
	} else if s.IsDir() {
		return NewDirectoryDriver(newPath), nil
	} else {
		return NewDirectoryDriverFile(newPath), nil
	}
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: path}
}

type DirectoryDriverFile struct {
	path string
	f    *os.File
}

func NewDirectoryDriverFile(path string) *DirectoryDriverFile {
	return &DirectoryDriverFile{
		path: path,
	}
}

func (ddf *DirectoryDriverFile) Name() string {
	return filepath.Base(ddf.path)
}

func (ddf *DirectoryDriverFile) IsDirectory() bool {
	return false
}

func (ddf *DirectoryDriverFile) Path() string {
	return ddf.path
}

func (ddf *DirectoryDriverFile) Size() int64 {
	if stat, err := os.Stat(ddf.path); err != nil {
		return 0
	} else {
		return stat.Size()
	}
}

func (ddf *DirectoryDriverFile) Open() error {
	if ddf.f != nil {
		return errors.Errorf("File '%s' already opened", ddf.path)
	}
	f, err := os.Open(ddf.path)
	if err != nil {
		return errors.Wrapf(err, "os.Open('%s')", ddf.path)
	}
	ddf.f = f
	return nil
}

func (ddf *DirectoryDriverFile) Close() error {
	if ddf.f != nil {
		if err := ddf.f.Close(); err != nil {
			return errors.Wrapf(err, "os.File.Close()")
		}
		ddf.f = nil
	}
	return nil
}

func (ddf *DirectoryDriverFile) Reader() (*io.SectionReader, error) {
	if ddf.f == nil {
		return nil, errors.Errorf("First you need to open file")
	} else {
		return io.NewSectionReader(ddf.f, 0, ddf.Size()), nil
	}
}
