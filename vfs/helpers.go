package vfs

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
)

func OpenFileAndGetReader(f File) (*io.SectionReader, error) {
	if err := f.Open(); err != nil {
		return nil, errors.Wrapf(err, "Cannot open file '%s'", f.Name())
	} else {
		if r, err := f.Reader(); err != nil {
			defer f.Close()
			return nil, errors.Wrapf(err, "Cannot get file '%s' reader", f.Name())
		} else {
			return r, err
		}
	}
}

func ReadFile(f File) ([]byte, error) {
	r, err := OpenFileAndGetReader(f)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ioutil.ReadAll(r)
}

// DirectoryGetFile wraps os.ErrNotExist when the element is missing.
func DirectoryGetFile(d Directory, name string) (File, error) {
	if f, err := d.GetElement(name); err != nil {
		return nil, errors.Wrapf(err, "Cannot open file '%s'", name)
	} else if f.IsDirectory() {
		return nil, errors.Errorf("File '%s' is directory, not a file!", name)
	} else {
		return f.(File), nil
	}
}
