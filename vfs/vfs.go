package vfs

import (
	"io"
)

// must contain only metadata (filename) as long as possible
// (before List/Open/GetElement calls)
type Element interface {
	Name() string
	IsDirectory() bool
}

type File interface {
	Element
	// Path is the location the engine can load the file from.
	Path() string
	Size() int64
	Open() error
	Close() error
	Reader() (*io.SectionReader, error)
}

type Directory interface {
	Element
	Path() string
	List() ([]string, error)
	GetElement(name string) (Element, error)
}
