package storage

import (
	"errors"
	"fmt"
)

var (
	// containers
	ErrContainerNotFound = errors.New("container not found")
	ErrContainerExists   = errors.New("container already exists")
	// values
	ErrValueTooLarge  = errors.New("value does not fit in a page")
	ErrInvalidValueID = errors.New("value id does not resolve to a live value")
	// pages
	ErrPageFull    = errors.New("not enough space to write record")
	ErrCorruptPage = errors.New("page is corrupt")
	// files
	ErrCorruptFile = errors.New("file is corrupt")
	ErrClosed      = errors.New("storage is closed")
)

// IOError wraps a filesystem failure with the operation and the file it hit
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
