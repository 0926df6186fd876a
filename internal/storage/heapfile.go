package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.heapstore/internal/logger"
)

// HeapFile stores one container's pages back to back, page k at offset
// k*PageSize. Reads and writes share the file under a read lock and use
// positioned I/O, so writers to different pages do not wait on each other.
// The page count has its own lock.
type HeapFile struct {
	path string
	log  *logger.Logger

	mu   sync.RWMutex
	file *os.File

	countMu  sync.Mutex
	numPages int

	reads  atomic.Uint64
	writes atomic.Uint64
}

// NewHeapFile opens path, creating it if needed. The page count starts at
// zero; callers reopening an existing file set it with SetNumPages.
func NewHeapFile(path string, log *logger.Logger) (*HeapFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	log.Debugf("heapfile: opened %s", path)
	return &HeapFile{
		path: path,
		log:  log,
		file: f,
	}, nil
}

func (hf *HeapFile) Path() string {
	return hf.path
}

func (hf *HeapFile) NumPages() int {
	hf.countMu.Lock()
	defer hf.countMu.Unlock()
	return hf.numPages
}

func (hf *HeapFile) SetNumPages(n int) {
	hf.countMu.Lock()
	defer hf.countMu.Unlock()
	hf.numPages = n
}

// Size returns the current length of the file on disk
func (hf *HeapFile) Size() (int64, error) {
	hf.mu.RLock()
	defer hf.mu.RUnlock()

	if hf.file == nil {
		return 0, ErrClosed
	}

	info, err := hf.file.Stat()
	if err != nil {
		return 0, &IOError{Op: "stat", Path: hf.path, Err: err}
	}
	return info.Size(), nil
}

func (hf *HeapFile) ReadPage(id PageID) (*Page, error) {
	if int(id) >= hf.NumPages() {
		return nil, fmt.Errorf("%s page %d: %w", hf.path, id, ErrInvalidValueID)
	}

	buf := make([]byte, PageSize)

	hf.mu.RLock()
	if hf.file == nil {
		hf.mu.RUnlock()
		return nil, ErrClosed
	}
	_, err := hf.file.ReadAt(buf, int64(id)*PageSize)
	hf.mu.RUnlock()

	if err != nil {
		return nil, &IOError{Op: fmt.Sprintf("read page %d", id), Path: hf.path, Err: err}
	}

	page, err := PageFromBytes(buf)
	if err != nil {
		return nil, fmt.Errorf("%s page %d: %w", hf.path, id, err)
	}
	if page.ID() != id {
		return nil, fmt.Errorf("%w: %s block %d holds page %d", ErrCorruptPage, hf.path, id, page.ID())
	}

	hf.reads.Add(1)
	return page, nil
}

// WritePage writes page at its own slot in the file, growing the page
// count when the page is new. A failed write leaves the count unchanged.
// Callers write pages in order: skipping past NumPages leaves zero filled
// blocks that ReadPage rejects as corrupt.
func (hf *HeapFile) WritePage(page *Page) error {
	buf := page.Bytes()

	hf.mu.RLock()
	if hf.file == nil {
		hf.mu.RUnlock()
		return ErrClosed
	}
	_, err := hf.file.WriteAt(buf, int64(page.ID())*PageSize)
	hf.mu.RUnlock()

	if err != nil {
		return &IOError{Op: fmt.Sprintf("write page %d", page.ID()), Path: hf.path, Err: err}
	}

	hf.countMu.Lock()
	if int(page.ID()) >= hf.numPages {
		hf.numPages = int(page.ID()) + 1
	}
	hf.countMu.Unlock()

	hf.writes.Add(1)
	return nil
}

// Counts returns how many pages were read and written through this file
func (hf *HeapFile) Counts() (reads, writes uint64) {
	return hf.reads.Load(), hf.writes.Load()
}

func (hf *HeapFile) Close() error {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	if hf.file == nil {
		return nil
	}

	err := hf.file.Close()
	hf.file = nil
	if err != nil {
		return &IOError{Op: "close", Path: hf.path, Err: err}
	}
	return nil
}

// Remove closes the file and deletes it from disk
func (hf *HeapFile) Remove() error {
	if err := hf.Close(); err != nil {
		return err
	}

	if err := os.Remove(hf.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &IOError{Op: "remove", Path: hf.path, Err: err}
	}

	hf.log.Debugf("heapfile: removed %s", hf.path)
	return nil
}
