package engine

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"go.heapstore/internal/logger"
	"go.heapstore/internal/storage"
)

type container struct {
	file *storage.HeapFile
	info ContainerInfo
}

// StorageManager maps containers to heap files and implements value level
// operations on top of them. Every call goes to disk; there is no page
// cache and no page locking, so callers serialize writers to a page.
type StorageManager struct {
	mu         sync.RWMutex
	containers map[storage.ContainerID]*container
	closed     bool

	root    string
	temp    bool
	log     *logger.Logger
	logFile io.Closer
}

func newStorageManager(root string, temp bool, log *logger.Logger) *StorageManager {
	return &StorageManager{
		containers: make(map[storage.ContainerID]*container),
		root:       root,
		temp:       temp,
		log:        log,
	}
}

func (sm *StorageManager) Root() string {
	return sm.root
}

func (sm *StorageManager) Logger() *logger.Logger {
	return sm.log
}

func (sm *StorageManager) containerPath(id storage.ContainerID) string {
	return filepath.Join(sm.root, fmt.Sprintf("%d%s", id, heapFileExt))
}

// lookup must be called with sm.mu held
func (sm *StorageManager) lookup(id storage.ContainerID) (*storage.HeapFile, error) {
	if sm.closed {
		return nil, storage.ErrClosed
	}

	c, ok := sm.containers[id]
	if !ok {
		return nil, fmt.Errorf("container %d: %w", id, storage.ErrContainerNotFound)
	}
	return c.file, nil
}

func checkValueSize(value []byte) error {
	if len(value) > storage.MaxValueSize {
		return fmt.Errorf("%d bytes, max %d: %w", len(value), storage.MaxValueSize, storage.ErrValueTooLarge)
	}
	return nil
}

func (sm *StorageManager) CreateContainer(
	id storage.ContainerID,
	cfg ContainerConfig,
	name string,
	typ StateType,
	deps []storage.ContainerID,
) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.closed {
		return storage.ErrClosed
	}
	if _, ok := sm.containers[id]; ok {
		return fmt.Errorf("container %d: %w", id, storage.ErrContainerExists)
	}

	path := sm.containerPath(id)

	// A file left behind by an earlier run must not leak into the new container
	if err := os.Remove(path); err == nil {
		sm.log.Warnf("engine: removed stale heap file %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return &storage.IOError{Op: "remove", Path: path, Err: err}
	}

	hf, err := storage.NewHeapFile(path, sm.log)
	if err != nil {
		return err
	}

	sm.containers[id] = &container{
		file: hf,
		info: ContainerInfo{
			ID:           id,
			Path:         path,
			Name:         name,
			Type:         typ,
			Config:       cfg,
			Dependencies: slices.Clone(deps),
		},
	}

	sm.log.Infof("engine: created container %d at %s", id, path)
	return nil
}

func (sm *StorageManager) CreateTable(id storage.ContainerID) error {
	return sm.CreateContainer(id, SimpleContainerConfig(), "", BaseTable, nil)
}

func (sm *StorageManager) RemoveContainer(id storage.ContainerID) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	hf, err := sm.lookup(id)
	if err != nil {
		return err
	}

	if err := hf.Remove(); err != nil {
		return err
	}

	delete(sm.containers, id)
	sm.log.Infof("engine: removed container %d", id)
	return nil
}

// Containers lists the catalog ordered by container id
func (sm *StorageManager) Containers() []ContainerInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	infos := make([]ContainerInfo, 0, len(sm.containers))
	for _, c := range sm.containers {
		infos = append(infos, c.info)
	}
	slices.SortFunc(infos, func(a, b ContainerInfo) int {
		return int(a.ID) - int(b.ID)
	})
	return infos
}

// InsertValue places value on the first page with room, appending a new
// page when none has any.
func (sm *StorageManager) InsertValue(id storage.ContainerID, value []byte, tid storage.TransactionID) (storage.ValueID, error) {
	if err := checkValueSize(value); err != nil {
		return storage.ValueID{}, err
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	hf, err := sm.lookup(id)
	if err != nil {
		return storage.ValueID{}, err
	}
	return sm.insert(id, hf, value)
}

func (sm *StorageManager) insert(id storage.ContainerID, hf *storage.HeapFile, value []byte) (storage.ValueID, error) {
	numPages := hf.NumPages()

	for pid := range numPages {
		page, err := hf.ReadPage(storage.PageID(pid))
		if err != nil {
			return storage.ValueID{}, err
		}

		slot, err := page.AddValue(value)
		if errors.Is(err, storage.ErrPageFull) {
			continue
		} else if err != nil {
			return storage.ValueID{}, err
		}

		if err := hf.WritePage(page); err != nil {
			return storage.ValueID{}, err
		}
		return storage.ValueID{ContainerID: id, PageID: page.ID(), SlotID: slot}, nil
	}

	if numPages > math.MaxUint16 {
		return storage.ValueID{}, fmt.Errorf("container %d has no page ids left: %w", id, storage.ErrPageFull)
	}

	page := storage.NewPage(storage.PageID(numPages))
	slot, err := page.AddValue(value)
	if err != nil {
		return storage.ValueID{}, err
	}

	if err := hf.WritePage(page); err != nil {
		return storage.ValueID{}, err
	}
	return storage.ValueID{ContainerID: id, PageID: page.ID(), SlotID: slot}, nil
}

// InsertValues inserts values in order. Sizes are checked before anything
// is written; an I/O failure part way returns the ids stored so far.
func (sm *StorageManager) InsertValues(id storage.ContainerID, values [][]byte, tid storage.TransactionID) ([]storage.ValueID, error) {
	for i, v := range values {
		if err := checkValueSize(v); err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	hf, err := sm.lookup(id)
	if err != nil {
		return nil, err
	}

	ids := make([]storage.ValueID, 0, len(values))
	for _, v := range values {
		vid, err := sm.insert(id, hf, v)
		if err != nil {
			return ids, err
		}
		ids = append(ids, vid)
	}
	return ids, nil
}

// DeleteValue frees the slot behind vid. Missing containers, pages and
// slots are treated as already deleted.
func (sm *StorageManager) DeleteValue(vid storage.ValueID, tid storage.TransactionID) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	hf, err := sm.lookup(vid.ContainerID)
	if errors.Is(err, storage.ErrContainerNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	if int(vid.PageID) >= hf.NumPages() {
		return nil
	}

	page, err := hf.ReadPage(vid.PageID)
	if err != nil {
		return err
	}

	if _, err := page.GetValue(vid.SlotID); err != nil {
		return nil
	}

	if err := page.DeleteValue(vid.SlotID); err != nil {
		return err
	}
	return hf.WritePage(page)
}

// UpdateValue replaces the value behind vid. It stays on the same page
// when it fits there, otherwise it is inserted like a new value and the
// old slot is freed afterwards. The returned id differs from vid whenever
// the value moved. On error the old value is still readable at vid.
func (sm *StorageManager) UpdateValue(value []byte, vid storage.ValueID, tid storage.TransactionID) (storage.ValueID, error) {
	if err := checkValueSize(value); err != nil {
		return storage.ValueID{}, err
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	hf, err := sm.lookup(vid.ContainerID)
	if err != nil {
		return storage.ValueID{}, err
	}

	page, err := hf.ReadPage(vid.PageID)
	if err != nil {
		return storage.ValueID{}, err
	}

	if _, err := page.GetValue(vid.SlotID); err != nil {
		return storage.ValueID{}, err
	}
	if err := page.DeleteValue(vid.SlotID); err != nil {
		return storage.ValueID{}, err
	}

	if slot, err := page.AddValue(value); err == nil {
		if err := hf.WritePage(page); err != nil {
			return storage.ValueID{}, err
		}
		return storage.ValueID{ContainerID: vid.ContainerID, PageID: vid.PageID, SlotID: slot}, nil
	}

	// The page on disk still holds the old value, so first fit skips it
	moved, err := sm.insert(vid.ContainerID, hf, value)
	if err != nil {
		return storage.ValueID{}, err
	}

	if err := sm.freeSlot(hf, vid); err != nil {
		if uErr := sm.freeSlot(hf, moved); uErr != nil {
			sm.log.Errorf("engine: update of %v left a copy at %v: %v", vid, moved, uErr)
		}
		return storage.ValueID{}, err
	}

	sm.log.Debugf("engine: update moved %v to %v", vid, moved)
	return moved, nil
}

// freeSlot rereads the page behind vid and deletes its slot
func (sm *StorageManager) freeSlot(hf *storage.HeapFile, vid storage.ValueID) error {
	page, err := hf.ReadPage(vid.PageID)
	if err != nil {
		return err
	}
	if err := page.DeleteValue(vid.SlotID); err != nil {
		return err
	}
	return hf.WritePage(page)
}

func (sm *StorageManager) GetValue(vid storage.ValueID, tid storage.TransactionID, perm storage.Permission) ([]byte, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	hf, err := sm.lookup(vid.ContainerID)
	if err != nil {
		return nil, err
	}

	page, err := hf.ReadPage(vid.PageID)
	if err != nil {
		return nil, err
	}
	return page.GetValue(vid.SlotID)
}

// GetIterator scans every live value of a container. Pages are read as
// the scan reaches them.
func (sm *StorageManager) GetIterator(id storage.ContainerID, tid storage.TransactionID, perm storage.Permission) (*ValueIterator, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	hf, err := sm.lookup(id)
	if err != nil {
		return nil, err
	}
	return newValueIterator(id, hf), nil
}

func (sm *StorageManager) GetPage(id storage.ContainerID, pid storage.PageID, tid storage.TransactionID, perm storage.Permission) (*storage.Page, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	hf, err := sm.lookup(id)
	if err != nil {
		return nil, err
	}
	return hf.ReadPage(pid)
}

// WritePage stores page in container id. The page must already exist or be
// the next one; anything further out would leave unreadable gaps.
func (sm *StorageManager) WritePage(id storage.ContainerID, page *storage.Page, tid storage.TransactionID) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	hf, err := sm.lookup(id)
	if err != nil {
		return err
	}

	if n := hf.NumPages(); int(page.ID()) > n {
		return fmt.Errorf("container %d: page %d is past the end (%d pages): %w", id, page.ID(), n, storage.ErrInvalidValueID)
	}
	return hf.WritePage(page)
}

func (sm *StorageManager) NumPages(id storage.ContainerID) (int, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	hf, err := sm.lookup(id)
	if err != nil {
		return 0, err
	}
	return hf.NumPages(), nil
}

// ReadWriteCount reports heap file I/O for a container, zero if it is unknown
func (sm *StorageManager) ReadWriteCount(id storage.ContainerID) (reads, writes uint64) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	hf, err := sm.lookup(id)
	if err != nil {
		return 0, 0
	}
	return hf.Counts()
}

func (sm *StorageManager) TransactionFinished(tid storage.TransactionID) {
	sm.log.Debugf("engine: transaction %d finished", tid)
}

// ClearCache is a hook for a future buffer pool. Nothing is cached yet.
func (sm *StorageManager) ClearCache() {
	sm.log.Debugf("engine: clear cache")
}

// Reset drops every container and its file, keeping the storage root
func (sm *StorageManager) Reset() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.closed {
		return storage.ErrClosed
	}

	err := sm.forEachFile(func(hf *storage.HeapFile) error {
		return hf.Remove()
	})
	clear(sm.containers)

	catalog := filepath.Join(sm.root, catalogFile)
	if rmErr := os.Remove(catalog); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		err = errors.Join(err, &storage.IOError{Op: "remove", Path: catalog, Err: rmErr})
	}

	sm.log.Infof("engine: reset %s", sm.root)
	return err
}

// Shutdown saves the catalog, or wipes the root for a temporary manager,
// and closes every heap file. Calling it again does nothing.
func (sm *StorageManager) Shutdown() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.closed {
		return nil
	}
	sm.closed = true

	var errs []error
	if !sm.temp {
		errs = append(errs, sm.saveCatalog())
	}

	errs = append(errs, sm.forEachFile(func(hf *storage.HeapFile) error {
		return hf.Close()
	}))

	if sm.temp {
		if err := os.RemoveAll(sm.root); err != nil {
			errs = append(errs, &storage.IOError{Op: "remove", Path: sm.root, Err: err})
		}
		sm.log.Debugf("engine: removed temporary root %s", sm.root)
	} else {
		sm.log.Infof("engine: shut down %s with %d containers", sm.root, len(sm.containers))
	}

	if sm.logFile != nil {
		errs = append(errs, sm.logFile.Close())
	}
	return errors.Join(errs...)
}

// forEachFile runs fn on all heap files concurrently; sm.mu must be held
func (sm *StorageManager) forEachFile(fn func(*storage.HeapFile) error) error {
	var g errgroup.Group
	for _, c := range sm.containers {
		g.Go(func() error {
			return fn(c.file)
		})
	}
	return g.Wait()
}
