package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"go.heapstore/internal/storage"
)

const catalogFile = "catalog.msgpack"

// loadCatalog reopens every container recorded by the last shutdown.
// Page counts come from the file sizes.
func (sm *StorageManager) loadCatalog() error {
	path := filepath.Join(sm.root, catalogFile)

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		// fresh storage root
		return nil
	}
	if err != nil {
		return &storage.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	var infos []ContainerInfo
	if err := msgpack.NewDecoder(f).Decode(&infos); err != nil {
		return fmt.Errorf("%w: catalog %s: %v", storage.ErrCorruptFile, path, err)
	}

	for _, info := range infos {
		if _, dup := sm.containers[info.ID]; dup {
			return fmt.Errorf("%w: catalog %s lists container %d twice", storage.ErrCorruptFile, path, info.ID)
		}

		// paths are stored relative to the root
		if !filepath.IsAbs(info.Path) {
			info.Path = filepath.Join(sm.root, info.Path)
		}

		if _, err := os.Stat(info.Path); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: catalog %s lists missing heap file %s", storage.ErrCorruptFile, path, info.Path)
		} else if err != nil {
			return &storage.IOError{Op: "stat", Path: info.Path, Err: err}
		}

		hf, err := storage.NewHeapFile(info.Path, sm.log)
		if err != nil {
			return err
		}

		size, err := hf.Size()
		if err != nil {
			hf.Close()
			return err
		}
		if size%storage.PageSize != 0 {
			hf.Close()
			return fmt.Errorf("%w: %s is %d bytes", storage.ErrCorruptFile, info.Path, size)
		}

		hf.SetNumPages(int(size / storage.PageSize))
		sm.containers[info.ID] = &container{file: hf, info: info}
	}

	sm.log.Infof("engine: loaded %d containers from %s", len(infos), path)
	return nil
}

// saveCatalog writes the container map next to the heap files. The new
// catalog replaces the old one with a rename so a crash leaves one of the two.
func (sm *StorageManager) saveCatalog() error {
	infos := make([]ContainerInfo, 0, len(sm.containers))
	for _, c := range sm.containers {
		info := c.info
		if rel, err := filepath.Rel(sm.root, info.Path); err == nil {
			info.Path = rel
		}
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b ContainerInfo) int {
		return int(a.ID) - int(b.ID)
	})

	path := filepath.Join(sm.root, catalogFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return &storage.IOError{Op: "create", Path: tmp, Err: err}
	}

	if err := msgpack.NewEncoder(f).Encode(infos); err != nil {
		f.Close()
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return &storage.IOError{Op: "sync", Path: tmp, Err: err}
	}
	if err := f.Close(); err != nil {
		return &storage.IOError{Op: "close", Path: tmp, Err: err}
	}

	if err := os.Rename(tmp, path); err != nil {
		return &storage.IOError{Op: "rename", Path: tmp, Err: err}
	}

	sm.log.Debugf("engine: saved catalog with %d containers", len(infos))
	return nil
}
