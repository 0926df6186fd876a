package engine

import (
	"iter"

	"go.heapstore/internal/storage"
)

// ValueIterator walks a container page by page and slot by slot, skipping
// freed slots. The page count is fixed when the iterator is created; each
// page is read from disk when the scan gets to it.
//
//	it, err := sm.GetIterator(id, tid, storage.ReadOnly)
//	for it.Next() {
//		use(it.Value())
//	}
//	err = it.Err()
type ValueIterator struct {
	container storage.ContainerID
	file      *storage.HeapFile
	numPages  int

	nextPage int
	page     *storage.Page
	nextSlot int

	id    storage.ValueID
	value []byte
	err   error
}

func newValueIterator(id storage.ContainerID, hf *storage.HeapFile) *ValueIterator {
	return &ValueIterator{
		container: id,
		file:      hf,
		numPages:  hf.NumPages(),
	}
}

// Next advances to the next live value. It returns false at the end of
// the container or on the first read error.
func (it *ValueIterator) Next() bool {
	for it.err == nil {
		if it.page != nil {
			for it.nextSlot < it.page.SlotCount() {
				slot := storage.SlotID(it.nextSlot)
				it.nextSlot++

				value, err := it.page.GetValue(slot)
				if err != nil {
					continue
				}

				it.id = storage.ValueID{ContainerID: it.container, PageID: it.page.ID(), SlotID: slot}
				it.value = value
				return true
			}
			it.page = nil
		}

		if it.nextPage >= it.numPages {
			return false
		}

		page, err := it.file.ReadPage(storage.PageID(it.nextPage))
		if err != nil {
			it.err = err
			return false
		}

		it.nextPage++
		it.page = page
		it.nextSlot = 0
	}
	return false
}

func (it *ValueIterator) Value() []byte {
	return it.value
}

// ID is the location of the current value
func (it *ValueIterator) ID() storage.ValueID {
	return it.id
}

func (it *ValueIterator) Err() error {
	return it.err
}

// All adapts the iterator for range loops. Check Err afterwards.
func (it *ValueIterator) All() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}
