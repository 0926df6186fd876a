package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"
	"slices"
)

const PageSize = 4096

// Page header layout (little endian)
// 0: page id              uint16
// 2: free cursor          uint16
// 4: freed slot count (D) uint16
// 6: slot count (N)       uint16
// 8: D freed slot ids     uint16 each
// 8+2D: N slot entries    (length uint16, offset uint16)
// The data region grows down from the end of the page.
const (
	fixedHeaderSize = 8
	freedEntrySize  = 2
	slotEntrySize   = 4

	// MaxValueSize is the largest value an empty page can hold
	MaxValueSize = PageSize - fixedHeaderSize - slotEntrySize
)

type slotEntry struct {
	length uint16
	offset uint16
}

type Page struct {
	id         PageID
	freeCursor uint16
	freed      []SlotID
	slots      []slotEntry
	data       [PageSize]byte
}

// SlotInfo describes one slot entry for inspection
type SlotInfo struct {
	Slot   SlotID
	Offset uint16
	Length uint16
	Freed  bool
}

func NewPage(id PageID) *Page {
	return &Page{
		id:         id,
		freeCursor: PageSize - 1,
	}
}

func (p *Page) ID() PageID {
	return p.id
}

func (p *Page) FreeCursor() uint16 {
	return p.freeCursor
}

func (p *Page) SlotCount() int {
	return len(p.slots)
}

func (p *Page) FreedSlots() []SlotID {
	return slices.Clone(p.freed)
}

func (p *Page) Slots() []SlotInfo {
	infos := make([]SlotInfo, len(p.slots))
	for i, e := range p.slots {
		infos[i] = SlotInfo{
			Slot:   SlotID(i),
			Offset: e.offset,
			Length: e.length,
			Freed:  slices.Contains(p.freed, SlotID(i)),
		}
	}
	return infos
}

func (p *Page) HeaderSize() int {
	return fixedHeaderSize + freedEntrySize*len(p.freed) + slotEntrySize*len(p.slots)
}

func (p *Page) LargestFreeContiguousSpace() int {
	return int(p.freeCursor) - p.HeaderSize() + 1
}

// AddValue stores value and returns its slot. Freed slots are reused
// first: in place when the old footprint is big enough, otherwise the
// lowest freed slot id gets fresh space. Only when nothing is freed does
// the page grow a new slot entry.
func (p *Page) AddValue(value []byte) (SlotID, error) {
	if len(value) > MaxValueSize {
		return 0, fmt.Errorf("page %d: %d byte value: %w", p.id, len(value), ErrPageFull)
	}

	if len(p.freed) > 0 {
		if slot, ok := p.reuseFootprint(value); ok {
			return slot, nil
		}
		return p.reuseSlot(value)
	}
	return p.appendSlot(value)
}

func (p *Page) reuseFootprint(value []byte) (SlotID, bool) {
	for i, slot := range p.freed {
		e := p.slots[slot]
		if int(e.length) < len(value) {
			continue
		}

		// Bytes past the new length stay behind as padding
		copy(p.data[e.offset:], value)
		p.slots[slot] = slotEntry{length: uint16(len(value)), offset: e.offset}
		p.freed = slices.Delete(p.freed, i, i+1)
		return slot, true
	}
	return 0, false
}

func (p *Page) reuseSlot(value []byte) (SlotID, error) {
	if len(value) > p.LargestFreeContiguousSpace() {
		return 0, fmt.Errorf("page %d: %d byte value: %w", p.id, len(value), ErrPageFull)
	}

	i := slices.Index(p.freed, slices.Min(p.freed))
	slot := p.freed[i]

	offset := p.allocate(value)
	p.slots[slot] = slotEntry{length: uint16(len(value)), offset: offset}
	p.freed = slices.Delete(p.freed, i, i+1)
	return slot, nil
}

func (p *Page) appendSlot(value []byte) (SlotID, error) {
	// the new slot entry grows the header as well
	if len(value)+slotEntrySize > p.LargestFreeContiguousSpace() {
		return 0, fmt.Errorf("page %d: %d byte value: %w", p.id, len(value), ErrPageFull)
	}

	offset := p.allocate(value)
	p.slots = append(p.slots, slotEntry{length: uint16(len(value)), offset: offset})
	return SlotID(len(p.slots) - 1), nil
}

// allocate copies value just below the free cursor and moves the cursor down
func (p *Page) allocate(value []byte) uint16 {
	start := int(p.freeCursor) - len(value) + 1
	copy(p.data[start:], value)
	p.freeCursor = uint16(start - 1)
	return uint16(start)
}

// DeleteValue marks slot as freed. The slot entry and its bytes stay in
// place until an insert reuses the slot. Deleting a freed slot is a no-op.
func (p *Page) DeleteValue(slot SlotID) error {
	if int(slot) >= len(p.slots) {
		return fmt.Errorf("page %d slot %d: %w", p.id, slot, ErrInvalidValueID)
	}
	if slices.Contains(p.freed, slot) {
		return nil
	}

	// Recording the delete grows the header by one entry. A page packed to
	// the last byte has to give up dead bytes first.
	if p.LargestFreeContiguousSpace() < freedEntrySize {
		p.compact(slot)
		if p.LargestFreeContiguousSpace() < freedEntrySize {
			return fmt.Errorf("page %d slot %d: no room to record delete: %w", p.id, slot, ErrPageFull)
		}
	}

	p.freed = append(p.freed, slot)
	return nil
}

// compact repacks every slot against the end of the page, dropping the
// bytes of drop and any padding left by in-place reuse. Offsets change,
// slot ids do not.
func (p *Page) compact(drop SlotID) {
	var packed [PageSize]byte
	cursor := PageSize - 1

	for i, e := range p.slots {
		slot := SlotID(i)
		if slot == drop {
			p.slots[i] = slotEntry{offset: PageSize}
			continue
		}

		start := cursor - int(e.length) + 1
		copy(packed[start:], p.data[e.offset:int(e.offset)+int(e.length)])
		p.slots[i].offset = uint16(start)
		cursor = start - 1
	}

	copy(p.data[cursor+1:], packed[cursor+1:])
	p.freeCursor = uint16(cursor)
}

func (p *Page) isLive(slot SlotID) bool {
	return int(slot) < len(p.slots) && !slices.Contains(p.freed, slot)
}

// GetValue returns a copy of the bytes stored in slot
func (p *Page) GetValue(slot SlotID) ([]byte, error) {
	if !p.isLive(slot) {
		return nil, fmt.Errorf("page %d slot %d: %w", p.id, slot, ErrInvalidValueID)
	}

	e := p.slots[slot]
	return bytes.Clone(p.data[e.offset : int(e.offset)+int(e.length)]), nil
}

// Values yields every live value in slot order
func (p *Page) Values() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for i := range p.slots {
			value, err := p.GetValue(SlotID(i))
			if err != nil {
				continue
			}
			if !yield(value) {
				return
			}
		}
	}
}

// Bytes serializes the page into a PageSize buffer
func (p *Page) Bytes() []byte {
	buf := make([]byte, PageSize)
	copy(buf, p.data[:])

	binary.LittleEndian.PutUint16(buf[0:2], uint16(p.id))
	binary.LittleEndian.PutUint16(buf[2:4], p.freeCursor)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(p.freed)))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(len(p.slots)))

	off := fixedHeaderSize
	for _, slot := range p.freed {
		binary.LittleEndian.PutUint16(buf[off:], uint16(slot))
		off += freedEntrySize
	}
	for _, e := range p.slots {
		binary.LittleEndian.PutUint16(buf[off:], e.length)
		binary.LittleEndian.PutUint16(buf[off+2:], e.offset)
		off += slotEntrySize
	}
	return buf
}

// PageFromBytes rebuilds a page from a buffer written by Bytes
func PageFromBytes(buf []byte) (*Page, error) {
	if len(buf) != PageSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrCorruptPage, len(buf), PageSize)
	}

	p := &Page{
		id:         PageID(binary.LittleEndian.Uint16(buf[0:2])),
		freeCursor: binary.LittleEndian.Uint16(buf[2:4]),
	}
	numFreed := int(binary.LittleEndian.Uint16(buf[4:6]))
	numSlots := int(binary.LittleEndian.Uint16(buf[6:8]))

	headerSize := fixedHeaderSize + freedEntrySize*numFreed + slotEntrySize*numSlots
	switch {
	case headerSize > PageSize:
		return nil, fmt.Errorf("%w: page %d header of %d bytes", ErrCorruptPage, p.id, headerSize)
	case numFreed > numSlots:
		return nil, fmt.Errorf("%w: page %d has %d freed of %d slots", ErrCorruptPage, p.id, numFreed, numSlots)
	case int(p.freeCursor) >= PageSize || int(p.freeCursor)+1 < headerSize:
		return nil, fmt.Errorf("%w: page %d free cursor %d, header %d bytes", ErrCorruptPage, p.id, p.freeCursor, headerSize)
	}

	off := fixedHeaderSize
	p.freed = make([]SlotID, 0, numFreed)
	for range numFreed {
		slot := SlotID(binary.LittleEndian.Uint16(buf[off:]))
		if int(slot) >= numSlots || slices.Contains(p.freed, slot) {
			return nil, fmt.Errorf("%w: page %d bad freed slot %d", ErrCorruptPage, p.id, slot)
		}
		p.freed = append(p.freed, slot)
		off += freedEntrySize
	}

	p.slots = make([]slotEntry, 0, numSlots)
	for i := range numSlots {
		e := slotEntry{
			length: binary.LittleEndian.Uint16(buf[off:]),
			offset: binary.LittleEndian.Uint16(buf[off+2:]),
		}
		end := int(e.offset) + int(e.length)
		if end > PageSize || (e.length > 0 && int(e.offset) <= int(p.freeCursor)) {
			return nil, fmt.Errorf("%w: page %d slot %d spans [%d,%d)", ErrCorruptPage, p.id, i, e.offset, end)
		}
		p.slots = append(p.slots, e)
		off += slotEntrySize
	}

	copy(p.data[:], buf)
	return p, nil
}
