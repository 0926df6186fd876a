package storage

import (
	"fmt"
	"sync/atomic"
)

type (
	PageID      uint16
	SlotID      uint16
	ContainerID uint16
)

// ValueID locates a stored value. It stays valid until the slot is
// reused after a delete or the value is relocated by an update.
type ValueID struct {
	ContainerID ContainerID `msgpack:"container_id"`
	PageID      PageID      `msgpack:"page_id"`
	SlotID      SlotID      `msgpack:"slot_id"`
}

func (v ValueID) String() string {
	return fmt.Sprintf("{container:%d page:%d slot:%d}", v.ContainerID, v.PageID, v.SlotID)
}

// TransactionID is handed through every call but never interpreted here
type TransactionID uint64

var lastTransactionID atomic.Uint64

func NewTransactionID() TransactionID {
	return TransactionID(lastTransactionID.Add(1))
}

type Permission uint8

const (
	ReadOnly Permission = iota
	ReadWrite
)

func (p Permission) String() string {
	switch p {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("permission(%d)", uint8(p))
	}
}
