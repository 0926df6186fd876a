package engine

import (
	"fmt"
	"io"

	"go.heapstore/internal/storage"
	"go.heapstore/internal/table"
)

// Backend is what front ends need from a storage engine. StorageManager
// is the heap file implementation; other layouts can satisfy the same
// contract.
type Backend interface {
	CreateContainer(id storage.ContainerID, cfg ContainerConfig, name string, typ StateType, deps []storage.ContainerID) error
	CreateTable(id storage.ContainerID) error
	RemoveContainer(id storage.ContainerID) error
	Containers() []ContainerInfo

	InsertValue(id storage.ContainerID, value []byte, tid storage.TransactionID) (storage.ValueID, error)
	InsertValues(id storage.ContainerID, values [][]byte, tid storage.TransactionID) ([]storage.ValueID, error)
	DeleteValue(vid storage.ValueID, tid storage.TransactionID) error
	UpdateValue(value []byte, vid storage.ValueID, tid storage.TransactionID) (storage.ValueID, error)
	GetValue(vid storage.ValueID, tid storage.TransactionID, perm storage.Permission) ([]byte, error)
	GetIterator(id storage.ContainerID, tid storage.TransactionID, perm storage.Permission) (*ValueIterator, error)
	ImportCSV(schema *table.Schema, r io.Reader, id storage.ContainerID, tid storage.TransactionID) (int, error)

	TransactionFinished(tid storage.TransactionID)
	ClearCache()
	Reset() error
	Shutdown() error
}

var _ Backend = (*StorageManager)(nil)

type StateType uint8

const (
	BaseTable StateType = iota
	MatView
	HashTable
	Tree
)

func (s StateType) String() string {
	switch s {
	case BaseTable:
		return "base-table"
	case MatView:
		return "mat-view"
	case HashTable:
		return "hash-table"
	case Tree:
		return "tree"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ContainerConfig is recorded for the schema layer; the engine does not read it
type ContainerConfig struct {
	StorageKind string `msgpack:"storage_kind"`
}

func SimpleContainerConfig() ContainerConfig {
	return ContainerConfig{StorageKind: "heap"}
}

// ContainerInfo is one catalog record
type ContainerInfo struct {
	ID           storage.ContainerID   `msgpack:"id"`
	Path         string                `msgpack:"path"`
	Name         string                `msgpack:"name,omitempty"`
	Type         StateType             `msgpack:"type"`
	Config       ContainerConfig       `msgpack:"config"`
	Dependencies []storage.ContainerID `msgpack:"dependencies,omitempty"`
}
