package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"go.heapstore/internal/storage"
	"go.heapstore/internal/table"
)

// ImportCSV loads headerless CSV rows typed by schema into container id,
// one encoded tuple per value. It returns how many rows were stored; rows
// before a failing one stay inserted.
func (sm *StorageManager) ImportCSV(schema *table.Schema, r io.Reader, id storage.ContainerID, tid storage.TransactionID) (int, error) {
	rows := csv.NewReader(r)
	rows.FieldsPerRecord = len(schema.Attributes)

	imported := 0
	for {
		record, err := rows.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("csv row %d: %w", imported+1, err)
		}

		tuple, err := schema.ParseRecord(record)
		if err != nil {
			return imported, fmt.Errorf("csv row %d: %w", imported+1, err)
		}

		value, err := schema.Encode(tuple)
		if err != nil {
			return imported, fmt.Errorf("csv row %d: %w", imported+1, err)
		}

		if _, err := sm.InsertValue(id, value, tid); err != nil {
			sm.log.Errorf("engine: import into container %d stopped at row %d: %v", id, imported+1, err)
			return imported, err
		}
		imported++
	}

	sm.log.Infof("engine: imported %d rows into container %d", imported, id)
	return imported, nil
}
