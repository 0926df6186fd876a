package cli

import (
	"fmt"
	"strconv"

	"go.heapstore/internal/storage"
)

func parseContainer(s string) (storage.ContainerID, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("bad container id %q", s)
	}
	return storage.ContainerID(n), nil
}

// parseValueID reads <cid> <page> <slot>
func parseValueID(args []string) (storage.ValueID, error) {
	cid, err := parseContainer(args[0])
	if err != nil {
		return storage.ValueID{}, err
	}

	page, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return storage.ValueID{}, fmt.Errorf("bad page id %q", args[1])
	}

	slot, err := strconv.ParseUint(args[2], 10, 16)
	if err != nil {
		return storage.ValueID{}, fmt.Errorf("bad slot id %q", args[2])
	}

	return storage.ValueID{
		ContainerID: cid,
		PageID:      storage.PageID(page),
		SlotID:      storage.SlotID(slot),
	}, nil
}
