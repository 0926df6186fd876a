//go:build linux

package engine_test

import (
	"math/rand/v2"
	"os/signal"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"go.heapstore/internal/storage"
)

// limitFileSize caps how large this process may grow any file until fn
// returns. Writes past the cap fail with EFBIG instead of raising SIGXFSZ.
func limitFileSize(t *testing.T, size uint64, fn func()) {
	t.Helper()

	var lim unix.Rlimit
	require.NoError(t, unix.Getrlimit(unix.RLIMIT_FSIZE, &lim))

	signal.Ignore(syscall.SIGXFSZ)
	defer signal.Reset(syscall.SIGXFSZ)

	capped := lim
	capped.Cur = size
	require.NoError(t, unix.Setrlimit(unix.RLIMIT_FSIZE, &capped))
	defer func() {
		require.NoError(t, unix.Setrlimit(unix.RLIMIT_FSIZE, &lim))
	}()

	fn()
}

func TestUpdateValueKeepsOldValueWhenRelocationFails(t *testing.T) {
	sm := newTestSM(t)
	tid := storage.NewTransactionID()
	require.NoError(t, sm.CreateTable(1))

	r := rand.New(rand.NewPCG(3, 9))
	var first storage.ValueID
	var old []byte
	for i := range 10 {
		v := randomBytes(r, 400)
		id, err := sm.InsertValue(1, v, tid)
		require.NoError(t, err)
		if i == 0 {
			first, old = id, v
		}
	}

	pages, err := sm.NumPages(1)
	require.NoError(t, err)
	require.Equal(t, 1, pages)

	// page 1 cannot be written, so the value has nowhere to go
	var updateErr error
	limitFileSize(t, storage.PageSize, func() {
		_, updateErr = sm.UpdateValue(randomBytes(r, 1000), first, tid)
	})
	require.Error(t, updateErr)

	got, err := sm.GetValue(first, tid, storage.ReadOnly)
	require.NoError(t, err)
	assert.Equal(t, old, got)
	assert.Len(t, collect(t, sm, 1), 10)

	pages, err = sm.NumPages(1)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	// with room to grow the same update goes through
	moved, err := sm.UpdateValue(randomBytes(r, 1000), first, tid)
	require.NoError(t, err)
	assert.Equal(t, vid(1, 1, 0), moved)
	_, err = sm.GetValue(first, tid, storage.ReadOnly)
	assert.ErrorIs(t, err, storage.ErrInvalidValueID)
}
