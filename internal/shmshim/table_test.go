//go:build unix

package shmshim

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/shared/ipcerr"
)

func newTestTable(t *testing.T) (*Table, string) {
	t.Helper()
	dir := t.TempDir()
	tbl := NewTable(Options{Dir: dir, Prefix: "test_shm", PID: 4242})
	t.Cleanup(func() { tbl.Close() })
	return tbl, dir
}

func baseOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func TestCreateAttachRoundTrip(t *testing.T) {
	tbl, dir := newTestTable(t)

	id, err := tbl.Create(42, 4096, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	mem, err := tbl.Attach(id)
	require.NoError(t, err)
	require.Len(t, mem, 4096)

	for i := range mem {
		mem[i] = byte(i * 7)
	}

	again, err := tbl.Attach(id)
	require.NoError(t, err)
	assert.Equal(t, baseOf(mem), baseOf(again))
	for i := range again {
		if again[i] != byte(i*7) {
			t.Fatalf("byte %d = %d, want %d", i, again[i], byte(i*7))
		}
	}

	// the pattern is in the backing object, not just process memory
	onDisk, err := os.ReadFile(filepath.Join(dir, "test_shm_4242_0"))
	require.NoError(t, err)
	assert.Equal(t, []byte(again), onDisk)

	seg, err := tbl.Stat(id)
	require.NoError(t, err)
	assert.Equal(t, Segment{ID: 0, Key: 42, Size: 4096, Name: "test_shm_4242_0"}, seg)
}

func TestRemoveInvalidatesID(t *testing.T) {
	tbl, dir := newTestTable(t)

	id, err := tbl.Create(42, 4096, 0)
	require.NoError(t, err)

	require.NoError(t, tbl.Control(id, CmdRemove))

	_, err = tbl.Attach(id)
	assert.ErrorIs(t, err, ipcerr.ErrInvalidArgument)
	assert.ErrorIs(t, tbl.Control(id, CmdRemove), ipcerr.ErrInvalidArgument)

	_, err = os.Stat(filepath.Join(dir, "test_shm_4242_0"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, 0, tbl.Len())
}

func TestTableExhaustion(t *testing.T) {
	tbl, _ := newTestTable(t)

	ids := make([]int, 0, DefaultSlots)
	for i := 0; i < DefaultSlots; i++ {
		id, err := tbl.Create(100+i, 128, 0)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	_, err := tbl.Create(999, 128, 0)
	assert.ErrorIs(t, err, ipcerr.ErrNoSpace)
	assert.Equal(t, syscall.ENOSPC, ipcerr.Errno(err))

	for i, id := range ids {
		mem, err := tbl.Attach(id)
		require.NoError(t, err)
		mem[0] = byte(i)
	}
	for i, id := range ids {
		mem, err := tbl.Attach(id)
		require.NoError(t, err)
		assert.Equal(t, byte(i), mem[0], "segment %d", id)
	}

	// a freed slot is reused
	require.NoError(t, tbl.Control(ids[3], CmdRemove))
	id, err := tbl.Create(1000, 64, 0)
	require.NoError(t, err)
	assert.Equal(t, ids[3], id)
}

func TestAttachInvalidIDs(t *testing.T) {
	tbl, _ := newTestTable(t)

	for _, id := range []int{-1, 0, DefaultSlots, DefaultSlots + 5} {
		_, err := tbl.Attach(id)
		assert.ErrorIs(t, err, ipcerr.ErrInvalidArgument, "id %d", id)
	}
}

func TestControlOtherCommandsAreNoOps(t *testing.T) {
	tbl, _ := newTestTable(t)

	id, err := tbl.Create(1, 256, 0)
	require.NoError(t, err)

	for _, cmd := range []int{CmdSet, CmdStat, CmdInfo, 99} {
		assert.NoError(t, tbl.Control(id, cmd))
	}
	_, err = tbl.Attach(id)
	assert.NoError(t, err)
}

func TestDetachValidatesOnly(t *testing.T) {
	tbl, _ := newTestTable(t)

	id, err := tbl.Create(1, 256, 0)
	require.NoError(t, err)
	mem, err := tbl.Attach(id)
	require.NoError(t, err)

	require.NoError(t, tbl.Detach(baseOf(mem)))
	mem[10] = 0xAB // still mapped

	assert.ErrorIs(t, tbl.Detach(baseOf(mem)+1), ipcerr.ErrInvalidArgument)
	assert.ErrorIs(t, tbl.Detach(0), ipcerr.ErrInvalidArgument)

	require.NoError(t, tbl.Control(id, CmdRemove))
	assert.ErrorIs(t, tbl.Detach(baseOf(mem)), ipcerr.ErrInvalidArgument)
}

func TestCreateInvalidSize(t *testing.T) {
	tbl, _ := newTestTable(t)

	for _, size := range []int{0, -1} {
		_, err := tbl.Create(1, size, 0)
		assert.ErrorIs(t, err, ipcerr.ErrInvalidArgument)
	}
	assert.Equal(t, 0, tbl.Len())
}

func TestCreateOpenFailureFreesSlot(t *testing.T) {
	tbl := NewTable(Options{Dir: filepath.Join(t.TempDir(), "missing"), PID: 1})

	_, err := tbl.Create(1, 64, 0)
	assert.ErrorIs(t, err, ipcerr.ErrIO)
	assert.ErrorIs(t, err, syscall.ENOENT)
	assert.Equal(t, syscall.ENOENT, ipcerr.Errno(err))
	assert.Equal(t, 0, tbl.Len())
}

func TestCreateMapFailureRollsBack(t *testing.T) {
	tbl, dir := newTestTable(t)
	tbl.mmap = func(int, int) ([]byte, error) { return nil, syscall.ENOMEM }

	_, err := tbl.Create(1, 64, 0)
	assert.ErrorIs(t, err, ipcerr.ErrIO)
	assert.ErrorIs(t, err, syscall.ENOMEM)
	assert.Equal(t, 0, tbl.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "backing object must be unlinked")

	tbl.mmap = mapShared
	id, err := tbl.Create(1, 64, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}

func TestObjectNamesAreUniquePerProcess(t *testing.T) {
	dir := t.TempDir()
	a := NewTable(Options{Dir: dir, PID: 100})
	b := NewTable(Options{Dir: dir, PID: 200})
	defer a.Close()
	defer b.Close()

	idA, err := a.Create(1, 64, 0)
	require.NoError(t, err)
	idB, err := b.Create(1, 64, 0)
	require.NoError(t, err)
	assert.Equal(t, idA, idB)

	segA, _ := a.Stat(idA)
	segB, _ := b.Stat(idB)
	assert.NotEqual(t, segA.Name, segB.Name)

	memA, _ := a.Attach(idA)
	memB, _ := b.Attach(idB)
	memA[0] = 1
	assert.Equal(t, byte(0), memB[0])
}

func TestCloseReleasesEverything(t *testing.T) {
	dir := t.TempDir()
	tbl := NewTable(Options{Dir: dir, PID: 7, Slots: 3})
	for i := 0; i < 3; i++ {
		_, err := tbl.Create(i, 32, 0)
		require.NoError(t, err)
	}

	require.NoError(t, tbl.Close())
	assert.Equal(t, 0, tbl.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
