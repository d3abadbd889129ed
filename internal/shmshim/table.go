//go:build unix

package shmshim

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/GriffinCanCode/AgentOS/ipcshim/internal/shared/ipcerr"
)

// Legacy control commands, Linux numbering.
const (
	CmdRemove = 0
	CmdSet    = 1
	CmdStat   = 2
	CmdInfo   = 3
)

const (
	DefaultSlots  = 10
	DefaultDir    = "/dev/shm"
	DefaultPrefix = "fake_shm"

	// freeID marks an unused slot
	freeID = -1
)

// Options configures a Table. Zero values select the defaults.
type Options struct {
	Dir    string
	Prefix string
	Slots  int
	PID    int
}

// Segment describes one live mapping.
type Segment struct {
	ID   int
	Key  int
	Size int
	Name string
}

type slot struct {
	id   int
	key  int
	size int
	name string
	data []byte
}

func (s *slot) live() bool {
	return s.id != freeID
}

func (s *slot) base() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(s.data)))
}

// Table is the process-local segment registry.
type Table struct {
	dir    string
	prefix string
	pid    int

	mu    sync.Mutex
	slots []slot

	mmap func(fd int, size int) ([]byte, error)
}

// NewTable creates an empty table.
func NewTable(opts Options) *Table {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Slots <= 0 {
		opts.Slots = DefaultSlots
	}
	if opts.PID == 0 {
		opts.PID = os.Getpid()
	}

	t := &Table{
		dir:    opts.Dir,
		prefix: opts.Prefix,
		pid:    opts.PID,
		slots:  make([]slot, opts.Slots),
		mmap:   mapShared,
	}
	for i := range t.slots {
		t.slots[i].id = freeID
	}
	return t
}

func mapShared(fd int, size int) ([]byte, error) {
	return unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// Create allocates the first free slot and maps a new backing object of size
// bytes. key and flags are recorded or ignored; every call creates a new
// segment.
func (t *Table) Create(key, size, flags int) (int, error) {
	if size <= 0 {
		return -1, fmt.Errorf("create segment of %d bytes: %w", size, ipcerr.ErrInvalidArgument)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := -1
	for i := range t.slots {
		if !t.slots[i].live() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, fmt.Errorf("create segment for key %d: %w", key, ipcerr.ErrNoSpace)
	}

	name := t.objectName(idx)
	path := filepath.Join(t.dir, name)

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR|unix.O_TRUNC|unix.O_CLOEXEC, 0o666)
	if err != nil {
		return -1, ipcerr.IO("shm_open "+name, err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		unix.Unlink(path)
		return -1, ipcerr.IO("ftruncate "+name, err)
	}
	data, err := t.mmap(fd, size)
	unix.Close(fd)
	if err != nil {
		unix.Unlink(path)
		return -1, ipcerr.IO("mmap "+name, err)
	}

	t.slots[idx] = slot{id: idx, key: key, size: size, name: name, data: data}
	return idx, nil
}

// Attach returns the mapping for a live id.
func (t *Table) Attach(id int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.data, nil
}

// Detach checks that addr is the base of a live mapping. The mapping stays
// in place until the segment is removed.
func (t *Table) Detach(addr uintptr) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		if t.slots[i].live() && t.slots[i].base() == addr {
			return nil
		}
	}
	return fmt.Errorf("detach %#x: %w", addr, ipcerr.ErrInvalidArgument)
}

// Control applies cmd to a live segment. CmdRemove unmaps the segment,
// unlinks its backing object and frees the slot; other commands do nothing.
func (t *Table) Control(id, cmd int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lookup(id)
	if err != nil {
		return err
	}
	if cmd != CmdRemove {
		return nil
	}
	return t.release(s)
}

// Stat describes a live segment.
func (t *Table) Stat(id int) (Segment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lookup(id)
	if err != nil {
		return Segment{}, err
	}
	return Segment{ID: s.id, Key: s.key, Size: s.size, Name: s.name}, nil
}

// Len returns the number of live segments.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for i := range t.slots {
		if t.slots[i].live() {
			n++
		}
	}
	return n
}

// Close removes every live segment. The first failure is returned after all
// slots have been attempted.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var first error
	for i := range t.slots {
		if !t.slots[i].live() {
			continue
		}
		if err := t.release(&t.slots[i]); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t *Table) lookup(id int) (*slot, error) {
	if id < 0 || id >= len(t.slots) || !t.slots[id].live() {
		return nil, fmt.Errorf("segment %d: %w", id, ipcerr.ErrInvalidArgument)
	}
	return &t.slots[id], nil
}

// release tears down s and frees its slot even when unmap or unlink fail, so
// a broken entry never stays visible.
func (t *Table) release(s *slot) error {
	var first error
	if err := unix.Munmap(s.data); err != nil {
		first = ipcerr.IO("munmap "+s.name, err)
	}
	if err := unix.Unlink(filepath.Join(t.dir, s.name)); err != nil && first == nil {
		first = ipcerr.IO("shm_unlink "+s.name, err)
	}
	*s = slot{id: freeID}
	return first
}

func (t *Table) objectName(idx int) string {
	return fmt.Sprintf("%s_%d_%d", t.prefix, t.pid, idx)
}
