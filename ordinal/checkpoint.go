package ordinal

import (
	"encoding/binary"
	"os"

	"golang.org/x/sys/unix"
)

// InvalidHeight is the all-ones sentinel meaning "invalidated, rebuild".
const InvalidHeight uint64 = 0xFFFFFFFFFFFFFFFF

const checkpointSize = 8 // sizeof(u64)

// Checkpoint is the durable last-indexed-height record: a fixed 8-byte
// file holding a little-endian u64, kept memory-mapped so every advance
// is a direct write into the mapping rather than a file write + seek.
//
// golang.org/x/sys/unix is used directly for Mmap/Munmap/Msync: no
// dedicated mmap wrapper library appears anywhere in the retrieved
// example pack, and x/sys is already present transitively (pebble pulls
// it in) rather than a newly introduced dependency.
type Checkpoint struct {
	f    *os.File
	data []byte
}

// OpenCheckpoint opens path, creating and zero-initializing it if absent,
// and memory-maps its 8 bytes. A failure here is fatal: the caller
// decides whether to abort startup, matching "checkpoint file cannot be
// opened/mapped -> indexer refuses to start".
//
// The returned bool reports whether path already existed. A genuinely
// first-ever start sees a missing file and a freshly zeroed height 0 look
// identical once mapped, so callers that need to distinguish "never
// indexed" from "legitimately caught up to height 0" (§4.F point 1's "or
// the checkpoint file is missing" clause) must capture this before that
// information is lost.
func OpenCheckpoint(path string) (*Checkpoint, bool, error) {
	existed := true
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, false, err
		}
		existed = false
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, false, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	if info.Size() != checkpointSize {
		if err := f.Truncate(checkpointSize); err != nil {
			f.Close()
			return nil, false, err
		}
	}
	data, err := unix.Mmap(int(f.Fd()), 0, checkpointSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, false, err
	}
	return &Checkpoint{f: f, data: data}, existed, nil
}

func (c *Checkpoint) Height() uint64 {
	return binary.LittleEndian.Uint64(c.data)
}

func (c *Checkpoint) set(h uint64) error {
	binary.LittleEndian.PutUint64(c.data, h)
	return unix.Msync(c.data, unix.MS_SYNC)
}

// Advance writes a new fully-applied height.
func (c *Checkpoint) Advance(h uint64) error {
	return c.set(h)
}

// Rewind decrements the checkpoint by exactly one, for a single-block
// reorg removal.
func (c *Checkpoint) Rewind() error {
	h := c.Height()
	if h == 0 || h == InvalidHeight {
		return c.set(0)
	}
	return c.set(h - 1)
}

// Invalidate marks the checkpoint with the rebuild sentinel.
func (c *Checkpoint) Invalidate() error {
	return c.set(InvalidHeight)
}

// Reset sets the checkpoint to 0, used when entering a rebuild.
func (c *Checkpoint) Reset() error {
	return c.set(0)
}

func (c *Checkpoint) Close() error {
	if err := unix.Munmap(c.data); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}
