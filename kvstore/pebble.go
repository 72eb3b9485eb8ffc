package kvstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/akaitrade/node/common"
	"github.com/avast/retry-go"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

const (
	maxBatchSize = 256 << 20 // commit early rather than grow batches unbounded
	maxItemSize  = 64 << 20
)

var log = common.GetLoggerEntry("kvstore")

// buildOptions mirrors the tuning a write-heavy sequential indexer wants:
// a large memtable, a few L0 levels before compaction kicks in, bloom
// filters sized for point lookups.
func buildOptions() *pebble.Options {
	return &pebble.Options{
		Cache:                       pebble.NewCache(256 << 20),
		MemTableSize:                64 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       6,
		L0StopWritesThreshold:       12,
		LBaseMaxBytes:               1 << 30,
		MaxConcurrentCompactions:    func() int { return 1 },
		Levels: func() []pebble.LevelOptions {
			lvls := make([]pebble.LevelOptions, 7)
			for i := range lvls {
				lvls[i] = pebble.LevelOptions{
					TargetFileSize: 64 << 20,
					BlockSize:      8 << 10,
					FilterPolicy:   bloom.FilterPolicy(10),
					FilterType:     pebble.TableFilter,
				}
			}
			return lvls
		}(),
	}
}

type pebbleDB struct {
	path string
	db   *pebble.DB

	mu      sync.RWMutex
	onFail  FailureFunc
}

// Open opens (or creates) a pebble store at path. A failed open is fatal:
// the caller decides whether to retry or abort, matching the distilled
// spec's "checkpoint file cannot be opened/mapped -> indexer refuses to
// start" policy extended to the KV store itself.
func Open(path string) (KVDB, error) {
	db, err := pebble.Open(path, buildOptions())
	if err != nil {
		return nil, err
	}
	return &pebbleDB{path: path, db: db}, nil
}

func (p *pebbleDB) OnFailure(cb FailureFunc) {
	p.mu.Lock()
	p.onFail = cb
	p.mu.Unlock()
}

func (p *pebbleDB) fail(err error) error {
	p.mu.RLock()
	cb := p.onFail
	p.mu.RUnlock()
	if cb != nil {
		cb(err)
	}
	return err
}

func (p *pebbleDB) Put(key, value []byte) error {
	if err := p.db.Set(key, value, pebble.Sync); err != nil {
		return p.fail(err)
	}
	return nil
}

func (p *pebbleDB) Remove(key []byte) error {
	if err := p.db.Delete(key, pebble.Sync); err != nil {
		return p.fail(err)
	}
	return nil
}

func (p *pebbleDB) Exists(key []byte) bool {
	v, closer, err := p.db.Get(key)
	if err != nil {
		return false
	}
	closer.Close()
	_ = v
	return true
}

func (p *pebbleDB) GetBytes(key []byte) ([]byte, bool, error) {
	v, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, p.fail(err)
	}
	defer closer.Close()
	out := append([]byte{}, v...)
	return out, true, nil
}

func (p *pebbleDB) GetString(key []byte) (string, bool, error) {
	v, ok, err := p.GetBytes(key)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(v), true, nil
}

func (p *pebbleDB) GetInt64(key []byte) (int64, bool, error) {
	v, ok, err := p.GetBytes(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if len(v) != 8 {
		return 0, false, errors.New("kvstore: value is not an 8-byte little-endian integer")
	}
	return int64(binary.LittleEndian.Uint64(v)), true, nil
}

// nextPrefix returns the lexicographically-smallest key strictly greater
// than every key sharing prefix, for use as an iterator upper bound. A
// prefix of all 0xFF bytes has no such bound and returns nil.
func nextPrefix(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	out := append([]byte{}, prefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

func (p *pebbleDB) ScanPrefix(prefix []byte, fn func(k, v []byte) bool) error {
	var lower, upper []byte
	if len(prefix) > 0 {
		lower = prefix
		upper = nextPrefix(prefix)
	}
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return p.fail(err)
	}
	defer it.Close()

	var ok bool
	if len(prefix) > 0 {
		ok = it.SeekGE(prefix)
	} else {
		ok = it.First()
	}
	for ; ok; ok = it.Next() {
		k := it.Key()
		if len(prefix) > 0 && upper == nil && !bytes.HasPrefix(k, prefix) {
			break
		}
		if !fn(append([]byte{}, k...), append([]byte{}, it.Value()...)) {
			break
		}
	}
	return it.Error()
}

func (p *pebbleDB) Size() (int64, error) {
	var n int64
	err := p.ScanPrefix(nil, func(k, v []byte) bool {
		n++
		return true
	})
	return n, err
}

func (p *pebbleDB) First() ([]byte, []byte, bool, error) {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return nil, nil, false, p.fail(err)
	}
	defer it.Close()
	if !it.First() {
		return nil, nil, false, it.Error()
	}
	return append([]byte{}, it.Key()...), append([]byte{}, it.Value()...), true, it.Error()
}

func (p *pebbleDB) Last() ([]byte, []byte, bool, error) {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return nil, nil, false, p.fail(err)
	}
	defer it.Close()
	if !it.Last() {
		return nil, nil, false, it.Error()
	}
	return append([]byte{}, it.Key()...), append([]byte{}, it.Value()...), true, it.Error()
}

func (p *pebbleDB) Close() error {
	return p.db.Close()
}

type pebbleWriteBatch struct {
	db     *pebble.DB
	batch  *pebble.Batch
	closed bool
}

func (p *pebbleDB) NewWriteBatch() WriteBatch {
	return &pebbleWriteBatch{db: p.db, batch: p.db.NewBatch()}
}

func (b *pebbleWriteBatch) ensureCapacity(extra int) error {
	if b.closed {
		return errors.New("kvstore: write batch closed")
	}
	if b.batch.Len()+extra >= maxBatchSize {
		if err := b.batch.Commit(pebble.Sync); err != nil {
			return err
		}
		b.batch.Close()
		b.batch = b.db.NewBatch()
	}
	return nil
}

func (b *pebbleWriteBatch) Put(key, value []byte) error {
	if b.closed {
		return errors.New("kvstore: write batch closed")
	}
	if len(key)+len(value) >= maxItemSize {
		single := b.db.NewBatch()
		defer single.Close()
		if err := single.Set(key, value, nil); err != nil {
			return err
		}
		return single.Commit(pebble.Sync)
	}
	if err := b.ensureCapacity(len(key) + len(value)); err != nil {
		return err
	}
	return b.batch.Set(key, value, nil)
}

func (b *pebbleWriteBatch) Delete(key []byte) error {
	if b.closed {
		return errors.New("kvstore: write batch closed")
	}
	if err := b.ensureCapacity(len(key)); err != nil {
		return err
	}
	return b.batch.Delete(key, nil)
}

func (b *pebbleWriteBatch) Flush() error {
	if b.closed {
		return errors.New("kvstore: write batch closed")
	}
	return b.batch.Commit(pebble.Sync)
}

func (b *pebbleWriteBatch) Cancel() {
	if b.closed {
		return
	}
	b.closed = true
	_ = b.batch.Close()
}

// ReopenWithRetry implements the §7 "storage not open" recovery: a single
// lazy reinit with bounded retries, reopening the same path.
func ReopenWithRetry(path string) (KVDB, error) {
	var db KVDB
	err := retry.Do(
		func() error {
			opened, err := Open(path)
			if err != nil {
				log.Warnf("reopen %s failed: %v", path, err)
				return err
			}
			db = opened
			return nil
		},
		retry.Attempts(3),
	)
	return db, err
}
