// Package kvstore is the KV Store façade: ordered, prefix-iterable
// key-value persistence with typed get/put/remove and an asynchronous
// failure event, backed by pebble.
package kvstore

import "errors"

var ErrKeyNotFound = errors.New("key not found")

// WriteBatch batches mutations for a single logical commit. The indexer
// driver is the only writer; it opens one batch per applied block. The
// pebble implementation commits early once a batch would reach
// maxBatchSize, and writes an item of maxItemSize or more in its own
// immediate commit; mutations committed that way are not discarded by
// Cancel.
type WriteBatch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Flush() error
	Cancel()
}

// FailureFunc receives asynchronous storage failures. It must not block;
// the driver logs and may attempt a lazy reinit-and-retry from it.
type FailureFunc func(err error)

// KVDB is the façade every core component depends on. A single writer
// (the Indexer Driver) and any number of concurrent readers (the Query
// Surface) may use the same KVDB concurrently.
type KVDB interface {
	Put(key, value []byte) error
	Remove(key []byte) error
	Exists(key []byte) bool

	GetBytes(key []byte) ([]byte, bool, error)
	GetString(key []byte) (string, bool, error)
	GetInt64(key []byte) (int64, bool, error)

	// ScanPrefix iterates keys with the given prefix in lexicographic
	// order. fn returns whether iteration should continue.
	ScanPrefix(prefix []byte, fn func(k, v []byte) bool) error

	Size() (int64, error)
	First() (key, value []byte, ok bool, err error)
	Last() (key, value []byte, ok bool, err error)

	NewWriteBatch() WriteBatch

	// OnFailure registers the single failure-event listener. Only the
	// Indexer Driver registers one, per the concurrency model.
	OnFailure(cb FailureFunc)

	Close() error
}
