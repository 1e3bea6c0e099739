/*
Package kv is the engine adapter: it implements, on top of
go.etcd.io/bbolt, the small subset of an LMDB-class engine's contract
that barn's core depends on: named buckets with NO_OVERWRITE /
fixed-size "duplicate" semantics, begin_rw/begin_ro transactions,
commit/abort, without leaking bbolt types into the barrel/index/catalog
layers above it.

bbolt compares bucket keys byte-wise (bytes.Compare), unlike an
LMDB-class engine opened with INTEGER_KEY/INTEGER_DUP, which compares
the 8 key bytes as a native machine integer regardless of their byte
order. To get correct ascending pk order out of bbolt's cursor, every
pk this package writes into a key (primary rows, the counter row, and
the pk suffix of non-unique index keys) is the big-endian mirror of the
canonical little-endian key internal/keycodec produces; see reverse
below. Secondary-index keys themselves are stored exactly as
internal/keycodec encodes them, so integer, number and date index keys
keep their little-endian layout and are not in numeric order under
bbolt's byte-wise comparison. Index value payloads (which are never
range-scanned) also keep their canonical little-endian form.
*/
package kv

import (
	"errors"

	bolt "go.etcd.io/bbolt"

	"github.com/kayyagari/barn/internal/log"
)

// ErrKeyExists is returned when a write violates a bucket's
// no-overwrite policy (the emulated NO_OVERWRITE write flag).
var ErrKeyExists = errors.New("kv: key already exists")

// Env owns the bbolt environment (one data file) shared by every
// resource's primary bucket and index buckets.
type Env struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt data file at path.
//
// sizeHintBytes and noSync mirror DbConfig.db_size/no_sync hints.
// bbolt grows its memory-mapped file automatically, so sizeHintBytes
// is accepted but unused: it exists purely so callers built against
// the engine contract compile unchanged against an engine that
// self-sizes. noSync relaxes durability by skipping fsync on commit,
// trading crash-safety for bulk-load throughput.
func Open(path string, sizeHintBytes int64, noSync bool) (*Env, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	db.NoSync = noSync
	return &Env{db: db}, nil
}

// Close releases the environment's file handle.
func (e *Env) Close() error {
	return e.db.Close()
}

// Update runs fn inside a read-write transaction, committing on a nil
// return and aborting (rolling back) otherwise. bbolt serializes all
// writers for the environment, matching the single-writer model the
// underlying engine is expected to provide.
func (e *Env) Update(fn func(tx *Tx) error) error {
	return e.db.Update(func(btx *bolt.Tx) error {
		return fn(&Tx{tx: btx})
	})
}

// View runs fn inside a read-only snapshot transaction. Readers never
// block writers or each other.
func (e *Env) View(fn func(tx *Tx) error) error {
	return e.db.View(func(btx *bolt.Tx) error {
		return fn(&Tx{tx: btx})
	})
}

// CompactHint is a best-effort post-bulk-load hint. bbolt has no
// online incremental compaction primitive (a real compaction requires
// copying live pages into a fresh file and swapping it in, which is
// disruptive enough that it does not belong in a per-resource hint
// fired after every bulk load); this logs the environment's current
// page/free-page counts so an operator can judge whether an offline
// compaction pass (the `bbolt compact` tool, outside this module's
// scope) is warranted.
func (e *Env) CompactHint(resource string) {
	stats := e.db.Stats()
	log.WithResource(resource).Info().
		Int("free_page_n", stats.FreePageN).
		Int("pending_page_n", stats.PendingPageN).
		Msg("compaction hint: resource bulk load complete")
}

// Tx wraps a bbolt transaction.
type Tx struct {
	tx *bolt.Tx
}

// CreateBucketIfNotExists creates (or opens) a named bucket: barn's
// analogue of an LMDB named sub-database.
func (t *Tx) CreateBucketIfNotExists(name string) (*Bucket, error) {
	b, err := t.tx.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return nil, err
	}
	return &Bucket{b: b}, nil
}

// Bucket opens an existing named bucket. ok is false if it does not exist.
func (t *Tx) Bucket(name string) (bucket *Bucket, ok bool) {
	b := t.tx.Bucket([]byte(name))
	if b == nil {
		return nil, false
	}
	return &Bucket{b: b}, true
}
