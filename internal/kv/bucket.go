package kv

import (
	bolt "go.etcd.io/bbolt"

	"github.com/kayyagari/barn/internal/keycodec"
)

// Bucket wraps a single bbolt bucket and knows how to lay out keys for
// the two roles barn needs: a primary (integer-keyed) partition, and
// a secondary-index partition (unique or non-unique).
type Bucket struct {
	b *bolt.Bucket
}

// reverse returns the byte-reversed copy of b. Reversing an 8-byte
// little-endian encoding yields its big-endian mirror, which sorts
// correctly under bbolt's byte-wise key comparison.
func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

func pkBucketKey(pk uint64) []byte {
	return reverse(keycodec.EncodePK(pk))
}

// --- Primary partition ---

// GetCounter reads the pk counter stored at the sentinel key LE64(0).
func (bkt *Bucket) GetCounter() (pk uint64, ok bool) {
	raw := bkt.b.Get(pkBucketKey(0))
	if raw == nil {
		return 0, false
	}
	v, err := keycodec.DecodePK(reverse(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

// PutCounter overwrites the pk counter. Unlike primary document rows,
// the counter write always allows overwrite.
func (bkt *Bucket) PutCounter(pk uint64) error {
	return bkt.b.Put(pkBucketKey(0), reverse(keycodec.EncodePK(pk)))
}

// GetPrimary point-looks-up a document row by pk.
func (bkt *Bucket) GetPrimary(pk uint64) (value []byte, ok bool) {
	raw := bkt.b.Get(pkBucketKey(pk))
	if raw == nil {
		return nil, false
	}
	return raw, true
}

// PutPrimaryNoOverwrite writes a fresh document row. It emulates the
// engine's NO_OVERWRITE write flag: if pk already has a row, it
// returns ErrKeyExists instead of silently clobbering it.
func (bkt *Bucket) PutPrimaryNoOverwrite(pk uint64, value []byte) error {
	key := pkBucketKey(pk)
	if bkt.b.Get(key) != nil {
		return ErrKeyExists
	}
	return bkt.b.Put(key, value)
}

// Cursor returns a cursor over the primary partition, for the scanner.
func (bkt *Bucket) Cursor() *PrimaryCursor {
	return &PrimaryCursor{c: bkt.b.Cursor()}
}

// PrimaryCursor iterates a primary partition in ascending pk order.
type PrimaryCursor struct {
	c *bolt.Cursor
}

// SeekFromOne positions the cursor at the first row with pk >= 1,
// deterministically skipping the sentinel counter row at pk 0.
func (pc *PrimaryCursor) SeekFromOne() (pk uint64, value []byte, ok bool) {
	k, v := pc.c.Seek(pkBucketKey(1))
	return decodeCursorRow(k, v)
}

// Next advances the cursor.
func (pc *PrimaryCursor) Next() (pk uint64, value []byte, ok bool) {
	k, v := pc.c.Next()
	return decodeCursorRow(k, v)
}

func decodeCursorRow(k, v []byte) (pk uint64, value []byte, ok bool) {
	if k == nil {
		return 0, nil, false
	}
	decoded, err := keycodec.DecodePK(reverse(k))
	if err != nil {
		return 0, nil, false
	}
	return decoded, v, true
}

// --- Secondary index partitions ---

// PutUnique emulates a unique index's no-overwrite write: a second
// insert under the same key fails with ErrKeyExists.
func (bkt *Bucket) PutUnique(key, payload []byte) error {
	if bkt.b.Get(key) != nil {
		return ErrKeyExists
	}
	return bkt.b.Put(key, payload)
}

// PutNonUnique emulates a non-unique index's INTEGER_DUP|DUP_SORT|
// DUP_FIXED sub-database. bbolt has no native duplicate-key support,
// so each (indexed value, pk) pair is flattened into a single
// composite key, indexed-key bytes followed by the big-endian pk: the
// standard way secondary indices are built on top of a plain ordered
// key-value store (see the grounding note in SPEC_FULL.md §4.3). Writing the
// identical (key, pk) pair again overwrites the same composite key
// with the same payload, a true no-op matching NO_DUP_DATA semantics.
func (bkt *Bucket) PutNonUnique(key []byte, pk uint64, payload []byte) error {
	composite := make([]byte, 0, len(key)+8)
	composite = append(composite, key...)
	composite = append(composite, reverse(keycodec.EncodePK(pk))...)
	return bkt.b.Put(composite, payload)
}
