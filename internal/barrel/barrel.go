/*
Package barrel implements one resource partition: its primary bucket,
its set of secondary indices, the id-attribute injection policy, and
the atomic insert pipeline.
*/
package barrel

import (
	"fmt"
	"strconv"

	"github.com/kayyagari/barn/internal/bnerr"
	"github.com/kayyagari/barn/internal/codec"
	"github.com/kayyagari/barn/internal/index"
	"github.com/kayyagari/barn/internal/kv"
	"github.com/kayyagari/barn/internal/log"
)

// Id attribute type tags.
const (
	IDAttrTypeString  = "string"
	IDAttrTypeInteger = "integer"
)

// Barrel is one resource's partition: its primary bucket, the
// configured id-attribute policy, and the indices declared on it.
type Barrel struct {
	ResourceName string // as configured, original case
	BucketName   string // resource name lowercased
	IDAttrName   string
	IDAttrType   string
	Indices      []*index.Index
}

// New builds a Barrel descriptor. It does not open or create any
// bucket; that happens once, inside the catalog's opening transaction,
// alongside every other resource's buckets.
func New(resourceName, idAttrName, idAttrType string, indices []*index.Index) *Barrel {
	return &Barrel{
		ResourceName: resourceName,
		BucketName:   lower(resourceName),
		IDAttrName:   idAttrName,
		IDAttrType:   idAttrType,
		Indices:      indices,
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Insert runs the full state machine: read-counter -> mutate-doc ->
// encode -> index-loop -> primary-write -> counter-write. raw must be
// a JSON object (map[string]interface{}); anything else fails with
// InvalidResourceData. On success it returns the freshly allocated pk.
func (b *Barrel) Insert(tx *kv.Tx, raw interface{}) (uint64, error) {
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return 0, bnerr.New(bnerr.InvalidResourceData, "document must be a JSON object")
	}

	primary, ok := tx.Bucket(b.BucketName)
	if !ok {
		return 0, bnerr.New(bnerr.EnvOpen, "primary bucket not found for resource "+b.ResourceName)
	}

	pk := uint64(1)
	if counter, present := primary.GetCounter(); present {
		pk = counter + 1
	}

	var pkVal interface{}
	if b.IDAttrType == IDAttrTypeString {
		pkVal = strconv.FormatUint(pk, 10)
	} else {
		pkVal = pk
	}

	if existing, had := doc[b.IDAttrName]; had {
		log.WithBarrel(b.ResourceName).Trace().
			Interface("dropped_value", existing).
			Str("id_attr", b.IDAttrName).
			Msg("dropping caller-supplied id attribute value")
	}
	doc[b.IDAttrName] = pkVal

	encoded, err := codec.Encode(doc)
	if err != nil {
		return 0, bnerr.Wrap(bnerr.Serialization, "failed to encode document", err)
	}

	// Indices are written before the primary row so a unique-constraint
	// violation aborts the transaction before any visible state changes.
	for _, idx := range b.Indices {
		idxBucket, ok := tx.Bucket(idx.BucketName)
		if !ok {
			return 0, bnerr.New(bnerr.EnvOpen, "index bucket not found: "+idx.Name)
		}
		if err := idx.Insert(idxBucket, doc, pk); err != nil {
			return 0, err
		}
	}

	if err := primary.PutPrimaryNoOverwrite(pk, encoded); err != nil {
		return 0, bnerr.Wrap(bnerr.TxWrite, fmt.Sprintf("failed to write primary row for pk %d", pk), err)
	}

	if err := primary.PutCounter(pk); err != nil {
		return 0, bnerr.Wrap(bnerr.TxWrite, "failed to advance pk counter", err)
	}

	return pk, nil
}

// Get point-looks-up a document by pk. pk <= 0 is always
// ResourceNotFound: 0 is the reserved sentinel counter row, and
// negative ids never exist.
func (b *Barrel) Get(tx *kv.Tx, pk int64) (map[string]interface{}, error) {
	if pk <= 0 {
		return nil, bnerr.New(bnerr.ResourceNotFound, "pk must be positive")
	}

	primary, ok := tx.Bucket(b.BucketName)
	if !ok {
		return nil, bnerr.New(bnerr.EnvOpen, "primary bucket not found for resource "+b.ResourceName)
	}

	raw, found := primary.GetPrimary(uint64(pk))
	if !found {
		return nil, bnerr.New(bnerr.ResourceNotFound, fmt.Sprintf("no resource with pk %d", pk))
	}

	doc, err := codec.Decode(raw)
	if err != nil {
		return nil, bnerr.Wrap(bnerr.Deserialization, fmt.Sprintf("failed to decode resource with pk %d", pk), err)
	}
	return doc, nil
}
