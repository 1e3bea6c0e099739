/*
Package index implements a single secondary index descriptor: its
attribute path, declared value type/format, uniqueness, and its insert
contract.
*/
package index

import (
	"strings"

	"github.com/kayyagari/barn/internal/bnerr"
	"github.com/kayyagari/barn/internal/keycodec"
	"github.com/kayyagari/barn/internal/kv"
	"github.com/kayyagari/barn/internal/log"
)

// Index describes one secondary index owned by a Barrel.
type Index struct {
	Name       string // "<resource_lowercased>_<attr_path_dotted>"
	AtPath     string // JSON Pointer form: "." rewritten to "/", leading "/"
	ValType    string // "string" | "integer" | "number"
	ValFormat  string // "" | "date" | "date-time"
	Unique     bool
	BucketName string
}

// New builds an Index descriptor. dottedPath is the attr_path as given
// in DbConfig (e.g. "location.lat").
func New(resourceLower, dottedPath, valType, valFormat string, unique bool) *Index {
	return &Index{
		Name:       resourceLower + "_" + dottedPath,
		AtPath:     "/" + strings.ReplaceAll(dottedPath, ".", "/"),
		ValType:    valType,
		ValFormat:  valFormat,
		Unique:     unique,
		BucketName: resourceLower + "_" + dottedPath,
	}
}

// Insert computes this index's key from doc and writes (key -> pk)
// into its bucket.
//
//   - If the value at AtPath is missing, or present but not coercible
//     to ValType, the write is silently skipped (nil, nil). The
//     document still lands in the primary partition; the index is
//     allowed to be non-exhaustive over sparse optional attributes.
//   - If the value is of the right shape but fails a stricter parse
//     (e.g. a malformed date string), the whole insert must abort with
//     InvalidAttributeValue.
//   - If ValType itself is unsupported, the whole insert must abort
//     with UnsupportedIndexValueType.
//   - A unique-index collision aborts with TxWrite.
func (idx *Index) Insert(bucket *kv.Bucket, doc map[string]interface{}, pk uint64) error {
	raw, found := lookup(doc, idx.AtPath)
	if !found {
		return nil
	}

	key, ok, err := keycodec.EncodeIndexKey(idx.ValType, idx.ValFormat, raw)
	if err != nil {
		if strings.Contains(err.Error(), "unsupported index value type") {
			return bnerr.Wrap(bnerr.UnsupportedIndexValueType, idx.Name, err)
		}
		return bnerr.Wrap(bnerr.InvalidAttributeValue, idx.Name, err)
	}
	if !ok {
		log.WithComponent("index").Debug().
			Str("index", idx.Name).
			Msg("indexed value missing or not coercible to declared type, skipping")
		return nil
	}

	payload := keycodec.IndexValuePayload(pk)

	if idx.Unique {
		if putErr := bucket.PutUnique(key, payload); putErr != nil {
			return bnerr.Wrap(bnerr.TxWrite, "unique index violation on "+idx.Name, putErr)
		}
		return nil
	}

	if putErr := bucket.PutNonUnique(key, pk, payload); putErr != nil {
		return bnerr.Wrap(bnerr.TxWrite, "failed to write non-unique index "+idx.Name, putErr)
	}
	return nil
}

// lookup resolves a JSON Pointer path (as produced by New's AtPath)
// against a decoded document.
func lookup(doc map[string]interface{}, pointer string) (interface{}, bool) {
	if pointer == "" || pointer == "/" {
		return doc, true
	}
	segments := strings.Split(strings.TrimPrefix(pointer, "/"), "/")

	var cur interface{} = doc
	for _, seg := range segments {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
