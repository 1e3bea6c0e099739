/*
Package scanner implements the read-only search path: iterate a
barrel's primary partition in pk order, decode each row, evaluate a
JSONPath predicate against it, and stream matches out on a channel.
*/
package scanner

import (
	"context"
	"encoding/json"

	"github.com/spyzhov/ajson"

	"github.com/kayyagari/barn/internal/bnerr"
	"github.com/kayyagari/barn/internal/codec"
	"github.com/kayyagari/barn/internal/kv"
	"github.com/kayyagari/barn/internal/log"
)

// Match is one document that satisfied the scan's predicate, already
// re-serialized to canonical textual JSON.
type Match struct {
	PK   uint64
	JSON []byte
}

// Scan iterates bucket's primary partition starting after the pk
// counter sentinel, evaluates query against every decoded document,
// and sends each match on sink. It must run inside a read-only
// transaction (see kv.Env.View) so the snapshot it observes never
// shifts under it.
//
// Scan returns cleanly, without error, when the consumer cancels ctx
// mid-scan: this is the Go equivalent of a dropped-receiver
// cancellation on a channel send. A malformed query aborts immediately
// with BadSearchFilter; a single row's decode failure aborts the whole
// scan with Deserialization, since a corrupt row signals a store-level
// problem the caller needs to see, not a per-row condition to skip.
func Scan(ctx context.Context, bucket *kv.Bucket, query string, sink chan<- Match) error {
	logger := log.WithComponent("scanner")

	// Validate query once, up front, against an empty object. A
	// syntactically broken JSONPath expression fails the same way
	// regardless of which document it is run against, and this catches
	// it even when bucket has zero rows, where the per-row check below
	// would never run.
	probe, err := ajson.Unmarshal([]byte("{}"))
	if err != nil {
		return bnerr.Wrap(bnerr.BadSearchFilter, "scanner: internal probe document invalid", err)
	}
	if _, err := probe.JSONPath(query); err != nil {
		return bnerr.Wrap(bnerr.BadSearchFilter, "scanner: invalid jsonpath query "+query, err)
	}

	cursor := bucket.Cursor()
	count := 0
	for pk, raw, ok := cursor.SeekFromOne(); ok; pk, raw, ok = cursor.Next() {
		select {
		case <-ctx.Done():
			logger.Debug().Int("matched", count).Msg("scan canceled by consumer")
			return nil
		default:
		}

		doc, err := codec.Decode(raw)
		if err != nil {
			return bnerr.Wrap(bnerr.Deserialization, "scanner: failed to decode row", err)
		}

		matched, err := matches(doc, query)
		if err != nil {
			return bnerr.Wrap(bnerr.BadSearchFilter, "scanner: invalid jsonpath query "+query, err)
		}
		if !matched {
			continue
		}

		asJSON, err := json.Marshal(doc)
		if err != nil {
			return bnerr.Wrap(bnerr.Serialization, "scanner: failed to render match as json", err)
		}

		select {
		case sink <- Match{PK: pk, JSON: asJSON}:
			count++
		case <-ctx.Done():
			logger.Debug().Int("matched", count).Msg("scan canceled by consumer mid-send")
			return nil
		}
	}

	logger.Debug().Int("matched", count).Msg("scan complete")
	return nil
}

// matches reports whether query selects at least one node within doc.
func matches(doc map[string]interface{}, query string) (bool, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return false, err
	}
	root, err := ajson.Unmarshal(encoded)
	if err != nil {
		return false, err
	}
	nodes, err := root.JSONPath(query)
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}
