/*
Package codec implements barn's document binary format: MessagePack
via vmihailenco/msgpack, filling the same role serde's msgpack binding
(rmps) fills for a Rust document store.

A document is always a JSON-object-shaped value, decoded here as
map[string]interface{}. Round-tripping through Encode/Decode preserves
the document's value equality modulo number-type widening: integers
decode as int64/uint64 and floats as float64, regardless of how
narrowly they could fit.
*/
package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Document is the in-memory shape of a persisted resource body.
type Document = map[string]interface{}

// Encode serializes a document to its on-disk byte representation.
func Encode(doc Document) ([]byte, error) {
	b, err := msgpack.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("codec: encode failed: %w", err)
	}
	return b, nil
}

// Decode deserializes a document from its on-disk byte representation.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("codec: decode failed: %w", err)
	}
	return doc, nil
}
