package index

import (
	"testing"

	"github.com/kayyagari/barn/internal/bnerr"
	"github.com/kayyagari/barn/internal/kv"
)

func openTestBucket(t *testing.T, bucketName string) (*kv.Env, func(fn func(*kv.Bucket) error) error) {
	t.Helper()
	path := t.TempDir() + "/idx.db"
	env, err := kv.Open(path, 0, false)
	if err != nil {
		t.Fatalf("kv.Open: %v", err)
	}
	t.Cleanup(func() { env.Close() })

	if err := env.Update(func(tx *kv.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		t.Fatalf("create bucket: %v", err)
	}

	withBucket := func(fn func(*kv.Bucket) error) error {
		return env.Update(func(tx *kv.Tx) error {
			b, ok := tx.Bucket(bucketName)
			if !ok {
				t.Fatal("bucket missing")
			}
			return fn(b)
		})
	}
	return env, withBucket
}

func TestIndexInsertUnique(t *testing.T) {
	idx := New("business", "reg_id", "string", "", true)
	_, withBucket := openTestBucket(t, idx.BucketName)

	doc := map[string]interface{}{"reg_id": "X1"}

	err := withBucket(func(b *kv.Bucket) error {
		return idx.Insert(b, doc, 1)
	})
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err = withBucket(func(b *kv.Bucket) error {
		return idx.Insert(b, doc, 2)
	})
	if !bnerr.Is(err, bnerr.TxWrite) {
		t.Fatalf("expected TxWrite on duplicate unique key, got %v", err)
	}
}

func TestIndexInsertNonUniqueIdempotent(t *testing.T) {
	idx := New("business", "country_code", "string", "", false)
	_, withBucket := openTestBucket(t, idx.BucketName)

	doc := map[string]interface{}{"country_code": "US"}

	for i := 0; i < 2; i++ {
		err := withBucket(func(b *kv.Bucket) error {
			return idx.Insert(b, doc, 1)
		})
		if err != nil {
			t.Fatalf("insert #%d: %v", i, err)
		}
	}
}

func TestIndexInsertMissingAttributeSkipsSilently(t *testing.T) {
	idx := New("business", "website", "string", "", true)
	_, withBucket := openTestBucket(t, idx.BucketName)

	doc := map[string]interface{}{"reg_id": "X1"}

	err := withBucket(func(b *kv.Bucket) error {
		return idx.Insert(b, doc, 1)
	})
	if err != nil {
		t.Fatalf("expected nil error for missing indexed attribute, got %v", err)
	}
}

func TestIndexInsertUnsupportedValueType(t *testing.T) {
	idx := New("business", "flag", "boolean", "", false)
	_, withBucket := openTestBucket(t, idx.BucketName)

	doc := map[string]interface{}{"flag": true}

	err := withBucket(func(b *kv.Bucket) error {
		return idx.Insert(b, doc, 1)
	})
	if !bnerr.Is(err, bnerr.UnsupportedIndexValueType) {
		t.Fatalf("expected UnsupportedIndexValueType, got %v", err)
	}
}
