package scanner

import (
	"context"
	"testing"

	"github.com/kayyagari/barn/internal/barrel"
	"github.com/kayyagari/barn/internal/bnerr"
	"github.com/kayyagari/barn/internal/kv"
)

func openTestEnv(t *testing.T, bucketName string) *kv.Env {
	t.Helper()
	path := t.TempDir() + "/scan.db"
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
	return env
}

func seedDocs(t *testing.T, env *kv.Env, b *barrel.Barrel, docs []map[string]interface{}) {
	t.Helper()
	for _, d := range docs {
		err := env.Update(func(tx *kv.Tx) error {
			_, e := b.Insert(tx, d)
			return e
		})
		if err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}
}

func TestScanSkipsSentinelAndMatchesAll(t *testing.T) {
	b := barrel.New("Business", "id", barrel.IDAttrTypeInteger, nil)
	env := openTestEnv(t, b.BucketName)
	seedDocs(t, env, b, []map[string]interface{}{
		{"name": "acme"},
		{"name": "globex"},
		{"name": "initech"},
	})

	var matches []Match
	err := env.View(func(tx *kv.Tx) error {
		bucket, ok := tx.Bucket(b.BucketName)
		if !ok {
			t.Fatal("bucket missing")
		}
		sink := make(chan Match, 8)
		done := make(chan struct{})
		var scanErr error
		go func() {
			scanErr = Scan(context.Background(), bucket, "$", sink)
			close(sink)
			close(done)
		}()
		for m := range sink {
			matches = append(matches, m)
		}
		<-done
		return scanErr
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("matched %d documents, want 3 (sentinel counter row must never be yielded)", len(matches))
	}
}

func TestScanFilterNarrowsResults(t *testing.T) {
	b := barrel.New("Business", "id", barrel.IDAttrTypeInteger, nil)
	env := openTestEnv(t, b.BucketName)
	seedDocs(t, env, b, []map[string]interface{}{
		{"country_code": "US"},
		{"country_code": "CA"},
		{"country_code": "US"},
	})

	var matches []Match
	err := env.View(func(tx *kv.Tx) error {
		bucket, ok := tx.Bucket(b.BucketName)
		if !ok {
			t.Fatal("bucket missing")
		}
		sink := make(chan Match, 8)
		done := make(chan struct{})
		var scanErr error
		go func() {
			scanErr = Scan(context.Background(), bucket, `$[?(@.country_code == "US")]`, sink)
			close(sink)
			close(done)
		}()
		for m := range sink {
			matches = append(matches, m)
		}
		<-done
		return scanErr
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matched %d documents, want 2", len(matches))
	}
}

func TestScanCancellationStopsCleanly(t *testing.T) {
	b := barrel.New("Business", "id", barrel.IDAttrTypeInteger, nil)
	env := openTestEnv(t, b.BucketName)
	docs := make([]map[string]interface{}, 0, 50)
	for i := 0; i < 50; i++ {
		docs = append(docs, map[string]interface{}{"name": "row"})
	}
	seedDocs(t, env, b, docs)

	err := env.View(func(tx *kv.Tx) error {
		bucket, ok := tx.Bucket(b.BucketName)
		if !ok {
			t.Fatal("bucket missing")
		}
		ctx, cancel := context.WithCancel(context.Background())
		sink := make(chan Match) // unbuffered: first send blocks until canceled
		done := make(chan struct{})
		var scanErr error
		go func() {
			scanErr = Scan(ctx, bucket, "$", sink)
			close(done)
		}()
		cancel()
		<-done
		return scanErr
	})
	if err != nil {
		t.Fatalf("expected clean return on cancellation, got %v", err)
	}
}

func TestScanBadFilterIsBadSearchFilter(t *testing.T) {
	b := barrel.New("Business", "id", barrel.IDAttrTypeInteger, nil)
	env := openTestEnv(t, b.BucketName)
	seedDocs(t, env, b, []map[string]interface{}{{"name": "acme"}})

	err := env.View(func(tx *kv.Tx) error {
		bucket, ok := tx.Bucket(b.BucketName)
		if !ok {
			t.Fatal("bucket missing")
		}
		sink := make(chan Match, 1)
		return Scan(context.Background(), bucket, "$[?(", sink)
	})
	if err == nil {
		t.Fatal("expected an error for a malformed jsonpath expression")
	}
	if !bnerr.Is(err, bnerr.BadSearchFilter) {
		t.Fatalf("expected BadSearchFilter, got %v", err)
	}
}

func TestScanBadFilterIsBadSearchFilterOnEmptyBucket(t *testing.T) {
	b := barrel.New("Business", "id", barrel.IDAttrTypeInteger, nil)
	env := openTestEnv(t, b.BucketName)

	err := env.View(func(tx *kv.Tx) error {
		bucket, ok := tx.Bucket(b.BucketName)
		if !ok {
			t.Fatal("bucket missing")
		}
		sink := make(chan Match, 1)
		return Scan(context.Background(), bucket, "$[?(", sink)
	})
	if err == nil {
		t.Fatal("expected an error for a malformed jsonpath expression against an empty bucket")
	}
	if !bnerr.Is(err, bnerr.BadSearchFilter) {
		t.Fatalf("expected BadSearchFilter, got %v", err)
	}
}
