/*
Package barn implements a schema-aware embedded document store over a
transactional, ordered key-value engine: one primary partition and a
set of secondary-index partitions per configured resource, surrogate
integer primary keys, and JSONPath-filtered scans.
*/
package barn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kayyagari/barn/internal/barrel"
	"github.com/kayyagari/barn/internal/bnerr"
	"github.com/kayyagari/barn/internal/index"
	"github.com/kayyagari/barn/internal/kv"
	"github.com/kayyagari/barn/internal/loader"
	"github.com/kayyagari/barn/internal/log"
	"github.com/kayyagari/barn/internal/metrics"
	"github.com/kayyagari/barn/internal/scanner"
	"github.com/kayyagari/barn/internal/schema"
)

// Barn is the catalog façade: the opened KV environment plus one
// Barrel per configured resource. It is logically immutable after
// Open except for Close.
type Barn struct {
	env     *kv.Env
	barrels map[string]*barrel.Barrel
	schema  map[string]interface{}
}

// Open brings up the store at path: creates (or opens) the KV
// environment, then materializes one Barrel (with its primary
// partition and secondary-index partitions) per resource named in
// conf.Resources, resolving each index's declared type/format against
// schemaDoc. schemaDoc may be nil, in which case every index falls
// back to a bare string type: no type coercion, no date parsing.
func Open(path string, conf DbConfig, schemaDoc map[string]interface{}) (*Barn, error) {
	if len(conf.Resources) == 0 {
		return nil, bnerr.New(bnerr.DbConfig, "no resources found in configuration")
	}

	env, err := kv.Open(path, conf.DbSize, conf.NoSync)
	if err != nil {
		return nil, bnerr.Wrap(bnerr.EnvOpen, "failed to open db environment at "+path, err)
	}
	log.WithComponent("barn").Info().Str("path", path).Msg("opened db environment")

	barrels := make(map[string]*barrel.Barrel, len(conf.Resources))

	txErr := env.Update(func(tx *kv.Tx) error {
		for rname, rconf := range conf.Resources {
			if conf.AllowConfResourcesOnly {
				if _, ok := conf.Resources[rname]; !ok {
					continue
				}
			}

			resDef := resolveResourceDef(schemaDoc, rname)

			indices := make([]*index.Index, 0, len(rconf.Indices))
			lowerName := strings.ToLower(rname)
			for _, ic := range rconf.Indices {
				valType, valFormat := "string", ""
				if resDef != nil {
					vt, vf, err := schema.ResolveAttrType(schemaDoc, resDef, ic.AttrPath)
					if err == nil {
						valType, valFormat = vt, vf
					} else {
						log.WithResource(rname).Info().
							Str("attr_path", ic.AttrPath).
							Msg("attribute type not resolvable from schema, indexing as string")
					}
				}
				idx := index.New(lowerName, ic.AttrPath, valType, valFormat, ic.Unique)
				if _, err := tx.CreateBucketIfNotExists(idx.BucketName); err != nil {
					return bnerr.Wrap(bnerr.EnvOpen, "failed to create index bucket "+idx.BucketName, err)
				}
				indices = append(indices, idx)
			}

			idAttrName, idAttrType := conf.idAttrFor(rname)
			b := barrel.New(rname, idAttrName, idAttrType, indices)
			if _, err := tx.CreateBucketIfNotExists(b.BucketName); err != nil {
				return bnerr.Wrap(bnerr.EnvOpen, "failed to create primary bucket "+b.BucketName, err)
			}
			barrels[rname] = b
		}
		return nil
	})
	if txErr != nil {
		env.Close()
		return nil, bnerr.Wrap(bnerr.TxCommit, "failed to materialize resources", txErr)
	}

	return &Barn{env: env, barrels: barrels, schema: schemaDoc}, nil
}

func resolveResourceDef(schemaDoc map[string]interface{}, resourceName string) map[string]interface{} {
	if schemaDoc == nil {
		return nil
	}
	if defs, ok := schemaDoc["definitions"].(map[string]interface{}); ok {
		if def, ok := defs[resourceName].(map[string]interface{}); ok {
			return def
		}
	}
	if props, ok := schemaDoc["properties"].(map[string]interface{}); ok {
		return map[string]interface{}{"properties": props}
	}
	return nil
}

// Insert looks up resourceName's barrel, begins a read-write
// transaction, and delegates to Barrel.Insert, returning the freshly
// allocated pk on success.
func (b *Barn) Insert(resourceName string, doc interface{}) (pk uint64, err error) {
	start := time.Now()
	bar, ok := b.barrels[resourceName]
	if !ok {
		return 0, bnerr.New(bnerr.UnknownResourceName, resourceName)
	}

	txErr := b.env.Update(func(tx *kv.Tx) error {
		var e error
		pk, e = bar.Insert(tx, doc)
		return e
	})

	metrics.InsertDuration.WithLabelValues(resourceName).Observe(time.Since(start).Seconds())
	if txErr != nil {
		metrics.InsertsTotal.WithLabelValues(resourceName, "error").Inc()
		return 0, txErr
	}
	metrics.InsertsTotal.WithLabelValues(resourceName, "ok").Inc()
	return pk, nil
}

// Get looks up resourceName's barrel and point-looks-up pk in a
// read-only transaction.
func (b *Barn) Get(resourceName string, pk int64) (doc map[string]interface{}, err error) {
	bar, ok := b.barrels[resourceName]
	if !ok {
		return nil, bnerr.New(bnerr.UnknownResourceName, resourceName)
	}

	txErr := b.env.View(func(tx *kv.Tx) error {
		var e error
		doc, e = bar.Get(tx, pk)
		return e
	})

	if txErr != nil {
		metrics.GetsTotal.WithLabelValues(resourceName, "error").Inc()
		return nil, txErr
	}
	metrics.GetsTotal.WithLabelValues(resourceName, "ok").Inc()
	return doc, nil
}

// Search opens a read-only snapshot over resourceName's primary
// partition and streams every document matching jsonpathExpr, one
// line of canonical JSON at a time, to w. It blocks until the scan
// completes or ctx is canceled.
func (b *Barn) Search(ctx context.Context, resourceName, jsonpathExpr string, w io.Writer) error {
	bar, ok := b.barrels[resourceName]
	if !ok {
		return bnerr.New(bnerr.UnknownResourceName, resourceName)
	}
	metrics.SearchesTotal.WithLabelValues(resourceName).Inc()

	// Every exit below, including an early return on a write failure,
	// must unblock the scan goroutine's send on sink; canceling ctx
	// here is what does that via scanner.Scan's own ctx.Done() case.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	matched := 0
	txErr := b.env.View(func(tx *kv.Tx) error {
		bucket, ok := tx.Bucket(bar.BucketName)
		if !ok {
			return bnerr.New(bnerr.EnvOpen, "primary bucket missing for "+resourceName)
		}

		sink := make(chan scanner.Match)
		scanDone := make(chan error, 1)
		go func() {
			scanDone <- scanner.Scan(ctx, bucket, jsonpathExpr, sink)
			close(sink)
		}()

		for m := range sink {
			if _, err := w.Write(m.JSON); err != nil {
				return err
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return err
			}
			matched++
		}
		return <-scanDone
	})

	metrics.SearchMatchedDocuments.WithLabelValues(resourceName).Observe(float64(matched))
	return txErr
}

// BulkLoad ingests NDJSON from r into resourceName, inserting each
// parsed record. It tolerates parse failures only when ignoreErrors
// is true; any insertion failure always aborts. After the stream is
// fully consumed, it logs the inserted count and issues a compaction
// hint for the resource.
func (b *Barn) BulkLoad(r io.Reader, resourceName string, ignoreErrors bool) (count int, err error) {
	if _, ok := b.barrels[resourceName]; !ok {
		return 0, bnerr.New(bnerr.UnknownResourceName, resourceName)
	}

	start := time.Now()
	count, err = loader.Load(r, ignoreErrors, func(doc interface{}) error {
		_, insertErr := b.Insert(resourceName, doc)
		return insertErr
	})
	metrics.BulkLoadDuration.WithLabelValues(resourceName).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.BulkLoadRecordsTotal.WithLabelValues(resourceName, outcome).Add(float64(count))

	if err != nil {
		return count, err
	}

	b.env.CompactHint(resourceName)
	return count, nil
}

// Close flushes and releases the environment, along with every
// per-resource bucket handle it owns.
func (b *Barn) Close() error {
	return b.env.Close()
}

// ResourceNames returns the configured resource names this store
// opened barrels for, derived from DbConfig at Open time.
func (b *Barn) ResourceNames() []string {
	names := make([]string, 0, len(b.barrels))
	for name := range b.barrels {
		names = append(names, name)
	}
	return names
}

// ParseSchema decodes a JSON Schema document (a top-level oneOf union
// plus /definitions) from r.
func ParseSchema(r io.Reader) (map[string]interface{}, error) {
	var doc map[string]interface{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("barn: failed to parse schema: %w", err)
	}
	return doc, nil
}
