/*
Package loader implements NDJSON bulk ingestion: a manual,
residue-buffered line scan across fixed-size refills, one insert per
parsed record, and a final log of the inserted count. The compaction
hint that follows a bulk load is issued by the caller (barn.BulkLoad),
not by this package.

The refill loop is deliberately hand-rolled rather than built on
bufio.Scanner: a record may straddle two refills, and the bytes
between the last complete newline and the end of a refill (the
"residue") must be carried forward and prepended to the next refill
before line scanning resumes, exactly mirroring the buffering the
store was designed around.
*/
package loader

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rs/zerolog"

	"github.com/kayyagari/barn/internal/bnerr"
	"github.com/kayyagari/barn/internal/log"
)

// DefaultBufSize is the refill size used when reading NDJSON input.
const DefaultBufSize = 2 * 1024 * 1024

// InsertFunc inserts one already-parsed document and is supplied by
// the caller (the catalog's Insert, bound to a resource name).
type InsertFunc func(doc interface{}) error

// Load reads newline-delimited JSON from r, calling insert once per
// record. If ignoreErrors is false, the first record that fails to
// parse aborts the load with Deserialization; insertion failures
// always abort regardless of ignoreErrors, since the tolerance mode
// covers malformed input only, never store-level rejections. Load
// returns the count of records successfully inserted.
func Load(r io.Reader, ignoreErrors bool, insert InsertFunc) (count int, err error) {
	logger := log.WithComponent("loader")
	buf := make([]byte, DefaultBufSize)
	var residue []byte

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			lineStart := 0
			for i := 0; i < n; i++ {
				if chunk[i] != '\n' {
					continue
				}
				line := chunk[lineStart:i]
				if len(residue) > 0 {
					merged := make([]byte, 0, len(residue)+len(line))
					merged = append(merged, residue...)
					merged = append(merged, line...)
					line = merged
					residue = nil
				}
				if procErr := processLine(line, ignoreErrors, insert, &count, logger); procErr != nil {
					return count, procErr
				}
				lineStart = i + 1
			}
			if lineStart < n {
				tail := chunk[lineStart:n]
				carried := make([]byte, 0, len(residue)+len(tail))
				carried = append(carried, residue...)
				carried = append(carried, tail...)
				residue = carried
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return count, bnerr.Wrap(bnerr.TxRead, "loader: failed to read input", readErr)
		}
	}

	if len(residue) > 0 {
		if procErr := processLine(residue, ignoreErrors, insert, &count, logger); procErr != nil {
			return count, procErr
		}
	}

	logger.Info().Int("count", count).Msg("bulk load inserted records")
	return count, nil
}

func processLine(line []byte, ignoreErrors bool, insert InsertFunc, count *int, logger zerolog.Logger) error {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}

	var doc interface{}
	if err := json.Unmarshal(line, &doc); err != nil {
		logger.Warn().Err(err).Msg("failed to parse record")
		if !ignoreErrors {
			return bnerr.Wrap(bnerr.Deserialization, "loader: invalid record", err)
		}
		return nil
	}

	if err := insert(doc); err != nil {
		return err
	}
	*count++
	return nil
}
