package barn

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingWriter fails every Write, simulating a client that drops the
// connection mid-stream.
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write failed")
}

func testSchema() map[string]interface{} {
	return map[string]interface{}{
		"oneOf": []interface{}{
			map[string]interface{}{"$ref": "#/definitions/Business"},
		},
		"definitions": map[string]interface{}{
			"Business": map[string]interface{}{
				"properties": map[string]interface{}{
					"reg_id":       map[string]interface{}{"type": "string"},
					"website":      map[string]interface{}{"type": "string"},
					"country_code": map[string]interface{}{"type": "string"},
				},
			},
		},
	}
}

func openTestBarn(t *testing.T, conf DbConfig) *Barn {
	t.Helper()
	path := t.TempDir() + "/barn.db"
	b, err := Open(path, conf, testSchema())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func businessConf(unique bool) DbConfig {
	return DbConfig{
		ResourceDefaults: ResourceDefaults{IDAttrName: "id", IDAttrType: "string"},
		Resources: map[string]ResourceConf{
			"Business": {
				Indices: []IndexConf{
					{AttrPath: "reg_id", Unique: unique},
				},
			},
		},
	}
}

func TestOpenRejectsEmptyResourceConfig(t *testing.T) {
	path := t.TempDir() + "/empty.db"
	_, err := Open(path, DbConfig{}, testSchema())
	assert.True(t, Is(err, DbConfigError))
}

func TestInsertThenGetRoundTrips(t *testing.T) {
	b := openTestBarn(t, businessConf(true))

	pk, err := b.Insert("Business", map[string]interface{}{
		"reg_id":       "X1",
		"country_code": "US",
		"display_name": "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pk)

	doc, err := b.Get("Business", int64(pk))
	require.NoError(t, err)
	assert.Equal(t, "1", doc["id"])
	assert.Equal(t, "X1", doc["reg_id"])
}

func TestDuplicateUniqueIndexRejectsSecondInsert(t *testing.T) {
	b := openTestBarn(t, businessConf(true))

	_, err := b.Insert("Business", map[string]interface{}{"reg_id": "X1"})
	require.NoError(t, err)

	_, err = b.Insert("Business", map[string]interface{}{"reg_id": "X1"})
	assert.True(t, Is(err, TxWrite))

	_, err = b.Get("Business", 2)
	assert.True(t, Is(err, ResourceNotFound))
}

func TestMissingIndexedAttributeStillInserts(t *testing.T) {
	b := openTestBarn(t, businessConf(true))

	pk, err := b.Insert("Business", map[string]interface{}{"country_code": "US", "display_name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pk)
}

func TestInsertUnknownResource(t *testing.T) {
	b := openTestBarn(t, businessConf(true))

	_, err := b.Insert("Unknown", map[string]interface{}{})
	assert.True(t, Is(err, UnknownResourceName))
}

func TestBulkLoadWithOneBadRecordIgnoreErrorsTrue(t *testing.T) {
	b := openTestBarn(t, businessConf(false))

	input := strings.NewReader(
		`{"reg_id":"A1"}` + "\n" +
			`{"reg_id":"A2"}` + "\n" +
			`{not json` + "\n" +
			`{"reg_id":"A3"}` + "\n",
	)
	count, err := b.BulkLoad(input, "Business", true)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	doc, err := b.Get("Business", 3)
	require.NoError(t, err)
	assert.Equal(t, "A3", doc["reg_id"])
}

func TestBulkLoadWithOneBadRecordIgnoreErrorsFalse(t *testing.T) {
	b := openTestBarn(t, businessConf(false))

	input := strings.NewReader(
		`{"reg_id":"A1"}` + "\n" +
			`{"reg_id":"A2"}` + "\n" +
			`{not json` + "\n" +
			`{"reg_id":"A3"}` + "\n",
	)
	count, err := b.BulkLoad(input, "Business", false)
	assert.True(t, Is(err, Deserialization))
	assert.Equal(t, 2, count)

	_, err = b.Get("Business", 3)
	assert.True(t, Is(err, ResourceNotFound))
}

func TestSearchYieldsAllDocumentsForTrivialFilter(t *testing.T) {
	b := openTestBarn(t, businessConf(false))

	for _, regID := range []string{"A1", "A2", "A3"} {
		_, err := b.Insert("Business", map[string]interface{}{"reg_id": regID})
		require.NoError(t, err)
	}

	var out bytes.Buffer
	err := b.Search(context.Background(), "Business", "$", &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
}

func TestSearchWriteFailureReturnsPromptlyWithoutLeaking(t *testing.T) {
	b := openTestBarn(t, businessConf(false))

	for _, regID := range []string{"A1", "A2", "A3", "A4", "A5"} {
		_, err := b.Insert("Business", map[string]interface{}{"reg_id": regID})
		require.NoError(t, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- b.Search(context.Background(), "Business", "$", failingWriter{})
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Search did not return after a write failure; scan goroutine likely leaked")
	}
}
