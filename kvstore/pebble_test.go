package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) KVDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetRoundtrip(t *testing.T) {
	db := openTest(t)
	require.NoError(t, db.Put([]byte("k1"), []byte("v1")))

	v, ok, err := db.GetBytes([]byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", string(v))

	assert.True(t, db.Exists([]byte("k1")))
	assert.False(t, db.Exists([]byte("missing")))
}

func TestGetInt64Roundtrip(t *testing.T) {
	db := openTest(t)
	wb := db.NewWriteBatch()
	require.NoError(t, wb.Put([]byte("counter"), []byte{5, 0, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, wb.Flush())

	v, ok, err := db.GetInt64([]byte("counter"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 5, v)
}

func TestScanPrefixOnlyVisitsMatchingKeys(t *testing.T) {
	db := openTest(t)
	require.NoError(t, db.Put([]byte{0x01, 'a'}, []byte("a")))
	require.NoError(t, db.Put([]byte{0x01, 'b'}, []byte("b")))
	require.NoError(t, db.Put([]byte{0x02, 'c'}, []byte("c")))

	var got []string
	err := db.ScanPrefix([]byte{0x01}, func(k, v []byte) bool {
		got = append(got, string(v))
		return true
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, got)
}

func TestScanPrefixStopsEarly(t *testing.T) {
	db := openTest(t)
	require.NoError(t, db.Put([]byte{0x01, 'a'}, []byte("a")))
	require.NoError(t, db.Put([]byte{0x01, 'b'}, []byte("b")))
	require.NoError(t, db.Put([]byte{0x01, 'c'}, []byte("c")))

	count := 0
	err := db.ScanPrefix([]byte{0x01}, func(k, v []byte) bool {
		count++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWriteBatchCancelDiscardsMutations(t *testing.T) {
	db := openTest(t)
	wb := db.NewWriteBatch()
	require.NoError(t, wb.Put([]byte("k"), []byte("v")))
	wb.Cancel()

	assert.False(t, db.Exists([]byte("k")))
}
