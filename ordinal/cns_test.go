package ordinal

import (
	"path/filepath"
	"testing"

	"github.com/akaitrade/node/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestKV(t *testing.T) kvstore.KVDB {
	t.Helper()
	db, err := kvstore.Open(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCNSMachine_UpdateRejectedForNonOwner(t *testing.T) {
	db := openTestKV(t)
	notify := NewNotifier(nil)
	counters := NewCounters(db)
	m := NewCNSMachine(db, notify, counters)

	alice, eve := addr(1), addr(9)
	wb := db.NewWriteBatch()
	m.Apply(&Inscription{Kind: KindCNS, Namespace: "cns", Op: "reg", Name: "n", NameNorm: "n"}, Transaction{Source: alice}, 1, wb)
	require.NoError(t, wb.Flush())

	wb2 := db.NewWriteBatch()
	m.Apply(&Inscription{Kind: KindCNS, Namespace: "cns", Op: "upd", Name: "n", NameNorm: "n", Relay: "new-relay"}, Transaction{Source: eve}, 2, wb2)
	require.NoError(t, wb2.Flush())

	rec, ok := loadCNSRecord(db, "cns", "n")
	require.True(t, ok)
	assert.Empty(t, rec.Relay, "update from a non-owner must be rejected")
}

func TestCNSMachine_UpdateByOwnerSucceeds(t *testing.T) {
	db := openTestKV(t)
	notify := NewNotifier(nil)
	counters := NewCounters(db)
	m := NewCNSMachine(db, notify, counters)

	alice := addr(1)
	wb := db.NewWriteBatch()
	m.Apply(&Inscription{Kind: KindCNS, Namespace: "cns", Op: "reg", Name: "n", NameNorm: "n"}, Transaction{Source: alice}, 1, wb)
	require.NoError(t, wb.Flush())

	wb2 := db.NewWriteBatch()
	m.Apply(&Inscription{Kind: KindCNS, Namespace: "cns", Op: "upd", Name: "n", NameNorm: "n", Relay: "new-relay"}, Transaction{Source: alice}, 2, wb2)
	require.NoError(t, wb2.Flush())

	rec, ok := loadCNSRecord(db, "cns", "n")
	require.True(t, ok)
	assert.Equal(t, "new-relay", rec.Relay)
}

func TestCNSMachine_TransferRejectedForNonOwner(t *testing.T) {
	db := openTestKV(t)
	notify := NewNotifier(nil)
	counters := NewCounters(db)
	m := NewCNSMachine(db, notify, counters)

	alice, eve, mallory := addr(1), addr(9), addr(10)
	wb := db.NewWriteBatch()
	m.Apply(&Inscription{Kind: KindCNS, Namespace: "cns", Op: "reg", Name: "n", NameNorm: "n"}, Transaction{Source: alice}, 1, wb)
	require.NoError(t, wb.Flush())

	wb2 := db.NewWriteBatch()
	m.Apply(&Inscription{Kind: KindCNS, Namespace: "cns", Op: "trf", Name: "n", NameNorm: "n"}, Transaction{Source: eve, Target: mallory}, 2, wb2)
	require.NoError(t, wb2.Flush())

	rec, ok := loadCNSRecord(db, "cns", "n")
	require.True(t, ok)
	assert.True(t, rec.Owner.Equal(alice))
}
