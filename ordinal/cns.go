package ordinal

import (
	"encoding/json"
	"strings"

	"github.com/akaitrade/node/kvstore"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// CNSMachine applies register/update/transfer operations with the
// first-seen and ownership invariants described in the CNS/Name-Service
// component.
type CNSMachine struct {
	db       kvstore.KVDB
	notify   *Notifier
	counters *Counters
}

func NewCNSMachine(db kvstore.KVDB, notify *Notifier, counters *Counters) *CNSMachine {
	return &CNSMachine{db: db, notify: notify, counters: counters}
}

// SetDB is used by the driver's storage-failure recovery to rebind after
// a lazy reinit-and-retry reopen of the underlying store.
func (m *CNSMachine) SetDB(db kvstore.KVDB) { m.db = db }

func loadCNSRecord(db kvstore.KVDB, namespace, nameNorm string) (*CNSRecord, bool) {
	v, ok, err := db.GetBytes(cnsKey(namespace, nameNorm))
	if err != nil || !ok {
		return nil, false
	}
	var rec CNSRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		log.Errorf("cns: corrupt record %s/%s: %v", namespace, nameNorm, err)
		return nil, false
	}
	rec.Owner = base58.Decode(rec.OwnerBase58)
	return &rec, true
}

func putCNSRecord(wb kvstore.WriteBatch, rec *CNSRecord) error {
	rec.OwnerBase58 = rec.Owner.Base58()
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return wb.Put(cnsKey(rec.Namespace, nameNormOf(rec)), data)
}

// nameNormOf recomputes the normalized key form; CNSRecord stores the
// original-case Name, the key is always lowercase.
func nameNormOf(rec *CNSRecord) string {
	return strings.ToLower(rec.Name)
}

// Apply applies one CNS inscription. tx.Source is the sender whose
// ownership is checked; for "trf" the new owner is tx.Target, never any
// address carried in the JSON payload — that is a deliberate contract.
func (m *CNSMachine) Apply(insc *Inscription, tx Transaction, height uint64, wb kvstore.WriteBatch) {
	rec, exists := loadCNSRecord(m.db, insc.Namespace, insc.NameNorm)

	switch insc.Op {
	case "reg":
		if exists {
			log.Infof("cns: reg rejected, %s/%s already registered", insc.Namespace, insc.NameNorm)
			return
		}
		newRec := &CNSRecord{
			Namespace:          insc.Namespace,
			Op:                 "reg",
			Name:               insc.Name,
			Owner:              tx.Source,
			Relay:              insc.Relay,
			RegisteredAtHeight: height,
			RegisteredAtTxIdx:  tx.TxIndex,
		}
		if err := putCNSRecord(wb, newRec); err != nil {
			log.Errorf("cns: failed to write %s/%s: %v", insc.Namespace, insc.NameNorm, err)
			return
		}
		m.counters.Incr(wb, counterCNSCount, 1)
		m.notify.Emit(EventCNSRegistration, newRec, height, tx.TxIndex)

	case "upd":
		if !exists {
			log.Infof("cns: upd rejected, %s/%s not registered", insc.Namespace, insc.NameNorm)
			return
		}
		if !rec.Owner.Equal(tx.Source) {
			log.Infof("cns: upd rejected, %s/%s sender is not owner", insc.Namespace, insc.NameNorm)
			return
		}
		rec.Relay = insc.Relay
		if err := putCNSRecord(wb, rec); err != nil {
			log.Errorf("cns: failed to write %s/%s: %v", insc.Namespace, insc.NameNorm, err)
			return
		}
		m.notify.Emit(EventCNSUpdate, rec, height, tx.TxIndex)

	case "trf":
		if !exists {
			log.Infof("cns: trf rejected, %s/%s not registered", insc.Namespace, insc.NameNorm)
			return
		}
		if !rec.Owner.Equal(tx.Source) {
			log.Infof("cns: trf rejected, %s/%s sender is not owner", insc.Namespace, insc.NameNorm)
			return
		}
		rec.Owner = tx.Target
		if err := putCNSRecord(wb, rec); err != nil {
			log.Errorf("cns: failed to write %s/%s: %v", insc.Namespace, insc.NameNorm, err)
			return
		}
		m.notify.Emit(EventCNSTransfer, rec, height, tx.TxIndex)
	}
}

// RemoveRegistration inverts a "reg" on reorg rollback. upd/trf are not
// inverted in this revision (documented gap).
func (m *CNSMachine) RemoveRegistration(namespace, nameNorm string, wb kvstore.WriteBatch) {
	if err := wb.Delete(cnsKey(namespace, nameNorm)); err != nil {
		log.Errorf("cns: rollback delete %s/%s failed: %v", namespace, nameNorm, err)
		return
	}
	m.counters.Incr(wb, counterCNSCount, -1)
}
