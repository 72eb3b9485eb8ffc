package ordinal

import (
	"fmt"

	"github.com/akaitrade/node/kvstore"
)

// Driver orchestrates cold-start scan, live block apply, and reorg
// rollback, and owns the checkpoint.
type Driver struct {
	dbPath string
	db     kvstore.KVDB
	cp     *Checkpoint

	// checkpointExisted records whether cp's backing file pre-existed the
	// call to OpenCheckpoint that created d.cp. A first-ever start creates
	// the file on the spot and it would otherwise be indistinguishable
	// from a prior run that legitimately caught up to height 0.
	checkpointExisted bool

	cns      *CNSMachine
	tokens   *TokenLedger
	notify   *Notifier
	counters *Counters

	rebuild       bool
	progressEvery int64
}

// NewDriver opens the KV store at dbPath and the checkpoint at cpPath,
// wiring the CNS state machine and token ledger on top.
func NewDriver(dbPath, cpPath string, notifyCB NotifyFunc, progressEvery int64) (*Driver, error) {
	db, err := kvstore.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("ordinal: open db: %w", err)
	}
	cp, existed, err := OpenCheckpoint(cpPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ordinal: open checkpoint: %w", err)
	}

	notify := NewNotifier(notifyCB)
	counters := NewCounters(db)

	d := &Driver{
		dbPath:            dbPath,
		db:                db,
		cp:                cp,
		checkpointExisted: existed,
		notify:            notify,
		counters:          counters,
		progressEvery:     progressEvery,
	}
	d.cns = NewCNSMachine(db, notify, counters)
	d.tokens = NewTokenLedger(db, notify, counters)

	db.OnFailure(d.onStorageFailure)
	return d, nil
}

// onStorageFailure implements the §7 recovery policy for a "storage not
// open" condition: a single lazy reinit (reopen with defaults) and retry,
// rebound into every component that held the old db handle.
func (d *Driver) onStorageFailure(err error) {
	log.Errorf("driver: storage failure: %v", err)
	reopened, rerr := kvstore.ReopenWithRetry(d.dbPath)
	if rerr != nil {
		log.Errorf("driver: reinit failed, checkpoint will not advance until restart: %v", rerr)
		return
	}
	d.db = reopened
	d.cns.SetDB(reopened)
	d.tokens.SetDB(reopened)
	d.counters.SetDB(reopened)
	d.db.OnFailure(d.onStorageFailure)
	log.Infof("driver: storage reinit succeeded")
}

func (d *Driver) DB() kvstore.KVDB { return d.db }

// Rebuilding reports whether the current run is replaying from height 0.
func (d *Driver) Rebuilding() bool { return d.rebuild }

// OnStartReadFromDB decides whether to rebuild: a forced-rebuild flag, a
// missing checkpoint file, an invalidated checkpoint, or a stored
// checkpoint that exceeds the last written height all force a rebuild
// from 0. Otherwise resume from checkpoint+1.
//
// A missing checkpoint file is checked separately from a checkpoint that
// reads height 0: OpenCheckpoint creates and zero-fills the file on a
// genuinely first-ever start, so by the time h is read here the two cases
// would otherwise be indistinguishable, and a first boot would wrongly
// take the resume path instead of rebuild — silently skipping the
// notification suppression a cold rebuild requires.
func (d *Driver) OnStartReadFromDB(forceRebuild bool, lastWrittenHeight uint64) {
	h := d.cp.Height()
	if forceRebuild || !d.checkpointExisted || h == InvalidHeight || h > lastWrittenHeight {
		d.rebuild = true
		d.counters.Reset()
		d.notify.SetSuppressed(true)
		if err := d.cp.Reset(); err != nil {
			log.Panicf("driver: cannot reset checkpoint: %v", err)
		}
		log.Infof("driver: rebuilding from height 0 to %d", lastWrittenHeight)
		return
	}
	d.rebuild = false
	log.Infof("driver: resuming from checkpoint %d to %d", h, lastWrittenHeight)
}

// OnReadFromDB is called for each block in order during cold replay.
func (d *Driver) OnReadFromDB(block Block) {
	if d.rebuild || block.Height > d.cp.Height() {
		d.applyBlock(block)
	}
}

// OnDBReadFinished is called once after replay completes.
func (d *Driver) OnDBReadFinished() {
	if d.rebuild {
		d.rebuild = false
		d.notify.SetSuppressed(false)
	}
}

// Update applies a newly appended live block.
func (d *Driver) Update(block Block) {
	d.applyBlock(block)
}

func (d *Driver) applyBlock(b Block) {
	wb := d.db.NewWriteBatch()
	defer wb.Cancel()

	for _, tx := range b.Transactions {
		d.applyTransaction(b.Height, tx, wb)
	}

	if err := wb.Flush(); err != nil {
		log.Errorf("driver: failed to flush block %d, checkpoint not advanced: %v", b.Height, err)
		return
	}
	if err := d.cp.Advance(b.Height); err != nil {
		log.Errorf("driver: failed to persist checkpoint at %d: %v", b.Height, err)
		return
	}
	if d.progressEvery > 0 && b.Height%uint64(d.progressEvery) == 0 {
		log.Infof("driver: indexed through height %d", b.Height)
	}
}

// applyTransaction isolates per-transaction failures: a panic anywhere in
// parsing or dispatch is caught and logged, and the remaining
// transactions in the block are still processed.
func (d *Driver) applyTransaction(height uint64, tx Transaction, wb kvstore.WriteBatch) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("driver: transaction (%d,%d) panicked: %v", height, tx.TxIndex, r)
		}
	}()

	insc, ok := ParseInscription(tx)
	if !ok {
		return
	}

	// Idempotent-replay guard (testable property 7): presence of meta
	// means this (h,idx) has already been applied.
	if metaExists(d.db, height, tx.TxIndex) {
		return
	}

	meta := InscriptionMeta{
		Kind:       insc.Kind,
		Height:     height,
		TxIndex:    tx.TxIndex,
		Source:     tx.Source,
		RawPayload: insc.RawPayload,
	}
	if err := writeMeta(wb, meta); err != nil {
		log.Errorf("driver: failed to write meta (%d,%d): %v", height, tx.TxIndex, err)
		return
	}
	d.counters.Incr(wb, counterInscriptionCount, 1)

	switch insc.Kind {
	case KindCNS:
		d.cns.Apply(insc, tx, height, wb)
	case KindToken:
		d.tokens.ApplyMint(insc, tx, height, wb)
	case KindDeploy:
		d.tokens.ApplyDeploy(insc, tx, height, wb)
	}
}

// OnRemoveBlock reverse-applies the inscriptions in a block being rolled
// back and decrements the checkpoint by one. Per the documented gaps:
// CNS upd/trf and token deploy are not inverted in this revision.
func (d *Driver) OnRemoveBlock(block Block) {
	wb := d.db.NewWriteBatch()
	defer wb.Cancel()

	for _, tx := range block.Transactions {
		insc, ok := ParseInscription(tx)
		if !ok {
			continue
		}
		wb.Delete(metaKey(block.Height, tx.TxIndex))
		d.counters.Incr(wb, counterInscriptionCount, -1)

		switch insc.Kind {
		case KindCNS:
			if insc.Op == "reg" {
				d.cns.RemoveRegistration(insc.Namespace, insc.NameNorm, wb)
			}
		case KindToken:
			d.tokens.RevertMint(insc.Tick, insc.Amt, wb)
		case KindDeploy:
			// not inverted (documented gap)
		}
	}

	if err := wb.Flush(); err != nil {
		log.Errorf("driver: failed to flush rollback of block %d: %v", block.Height, err)
		return
	}
	if err := d.cp.Rewind(); err != nil {
		log.Errorf("driver: failed to rewind checkpoint: %v", err)
	}
}

// Invalidate forces a rebuild on next start.
func (d *Driver) Invalidate() error {
	return d.cp.Invalidate()
}

func (d *Driver) Checkpoint() uint64 { return d.cp.Height() }

// Snapshot writes a point-in-time backup of the entire KV store to path,
// so a future rebuild can seed from a known-good snapshot instead of
// replaying every block from height 0.
func (d *Driver) Snapshot(path string) error {
	return kvstore.BackupToFile(d.db, path)
}

// RestoreSnapshot seeds the KV store from a prior Snapshot. Callers are
// expected to call this against a freshly opened, empty store before any
// block replay begins.
func (d *Driver) RestoreSnapshot(path string) error {
	return kvstore.RestoreFromFile(d.db, path)
}

func (d *Driver) Close() error {
	cpErr := d.cp.Close()
	dbErr := d.db.Close()
	if cpErr != nil {
		return cpErr
	}
	return dbErr
}
