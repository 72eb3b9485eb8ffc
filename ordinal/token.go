package ordinal

import (
	"encoding/json"

	"github.com/akaitrade/node/kvstore"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// TokenLedger applies deploy/mint operations with supply and per-mint
// invariants, and maintains holder balances.
type TokenLedger struct {
	db       kvstore.KVDB
	notify   *Notifier
	counters *Counters
}

func NewTokenLedger(db kvstore.KVDB, notify *Notifier, counters *Counters) *TokenLedger {
	return &TokenLedger{db: db, notify: notify, counters: counters}
}

// SetDB is used by the driver's storage-failure recovery to rebind after
// a lazy reinit-and-retry reopen of the underlying store.
func (l *TokenLedger) SetDB(db kvstore.KVDB) { l.db = db }

func loadTokenState(db kvstore.KVDB, ticker string) (*TokenState, bool) {
	v, ok, err := db.GetBytes(tokenKey(ticker))
	if err != nil || !ok {
		return nil, false
	}
	var ts TokenState
	if err := json.Unmarshal(v, &ts); err != nil {
		log.Errorf("token: corrupt state for %s: %v", ticker, err)
		return nil, false
	}
	ts.Deployer = base58.Decode(ts.DeployerBase58)
	return &ts, true
}

func putTokenState(wb kvstore.WriteBatch, ts *TokenState) error {
	ts.DeployerBase58 = ts.Deployer.Base58()
	data, err := json.Marshal(ts)
	if err != nil {
		return err
	}
	return wb.Put(tokenKey(ts.Ticker), data)
}

func Balance(db kvstore.KVDB, holder Address, ticker string) int64 {
	v, ok, _ := db.GetInt64(balanceKey(holder, ticker))
	if !ok {
		return 0
	}
	return v
}

func putBalance(wb kvstore.WriteBatch, holder Address, ticker string, v int64) error {
	return wb.Put(balanceKey(holder, ticker), int64ToLE(v))
}

// ApplyDeploy creates a new TokenState if ticker is unoccupied; otherwise
// rejects silently.
func (l *TokenLedger) ApplyDeploy(insc *Inscription, tx Transaction, height uint64, wb kvstore.WriteBatch) {
	if _, exists := loadTokenState(l.db, insc.Tick); exists {
		log.Infof("token: deploy rejected, %s already deployed", insc.Tick)
		return
	}
	ts := &TokenState{
		Ticker:       insc.Tick,
		MaxSupply:    insc.Max,
		LimitPerMint: insc.Lim,
		TotalMinted:  0,
		DeployBlock:  height,
		Deployer:     tx.Source,
	}
	if err := putTokenState(wb, ts); err != nil {
		log.Errorf("token: failed to write deploy for %s: %v", insc.Tick, err)
		return
	}
	l.counters.Incr(wb, counterTokenCount, 1)
	l.notify.Emit(EventTokenDeploy, ts, height, tx.TxIndex)
}

// ApplyMint enforces the per-mint and supply-cap invariants before
// crediting the minter's balance.
func (l *TokenLedger) ApplyMint(insc *Inscription, tx Transaction, height uint64, wb kvstore.WriteBatch) {
	ts, exists := loadTokenState(l.db, insc.Tick)
	if !exists {
		log.Infof("token: mint rejected, %s not deployed", insc.Tick)
		return
	}
	if insc.Amt > ts.LimitPerMint {
		log.Infof("token: mint rejected, %s amount %d exceeds limit %d", insc.Tick, insc.Amt, ts.LimitPerMint)
		return
	}
	if ts.TotalMinted+insc.Amt > ts.MaxSupply {
		log.Infof("token: mint rejected, %s would exceed max supply", insc.Tick)
		return
	}

	ts.TotalMinted += insc.Amt
	if err := putTokenState(wb, ts); err != nil {
		log.Errorf("token: failed to write mint state for %s: %v", insc.Tick, err)
		return
	}

	bal := Balance(l.db, tx.Source, insc.Tick) + insc.Amt
	if err := putBalance(wb, tx.Source, insc.Tick, bal); err != nil {
		log.Errorf("token: failed to write balance for %s: %v", insc.Tick, err)
		return
	}

	l.notify.Emit(EventTokenMint, ts, height, tx.TxIndex)
}

// RevertMint inverts total_minted on reorg rollback. Balances are not
// adjusted in this revision (documented gap): a correct implementation
// must eventually maintain an undo-log or rebuild from height 0 instead.
func (l *TokenLedger) RevertMint(ticker string, amt int64, wb kvstore.WriteBatch) {
	ts, exists := loadTokenState(l.db, ticker)
	if !exists {
		return
	}
	ts.TotalMinted -= amt
	if ts.TotalMinted < 0 {
		ts.TotalMinted = 0
	}
	if err := putTokenState(wb, ts); err != nil {
		log.Errorf("token: rollback write for %s failed: %v", ticker, err)
	}
}
