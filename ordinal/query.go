package ordinal

import (
	"encoding/json"
	"strings"

	"github.com/akaitrade/node/kvstore"
	"github.com/decred/dcrd/lru"
)

// Query is the read-only view the driver's KV store is opened under.
// Record lookups answer from the KV store (CNSAvailable may first answer
// from existCache below), and the Total*Count methods read the driver's
// in-memory counters; there is no query language, just one method per
// question, absence represented by a bool/empty-slice rather than an error.
type Query struct {
	db *Driver

	// existCache is a bounded presence-only fast path for repeat
	// cns_available/cns_by_name lookups. It only ever records positives
	// (a name confirmed registered) and is never explicitly invalidated
	// on reorg-removal of that name's reg — a bounded staleness window,
	// the same tradeoff the O(n) owner scan below already accepts.
	existCache lru.Cache
}

func NewQuery(d *Driver) *Query {
	return &Query{db: d, existCache: lru.NewCache(4096)}
}

func (q *Query) kv() kvstore.KVDB { return q.db.DB() }

func (q *Query) CNSByName(namespace, name string) (*CNSRecord, bool) {
	nameNorm := strings.ToLower(name)
	rec, ok := loadCNSRecord(q.kv(), namespace, nameNorm)
	if ok {
		q.existCache.Add(namespace + ":" + nameNorm)
	}
	return rec, ok
}

// CNSByOwner prefix-scans all CNS entries and filters by Base58-encoded
// owner string match. O(n) in total CNS count; acceptable given scale.
func (q *Query) CNSByOwner(addr Address) []*CNSRecord {
	owner := addr.Base58()
	var out []*CNSRecord
	q.kv().ScanPrefix(cnsPrefix(), func(k, v []byte) bool {
		var rec CNSRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return true
		}
		if rec.OwnerBase58 == owner {
			out = append(out, &rec)
		}
		return true
	})
	return out
}

func (q *Query) CNSAvailable(namespace, name string) bool {
	nameNorm := strings.ToLower(name)
	if q.existCache.Contains(namespace + ":" + nameNorm) {
		return false
	}
	_, exists := q.CNSByName(namespace, name)
	return !exists
}

func (q *Query) AllTokens() []*TokenState {
	var out []*TokenState
	q.kv().ScanPrefix(tokenPrefix(), func(k, v []byte) bool {
		var ts TokenState
		if err := json.Unmarshal(v, &ts); err != nil {
			return true
		}
		out = append(out, &ts)
		return true
	})
	return out
}

func (q *Query) Token(ticker string) (*TokenState, bool) {
	return loadTokenState(q.kv(), ticker)
}

func (q *Query) Balance(addr Address, ticker string) int64 {
	return Balance(q.kv(), addr, ticker)
}

func (q *Query) TotalCNSCount() int64         { return q.db.counters.CNSCount() }
func (q *Query) TotalTokenCount() int64       { return q.db.counters.TokenCount() }
func (q *Query) TotalInscriptionCount() int64 { return q.db.counters.InscriptionCount() }
