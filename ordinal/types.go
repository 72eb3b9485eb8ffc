// Package ordinal implements the block-driven inscription indexer: the
// CNS (name service) state machine and the fungible-token ledger built
// on top of a stream of blocks, plus the query surface and notification
// hook exposed to external callers.
package ordinal

import (
	"github.com/btcsuite/btcd/btcutil/base58"
)

// Address is an opaque binary public-key-derived identifier. It is
// encoded as Base58 for any user-visible storage or wire output.
type Address []byte

func (a Address) Base58() string { return base58.Encode(a) }

func (a Address) Equal(b Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Transaction is the external, read-only view the driver plays inscriptions
// out of. Source/Target are the transaction's sender and recipient;
// UserFields holds the small integer field-ID -> string-value mapping the
// Inscription Parser reads from (only string-typed fields carry
// inscriptions, per the source format).
type Transaction struct {
	Source     Address
	Target     Address
	TxIndex    uint64
	UserFields map[int]string
}

// Block is an ordered unit at height Height containing a sequence of
// transactions, provided by the external block store and never mutated by
// the indexer.
type Block struct {
	Height       uint64
	Transactions []Transaction
}

// InscriptionKind tags the three recognized inscription variants plus the
// Unknown sentinel, replacing the source's separate OrdinalType enum and
// parallel parse functions with one sum type.
type InscriptionKind uint8

const (
	KindUnknown InscriptionKind = 0
	KindCNS     InscriptionKind = 1
	KindToken   InscriptionKind = 2
	KindDeploy  InscriptionKind = 3
)

func (k InscriptionKind) String() string {
	switch k {
	case KindCNS:
		return "cns"
	case KindToken:
		return "token"
	case KindDeploy:
		return "deploy"
	default:
		return "unknown"
	}
}

// Inscription is the parsed, classified payload carried in a transaction's
// user field. Exactly one of the CNS/Token/Deploy fields is meaningful,
// selected by Kind.
type Inscription struct {
	Kind InscriptionKind

	// CNS fields
	Namespace string // "cns" or "cdns", normalized lowercase
	Op        string // "reg" | "upd" | "trf", normalized lowercase
	Name      string // original case
	NameNorm  string // normalized lowercase
	Relay     string

	// Token fields (Mint and Deploy share Tick)
	Tick string
	Amt  int64
	Max  int64
	Lim  int64

	// RawPayload is the original string value of the user field this was
	// parsed from, retained for the InscriptionMeta audit trail.
	RawPayload string
}

// CNSRecord is the persisted state of one (namespace, name) registration.
type CNSRecord struct {
	Namespace          string  `json:"p"`
	Op                 string  `json:"op"`
	Name               string  `json:"cns"`
	Owner              Address `json:"-"`
	OwnerBase58        string  `json:"owner"`
	Relay              string  `json:"relay"`
	RegisteredAtHeight uint64  `json:"block"`
	RegisteredAtTxIdx  uint64  `json:"txIndex"`
}

// TokenState is the persisted deploy/mint state of one ticker.
type TokenState struct {
	Ticker         string  `json:"ticker"`
	MaxSupply      int64   `json:"max_supply"`
	LimitPerMint   int64   `json:"limit_per_mint"`
	TotalMinted    int64   `json:"total_minted"`
	DeployBlock    uint64  `json:"deploy_block"`
	Deployer       Address `json:"-"`
	DeployerBase58 string  `json:"deployer"`
}

// InscriptionMeta is the audit-trail record stored at (height, tx_index),
// whose mere presence is what makes block replay idempotent (testable
// property 7).
type InscriptionMeta struct {
	Kind       InscriptionKind
	Height     uint64
	TxIndex    uint64
	Source     Address
	RawPayload string
}

// EventKind names the five notification events the state machines emit.
type EventKind string

const (
	EventCNSRegistration EventKind = "cns_registration"
	EventCNSUpdate       EventKind = "cns_update"
	EventCNSTransfer     EventKind = "cns_transfer"
	EventTokenDeploy     EventKind = "token_deploy"
	EventTokenMint       EventKind = "token_mint"
)
