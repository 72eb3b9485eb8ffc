package ordinal

import (
	"encoding/binary"
	"errors"

	"github.com/akaitrade/node/kvstore"
)

// AddressLength is the fixed length of the binary public-key address
// carried in InscriptionMeta, matching a compressed secp256k1 public key.
const AddressLength = 33

// EncodeMeta serializes an InscriptionMeta per the exact binary layout:
// u8 kind, u64 h_le, u64 idx_le, bytes source_pubkey (fixed length),
// u64 payload_len_le, bytes payload.
func EncodeMeta(m InscriptionMeta) []byte {
	src := make([]byte, AddressLength)
	copy(src, m.Source)

	payload := []byte(m.RawPayload)
	buf := make([]byte, 1+8+8+AddressLength+8+len(payload))
	pos := 0
	buf[pos] = byte(m.Kind)
	pos++
	binary.LittleEndian.PutUint64(buf[pos:], m.Height)
	pos += 8
	binary.LittleEndian.PutUint64(buf[pos:], m.TxIndex)
	pos += 8
	copy(buf[pos:], src)
	pos += AddressLength
	binary.LittleEndian.PutUint64(buf[pos:], uint64(len(payload)))
	pos += 8
	copy(buf[pos:], payload)
	return buf
}

// DecodeMeta parses the binary layout written by EncodeMeta.
func DecodeMeta(data []byte) (InscriptionMeta, error) {
	minLen := 1 + 8 + 8 + AddressLength + 8
	if len(data) < minLen {
		return InscriptionMeta{}, errors.New("ordinal: truncated InscriptionMeta")
	}
	pos := 0
	kind := InscriptionKind(data[pos])
	pos++
	h := binary.LittleEndian.Uint64(data[pos:])
	pos += 8
	idx := binary.LittleEndian.Uint64(data[pos:])
	pos += 8
	src := append([]byte{}, data[pos:pos+AddressLength]...)
	pos += AddressLength
	plen := binary.LittleEndian.Uint64(data[pos:])
	pos += 8
	if uint64(len(data)-pos) < plen {
		return InscriptionMeta{}, errors.New("ordinal: truncated InscriptionMeta payload")
	}
	payload := string(data[pos : pos+int(plen)])

	return InscriptionMeta{
		Kind:       kind,
		Height:     h,
		TxIndex:    idx,
		Source:     Address(src),
		RawPayload: payload,
	}, nil
}

// metaExists implements testable property 7: presence of InscriptionMeta
// at (h, idx) implies the state change has already been applied, so a
// replayed block must not double-apply it.
func metaExists(db kvstore.KVDB, height, txIndex uint64) bool {
	return db.Exists(metaKey(height, txIndex))
}

func writeMeta(wb kvstore.WriteBatch, m InscriptionMeta) error {
	return wb.Put(metaKey(m.Height, m.TxIndex), EncodeMeta(m))
}
