package ordinal

import "encoding/binary"

// Key prefixes, exact byte order — compatibility-critical so that an
// implementation can coexist with or migrate data written by another
// process sharing the same KV store.
const (
	prefixCNS     byte = 0x01
	prefixToken   byte = 0x02
	prefixBalance byte = 0x03
	prefixMeta    byte = 0x04
	prefixCounter byte = 0x05 // supplemented: explicit persisted counters
)

func cnsKey(namespace, nameNorm string) []byte {
	b := make([]byte, 0, 1+len(namespace)+1+len(nameNorm))
	b = append(b, prefixCNS)
	b = append(b, []byte(namespace)...)
	b = append(b, ':')
	b = append(b, []byte(nameNorm)...)
	return b
}

func cnsPrefix() []byte { return []byte{prefixCNS} }

func tokenKey(ticker string) []byte {
	b := make([]byte, 0, 1+len(ticker))
	b = append(b, prefixToken)
	b = append(b, []byte(ticker)...)
	return b
}

func tokenPrefix() []byte { return []byte{prefixToken} }

func balanceKey(holder Address, ticker string) []byte {
	b := make([]byte, 0, 1+len(holder)+len(ticker))
	b = append(b, prefixBalance)
	b = append(b, holder...)
	b = append(b, []byte(ticker)...)
	return b
}

func metaKey(height, txIndex uint64) []byte {
	b := make([]byte, 9+8)
	b[0] = prefixMeta
	binary.LittleEndian.PutUint64(b[1:9], height)
	binary.LittleEndian.PutUint64(b[9:17], txIndex)
	return b
}

func metaPrefix() []byte { return []byte{prefixMeta} }

func counterKey(name string) []byte {
	b := make([]byte, 0, 1+len(name))
	b = append(b, prefixCounter)
	b = append(b, []byte(name)...)
	return b
}

const (
	counterCNSCount         = "cns_count"
	counterTokenCount       = "token_count"
	counterInscriptionCount = "inscription_count"
)
