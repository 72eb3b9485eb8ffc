package ordinal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeMeta_Roundtrip(t *testing.T) {
	src := make(Address, AddressLength)
	for i := range src {
		src[i] = byte(i + 1)
	}
	m := InscriptionMeta{
		Kind:       KindCNS,
		Height:     123456,
		TxIndex:    7,
		Source:     src,
		RawPayload: `{"p":"cns","op":"reg","cns":"alice"}`,
	}

	got, err := DecodeMeta(EncodeMeta(m))
	require.NoError(t, err)
	assert.Equal(t, m.Kind, got.Kind)
	assert.Equal(t, m.Height, got.Height)
	assert.Equal(t, m.TxIndex, got.TxIndex)
	assert.Equal(t, m.RawPayload, got.RawPayload)
	assert.True(t, Address(src).Equal(got.Source))
}

func TestDecodeMeta_TruncatedRejected(t *testing.T) {
	_, err := DecodeMeta([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestDecodeMeta_TruncatedPayloadRejected(t *testing.T) {
	m := InscriptionMeta{Kind: KindToken, RawPayload: "hello world"}
	full := EncodeMeta(m)
	assert.Greater(t, len(full), 5)
	_, err := DecodeMeta(full[:len(full)-5])
	assert.Error(t, err)
}
