package hsms

import (
	"testing"

	"github.com/fabconnect/gosecs/secs2"
	"github.com/stretchr/testify/require"
)

// TestLocalItem_RoundTrip verifies that a LocalItem built from various strings
// (ASCII, multi-byte Unicode, and the empty string) survives an encode/decode
// cycle through the wire format, since secs2.LocalItem itself has no decode
// path — only hsmsDecoder builds one back via secs2.NewLocalItemWithBytes.
func TestLocalItem_RoundTrip(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		desc string
		in   string
	}{
		{desc: "empty", in: ""},
		{desc: "ascii", in: "LOT123"},
		{desc: "cjk", in: "ロット番号"},
		{desc: "mixed width", in: "Aé中1"},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			item := secs2.NewLocalItem(tc.in)
			require.NoError(item.Error())

			encoded := item.ToBytes()

			decoded, err := DecodeSECS2Item(encoded)
			require.NoError(err)

			value, err := decoded.ToLocal()
			require.NoError(err)
			require.Equal(tc.in, value)

			require.Equal(item.ToSML(), decoded.ToSML())
			require.Equal(encoded, decoded.ToBytes())
		})
	}
}

// TestLocalItem_RoundTrip_InDataMessage exercises the same round trip one
// layer up, through a full DataMessage, matching how a Local item actually
// arrives on an HSMS connection.
func TestLocalItem_RoundTrip_InDataMessage(t *testing.T) {
	require := require.New(t)

	msg, err := NewDataMessage(1, 1, true, 5, []byte{0, 0, 0, 1}, secs2.NewLocalItem("装置"))
	require.NoError(err)

	decoded, err := DecodeHSMSMessage(msg.ToBytes())
	require.NoError(err)

	dataMsg, ok := decoded.ToDataMessage()
	require.True(ok)

	value, err := dataMsg.Item().ToLocal()
	require.NoError(err)
	require.Equal("装置", value)
}

// TestLocalItem_QuoteStyle verifies UseLocalSingleQuote/UseLocalDoubleQuote
// affect ToSML output without perturbing the wire encoding, and restores the
// default quote style afterward so other tests in this package aren't
// affected by package-level mutable state.
func TestLocalItem_QuoteStyle(t *testing.T) {
	require := require.New(t)
	defer secs2.UseLocalDoubleQuote()

	item := secs2.NewLocalItem("X")
	encoded := item.ToBytes()

	secs2.UseLocalSingleQuote()
	require.Contains(item.ToSML(), "'X'")

	secs2.UseLocalDoubleQuote()
	require.Contains(item.ToSML(), `"X"`)

	require.Equal(encoded, item.ToBytes())
}
