package dht

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arceliar/meshcore/encrypted"
)

func TestPingPacketSealOpen(t *testing.T) {
	alicePub, alicePriv := encrypted.GenerateKeys()
	bobPub, bobPriv := encrypted.GenerateKeys()
	aliceShared := encrypted.Precompute(&bobPub, &alicePriv)
	bobShared := encrypted.Precompute(&alicePub, &bobPriv)
	for _, response := range []bool{false, true} {
		nonce := encrypted.RandomNonce()
		ping := PingPacket{Response: response, Sender: alicePub, ID: 0x0123456789abcdef}
		bs := ping.Seal(nil, &aliceShared, &nonce)
		require.Len(t, bs, PingPacketSize)
		require.True(t, IsPingPacket(bs))
		sender, err := PingSender(bs)
		require.NoError(t, err)
		require.Equal(t, alicePub, sender)
		var decoded PingPacket
		require.NoError(t, decoded.Open(bs, &bobShared))
		require.Equal(t, ping, decoded)
	}
}

func TestPingPacketErrors(t *testing.T) {
	alicePub, alicePriv := encrypted.GenerateKeys()
	bobPub, _ := encrypted.GenerateKeys()
	shared := encrypted.Precompute(&bobPub, &alicePriv)
	nonce := encrypted.RandomNonce()
	ping := PingPacket{Sender: alicePub, ID: 1}
	bs := ping.Seal(nil, &shared, &nonce)

	var decoded PingPacket
	require.ErrorIs(t, decoded.Open(bs[:len(bs)-1], &shared), DecodeError{})
	require.False(t, IsPingPacket(nil))
	require.False(t, IsPingPacket([]byte{encrypted.DataPacketTag}))

	wrong := encrypted.Precompute(&alicePub, &alicePriv)
	require.ErrorIs(t, decoded.Open(bs, &wrong), encrypted.DecryptionFailedError{})

	// flipping the outer tag makes it disagree with the sealed one
	flipped := append([]byte(nil), bs...)
	flipped[0] = byte(wirePingResponse)
	require.ErrorIs(t, decoded.Open(flipped, &shared), DecodeError{})

	flipped[0] = 0x7f
	_, err := PingSender(flipped)
	require.ErrorIs(t, err, DecodeError{})
}
