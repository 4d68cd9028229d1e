package signature_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/services/signature"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet/wallettest"
)

func newService(t *testing.T, a wallet.Authority) signature.Service {
	return signature.NewServiceWithWallet(a, signature.WithLogger(zaptest.NewLogger(t)))
}

func TestSign_RoundTrip(t *testing.T) {
	kp := wallettest.NewKeypair(t)
	svc := newService(t, kp)

	messages := [][]byte{
		{},
		[]byte("hello"),
		bytes.Repeat([]byte{0xab}, 1232),
		{0x00, 0xff, 0x00},
	}
	for _, m := range messages {
		signed, err := svc.Sign(context.Background(), m)
		require.NoError(t, err)

		pk, _ := kp.PublicKey()
		assert.Equal(t, pk, signed.PublicKey)
		assert.True(t, svc.Verify(m, signed.Signature[:], signed.PublicKey[:]))
		assert.True(t, svc.VerifyBase58(m, signed.SignatureBase58(), signed.PublicKeyBase58()))
	}
}

func TestSign_HelloIsCaseSensitive(t *testing.T) {
	svc := newService(t, wallettest.NewKeypair(t))

	signed, err := svc.Sign(context.Background(), []byte("hello"))
	require.NoError(t, err)

	assert.True(t, svc.Verify([]byte("hello"), signed.Signature[:], signed.PublicKey[:]))
	assert.False(t, svc.Verify([]byte("Hello"), signed.Signature[:], signed.PublicKey[:]))
}

func TestSign_SingleBitFlip(t *testing.T) {
	svc := newService(t, wallettest.NewKeypair(t))
	msg := []byte("prove possession")

	signed, err := svc.Sign(context.Background(), msg)
	require.NoError(t, err)

	for i := 0; i < len(signed.Signature)*8; i++ {
		flipped := signed.Signature
		flipped[i/8] ^= 1 << (i % 8)
		assert.False(t, svc.Verify(msg, flipped[:], signed.PublicKey[:]), "bit %d", i)
	}
}

func TestSign_OtherKeyFails(t *testing.T) {
	svc := newService(t, wallettest.NewKeypair(t))
	other, _ := wallettest.NewKeypair(t).PublicKey()

	signed, err := svc.Sign(context.Background(), []byte("hello"))
	require.NoError(t, err)
	assert.False(t, svc.Verify([]byte("hello"), signed.Signature[:], other[:]))
}

func TestSign_DoesNotAlterMessage(t *testing.T) {
	kp := wallettest.NewKeypair(t)
	svc := newService(t, wallettest.Tampering{Inner: kp})

	msg := []byte("original")
	_, err := svc.Sign(context.Background(), msg)
	assert.ErrorIs(t, err, types.ErrSignatureIntegrityViolation)
	assert.Equal(t, []byte("original"), msg)
}

func TestSign_Errors(t *testing.T) {
	kp := wallettest.NewKeypair(t)
	pk, _ := kp.PublicKey()
	other := wallettest.NewKeypair(t)

	tests := []struct {
		name      string
		authority wallet.Authority
		want      error
		class     types.ErrorClass
	}{
		{"no authority", nil, types.ErrAuthorityNotConnected, types.ClassAuthority},
		{"disconnected", wallettest.Disconnected{}, types.ErrAuthorityNotConnected, types.ClassAuthority},
		{"key only", wallettest.KeyOnly{Key: pk}, types.ErrSigningUnsupported, types.ClassAuthority},
		{"rejecting", wallettest.Rejecting{Key: pk}, types.ErrSigningRejected, types.ClassAuthority},
		{"impostor", wallettest.Impostor{Claimed: pk, Signer: other}, types.ErrSignatureIntegrityViolation, types.ClassProtocolInvariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := signature.NewService(signature.WithLogger(zaptest.NewLogger(t)))
			signed, err := svc.Sign(context.Background(), []byte("hello"), tt.authority)
			require.Error(t, err)
			assert.Nil(t, signed)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.class, types.ClassOf(err))
		})
	}
}

func TestSign_ExplicitAuthorityOverridesDefault(t *testing.T) {
	def := wallettest.NewKeypair(t)
	explicit := wallettest.NewKeypair(t)
	svc := newService(t, def)

	signed, err := svc.Sign(context.Background(), []byte("x"), explicit)
	require.NoError(t, err)
	pk, _ := explicit.PublicKey()
	assert.Equal(t, pk, signed.PublicKey)
}

func TestVerifyBase58_Malformed(t *testing.T) {
	kp := wallettest.NewKeypair(t)
	svc := newService(t, kp)
	signed, err := svc.Sign(context.Background(), []byte("hello"))
	require.NoError(t, err)

	sigB58 := signed.SignatureBase58()
	pkB58 := signed.PublicKeyBase58()

	cases := map[string][2]string{
		"empty signature":       {"", pkB58},
		"empty key":             {sigB58, ""},
		"non base58 signature":  {"0OIl" + sigB58[4:], pkB58},
		"short signature":       {base58.Encode(signed.Signature[:63]), pkB58},
		"short key":             {sigB58, base58.Encode(signed.PublicKey[:31])},
		"signature used as key": {sigB58, sigB58},
		"whitespace padded key": {sigB58, " " + pkB58},
		"whitespace padded sig": {sigB58 + "\n", pkB58},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, svc.VerifyBase58([]byte("hello"), c[0], c[1]))
			})
		})
	}
}
