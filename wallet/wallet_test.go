package wallet_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet/wallettest"
)

func TestNewKeypair(t *testing.T) {
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	kp, err := wallet.NewKeypair(priv)
	require.NoError(t, err)

	pk, ok := kp.PublicKey()
	require.True(t, ok)
	assert.Equal(t, priv.PublicKey(), pk)

	_, err = wallet.NewKeypair(priv[:32])
	assert.Error(t, err)
}

func TestNewKeypairFromFile(t *testing.T) {
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	// solana-keygen 文件格式：64 个整数组成的 JSON 数组
	ints := make([]int, len(priv))
	for i, b := range priv {
		ints[i] = int(b)
	}
	buf, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, buf, 0o600))

	kp, err := wallet.NewKeypairFromFile(path)
	require.NoError(t, err)
	pk, _ := kp.PublicKey()
	assert.Equal(t, priv.PublicKey(), pk)

	_, err = wallet.NewKeypairFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewKeypairFromBase58(t *testing.T) {
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	kp, err := wallet.NewKeypairFromBase58(priv.String())
	require.NoError(t, err)
	pk, _ := kp.PublicKey()
	assert.Equal(t, priv.PublicKey(), pk)
}

func TestKeypair_Disconnect(t *testing.T) {
	kp := wallettest.NewKeypair(t)

	kp.Disconnect()
	_, ok := kp.PublicKey()
	assert.False(t, ok)
	_, err := kp.SignMessage(context.Background(), []byte("hi"))
	assert.Error(t, err)

	kp.Connect()
	_, ok = kp.PublicKey()
	assert.True(t, ok)
}

func TestRequestMessageSignature(t *testing.T) {
	ctx := context.Background()
	kp := wallettest.NewKeypair(t)
	pk, _ := kp.PublicKey()
	other := wallettest.NewKeypair(t)

	tests := []struct {
		name     string
		auth     wallet.Authority
		wantCode types.ErrorCode
	}{
		{name: "connected keypair", auth: kp},
		{name: "nil authority", auth: nil, wantCode: types.ErrorCodeAuthorityNotConnected},
		{name: "typed nil keypair", auth: (*wallet.Keypair)(nil), wantCode: types.ErrorCodeAuthorityNotConnected},
		{name: "disconnected", auth: wallettest.Disconnected{}, wantCode: types.ErrorCodeAuthorityNotConnected},
		{name: "no signing capability", auth: wallettest.KeyOnly{Key: pk}, wantCode: types.ErrorCodeSigningUnsupported},
		{name: "user rejects", auth: wallettest.Rejecting{Key: pk}, wantCode: types.ErrorCodeSigningRejected},
		{name: "impostor key", auth: wallettest.Impostor{Claimed: pk, Signer: other}, wantCode: types.ErrorCodeSignatureIntegrityViolation},
		{name: "tampering wallet", auth: wallettest.Tampering{Inner: kp}, wantCode: types.ErrorCodeSignatureIntegrityViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := []byte("hello")
			sig, gotKey, err := wallet.RequestMessageSignature(ctx, tt.auth, msg)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, pk, gotKey)
				assert.True(t, wallet.Verify(msg, sig[:], gotKey[:]))
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.CodeOf(err))
			assert.Equal(t, []byte("hello"), msg, "caller bytes must not be altered")
		})
	}
}

func TestRequestMessageSignature_RejectCause(t *testing.T) {
	kp := wallettest.NewKeypair(t)
	pk, _ := kp.PublicKey()

	_, _, err := wallet.RequestMessageSignature(context.Background(), wallettest.Rejecting{Key: pk}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wallettest.ErrUserRejected))
	assert.Equal(t, types.ClassAuthority, types.ClassOf(err))
}

func TestRequestTransactionSignature(t *testing.T) {
	ctx := context.Background()
	kp := wallettest.NewKeypair(t)
	pk, _ := kp.PublicKey()
	other := wallettest.NewKeypair(t)
	otherKey, _ := other.PublicKey()
	preimage := []byte{1, 0, 1, 3, 9, 9, 9}

	sig, err := wallet.RequestTransactionSignature(ctx, kp, preimage, pk)
	require.NoError(t, err)
	assert.True(t, wallet.Verify(preimage, sig[:], pk[:]))

	_, err = wallet.RequestTransactionSignature(ctx, wallettest.MessageOnly{Inner: kp}, preimage, pk)
	assert.ErrorIs(t, err, types.ErrSigningUnsupported)

	_, err = wallet.RequestTransactionSignature(ctx, kp, preimage, otherKey)
	assert.ErrorIs(t, err, types.ErrAuthorityMismatch)

	_, err = wallet.RequestTransactionSignature(ctx, wallettest.Tampering{Inner: kp}, preimage, pk)
	assert.ErrorIs(t, err, types.ErrSignatureIntegrityViolation)
	assert.Equal(t, types.ClassProtocolInvariant, types.ClassOf(err))
}
