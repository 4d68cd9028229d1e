package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client/clienttest"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/services/account"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/wallet/wallettest"
)

func TestGetBalance(t *testing.T) {
	ledger := clienttest.NewLedger()
	svc := account.NewService(ledger, account.WithLogger(zaptest.NewLogger(t)))
	pk, _ := wallettest.NewKeypair(t).PublicKey()
	ledger.Fund(pk, 1_234_567_890)

	bal, err := svc.GetBalance(context.Background(), pk.String())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_234_567_890), bal.Lamports)
	assert.Equal(t, "1.2346", bal.SOL())

	_, err = svc.GetBalance(context.Background(), "not a key")
	assert.ErrorIs(t, err, types.ErrInvalidPublicKey)
	assert.Equal(t, 1, ledger.Calls("getBalance"), "invalid input never reaches the node")

	ledger.SetUnreachable(true)
	_, err = svc.GetBalance(context.Background(), pk.String())
	assert.ErrorIs(t, err, types.ErrNetworkUnavailable)
}

func TestRequestAirdrop(t *testing.T) {
	ledger := clienttest.NewLedger()
	svc := account.NewService(ledger, account.WithLogger(zaptest.NewLogger(t)))
	pk, _ := wallettest.NewKeypair(t).PublicKey()
	ctx := context.Background()

	_, err := svc.RequestAirdrop(ctx, pk.String(), "1.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), ledger.Balance(pk))

	t.Run("invalid amount", func(t *testing.T) {
		for _, sol := range []string{"0", "-1", "abc", "0.0000000001"} {
			_, err := svc.RequestAirdrop(ctx, pk.String(), sol)
			assert.ErrorIs(t, err, types.ErrInvalidAmount, sol)
		}
	})

	t.Run("invalid address", func(t *testing.T) {
		_, err := svc.RequestAirdrop(ctx, "", "1")
		assert.ErrorIs(t, err, types.ErrInvalidPublicKey)
	})

	t.Run("faucet refuses", func(t *testing.T) {
		_, err := svc.RequestAirdrop(ctx, pk.String(), "100")
		assert.ErrorIs(t, err, types.ErrBroadcastRejected)
	})

	assert.Equal(t, 2, ledger.Calls("requestAirdrop"))

	t.Run("unreachable", func(t *testing.T) {
		ledger.SetUnreachable(true)
		defer ledger.SetUnreachable(false)
		_, err := svc.RequestAirdrop(ctx, pk.String(), "1")
		assert.ErrorIs(t, err, types.ErrNetworkUnavailable)
	})
}
