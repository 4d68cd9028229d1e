package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/services/transfer"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/test/integration"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

// TestTransfer_Run 测试完整转账流程
func TestTransfer_Run(t *testing.T) {
	c := integration.SetupTestClient(t)
	defer integration.TeardownTestClient(t, c)

	sender := integration.CreateTestWallet(t)
	senderKey, _ := sender.PublicKey()
	integration.FundTestAccount(t, c, senderKey, "1")

	recipient := solana.NewWallet().PublicKey()
	svc := transfer.NewServiceWithWallet(c, sender, transfer.WithLogger(zaptest.NewLogger(t)))

	unsigned, err := svc.BuildFromInput(senderKey, recipient.String(), "0.1")
	require.NoError(t, err)

	attempt := svc.NewAttempt(unsigned, integration.TransactionConfirmTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), 2*integration.TransactionConfirmTimeout)
	defer cancel()
	require.NoError(t, svc.Run(ctx, attempt))

	assert.Equal(t, transfer.StageConfirmed, attempt.Stage, "尝试状态: %s", attempt.Status)
	integration.VerifyBalanceChange(t, c, recipient, 100_000_000, 0)
	// 发送方余额 = 1 SOL - 0.1 SOL - 手续费
	integration.VerifyBalanceChange(t, c, senderKey, 900_000_000, 10_000)
}

// TestTransfer_UnfundedSender 测试未充值账户的广播拒绝
func TestTransfer_UnfundedSender(t *testing.T) {
	c := integration.SetupTestClient(t)
	defer integration.TeardownTestClient(t, c)

	sender := integration.CreateTestWallet(t)
	senderKey, _ := sender.PublicKey()
	svc := transfer.NewServiceWithWallet(c, sender)

	ctx, cancel := context.WithTimeout(context.Background(), integration.DefaultTimeout)
	defer cancel()

	unsigned, err := svc.Build(senderKey, solana.NewWallet().PublicKey().String(), 1)
	require.NoError(t, err)
	env, err := svc.Stamp(ctx, unsigned)
	require.NoError(t, err)
	signed, err := svc.Sign(ctx, env)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, signed)
	assert.ErrorIs(t, err, types.ErrBroadcastRejected)
}

// TestTransfer_AwaitUnknown 测试从未广播的交易在超时后失败
func TestTransfer_AwaitUnknown(t *testing.T) {
	c := integration.SetupTestClient(t)
	defer integration.TeardownTestClient(t, c)

	var id solana.Signature
	id[0] = 7
	status := transfer.NewService(c).AwaitConfirmation(context.Background(), id, time.Second)
	assert.Equal(t, types.StateFailed, status.State)
	assert.Equal(t, types.ReasonTimeout, status.Reason)
}
