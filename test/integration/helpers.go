package integration

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/services/account"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/services/transfer"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

// FundTestAccount 通过水龙头为测试账户充值并等待确认
//
// **功能**：
// - 请求空投（本地节点无额度限制，devnet 单次上限约 2 SOL）
// - 等待空投交易确认，确认前余额不可用
func FundTestAccount(t *testing.T, c client.Connection, address solana.PublicKey, sol string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), TransactionConfirmTimeout)
	defer cancel()

	sig, err := account.NewService(c).RequestAirdrop(ctx, address.String(), sol)
	require.NoError(t, err, "请求空投失败")

	status := transfer.NewService(c).AwaitConfirmation(ctx, sig, TransactionConfirmTimeout)
	require.Equal(t, types.StateConfirmed, status.State, "空投未确认: %s", status)

	t.Logf("已为账户充值: %s (%s SOL)", address, sol)
}

// GetTestAccountBalance 查询测试账户余额（lamports）
func GetTestAccountBalance(t *testing.T, c client.Connection, address solana.PublicKey) uint64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bal, err := account.NewService(c).GetBalance(ctx, address.String())
	require.NoError(t, err, "查询余额失败")
	return bal.Lamports
}

// VerifyBalanceChange 验证余额变化
//
// tolerance 用于吸收手续费等无法精确预知的差额。
func VerifyBalanceChange(t *testing.T, c client.Connection, address solana.PublicKey, expected, tolerance uint64) {
	t.Helper()
	actual := GetTestAccountBalance(t, c, address)

	if tolerance == 0 {
		assert.Equal(t, expected, actual, "余额不匹配")
		return
	}
	diff := actual - expected
	if actual < expected {
		diff = expected - actual
	}
	assert.LessOrEqual(t, diff, tolerance, "余额差异超出容差范围: 预期=%d, 实际=%d, 差异=%d", expected, actual, diff)
}
