package services

import (
	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

// NetworkError 将节点读请求的失败归类为 NETWORK_UNAVAILABLE
//
// 已经是 WalletError 的错误原样返回。
func NetworkError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := types.IsWalletError(err); ok {
		return err
	}
	return types.NewError(types.ErrorCodeNetworkUnavailable, op, err)
}

// BroadcastError 将广播失败归类
//
// 节点处理后以 JSON-RPC 错误拒绝（blockhash 过期、余额不足、交易格式错误）
// 为 BROADCAST_REJECTED，原因取节点返回的消息；其余为 NETWORK_UNAVAILABLE。
func BroadcastError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := types.IsWalletError(err); ok {
		return err
	}
	if rpcErr, ok := client.IsRPCError(err); ok {
		return types.NewError(types.ErrorCodeBroadcastRejected, rpcErr.RPCMessage, err)
	}
	return types.NewError(types.ErrorCodeNetworkUnavailable, op, err)
}
