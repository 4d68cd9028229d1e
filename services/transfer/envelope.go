package transfer

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/types"
)

// UnsignedTransfer 已校验的转账意图
type UnsignedTransfer struct {
	Sender    solana.PublicKey `json:"sender"`
	Recipient solana.PublicKey `json:"recipient"`
	Lamports  uint64           `json:"lamports"`
}

// Envelope 交易信封
//
// 一旦加盖 blockhash，手续费支付方固定为发送方；签名槽位只填一次。
type Envelope struct {
	Transfer             UnsignedTransfer  `json:"transfer"`
	Blockhash            solana.Hash       `json:"blockhash"`
	LastValidBlockHeight uint64            `json:"lastValidBlockHeight"`
	FeePayer             solana.PublicKey  `json:"feePayer"`
	Signature            *solana.Signature `json:"signature,omitempty"`
}

// Signed 是否已签名
func (e *Envelope) Signed() bool {
	return e != nil && e.Signature != nil
}

// transaction 按网络规范顺序构建 legacy 交易（一条 System Program 转账指令）
func (e *Envelope) transaction() (*solana.Transaction, error) {
	inst := system.NewTransferInstruction(e.Transfer.Lamports, e.Transfer.Sender, e.Transfer.Recipient).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{inst},
		e.Blockhash,
		solana.TransactionPayer(e.FeePayer),
	)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	return tx, nil
}

// Preimage 返回签名方需要签名的消息字节
//
// 与 Serialize 输出中签名数组之后的部分逐字节相同。
func (e *Envelope) Preimage() ([]byte, error) {
	tx, err := e.transaction()
	if err != nil {
		return nil, err
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return msg, nil
}

// Serialize 返回可广播的交易字节（签名 compact-array + 消息）
func (e *Envelope) Serialize() ([]byte, error) {
	if !e.Signed() {
		return nil, types.NewError(types.ErrorCodeInvalidState, "envelope is not signed", nil)
	}

	tx, err := e.transaction()
	if err != nil {
		return nil, err
	}
	if n := int(tx.Message.Header.NumRequiredSignatures); n != 1 {
		return nil, types.Errorf(types.ErrorCodeSignatureIntegrityViolation,
			"transfer message requires %d signatures, envelope carries 1", n)
	}
	tx.Signatures = []solana.Signature{*e.Signature}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	if !bytes.HasSuffix(raw, msg) {
		return nil, types.NewError(types.ErrorCodeSignatureIntegrityViolation,
			"serialized transaction does not embed the signed message", nil)
	}
	return raw, nil
}
