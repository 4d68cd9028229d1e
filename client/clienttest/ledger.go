// Package clienttest 提供内存账本，用于在不连接真实节点的情况下测试转账生命周期。
package clienttest

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/rahmanfaizur/Web-Wallet-DAPP/client"
)

const (
	// DefaultBlockhashTTL blockhash 有效期（约 150 个 slot）
	DefaultBlockhashTTL = 60 * time.Second
	// DefaultFeePerSignature 每个签名的手续费
	DefaultFeePerSignature uint64 = 5000
	// DefaultAirdropLimit 单次空投上限
	DefaultAirdropLimit uint64 = 2_000_000_000

	// 与 Solana 节点一致的 JSON-RPC 错误码
	rpcCodeInvalidParams      = -32602
	rpcCodeSimulationFailed   = -32002
	rpcCodeSignatureFailure   = -32003
	rpcCodeAirdropUnavailable = -32603

	systemTransferTag uint32 = 2
)

var (
	_ client.Connection          = (*Ledger)(nil)
	_ client.SignatureSubscriber = (*Ledger)(nil)

	errUnreachable = errors.New("dial tcp: connect: connection refused")
)

// Ledger 内存账本
//
// 模拟单个节点：签发 blockhash、校验签名、执行 System Program 转账、
// 按轮询次数推进确认状态。虚拟时钟只通过 Advance 前进。
type Ledger struct {
	mu sync.Mutex

	now         time.Time
	slot        uint64
	seq         uint64
	balances    map[solana.PublicKey]uint64
	blockhashes map[solana.Hash]time.Time
	txs         map[solana.Signature]*txRecord
	subs        map[solana.Signature][]chan client.SignatureNotification
	calls       map[string]int

	blockhashTTL    time.Duration
	feePerSignature uint64
	airdropLimit    uint64
	confirmAfter    int
	neverConfirm    bool
	unreachable     bool
	executionErr    json.RawMessage
}

type txRecord struct {
	slot      uint64
	polls     int
	confirmed bool
	err       json.RawMessage
}

// NewLedger 创建空账本
func NewLedger() *Ledger {
	return &Ledger{
		now:             time.Unix(1_700_000_000, 0),
		slot:            1,
		balances:        make(map[solana.PublicKey]uint64),
		blockhashes:     make(map[solana.Hash]time.Time),
		txs:             make(map[solana.Signature]*txRecord),
		subs:            make(map[solana.Signature][]chan client.SignatureNotification),
		calls:           make(map[string]int),
		blockhashTTL:    DefaultBlockhashTTL,
		feePerSignature: DefaultFeePerSignature,
		airdropLimit:    DefaultAirdropLimit,
	}
}

// Fund 给账户充值
func (l *Ledger) Fund(account solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += lamports
}

// Balance 读取账户余额（不计入调用次数）
func (l *Ledger) Balance(account solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// Advance 推进虚拟时钟，过期的 blockhash 随之失效
func (l *Ledger) Advance(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = l.now.Add(d)
	l.slot += uint64(d / (400 * time.Millisecond))
}

// SetConfirmAfter 交易在被查询 n 次之后才达到 confirmed
func (l *Ledger) SetConfirmAfter(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirmAfter = n
}

// SetNeverConfirm 交易停留在 processed，除非显式调用 Confirm
func (l *Ledger) SetNeverConfirm(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.neverConfirm = v
}

// SetUnreachable 模拟节点不可达
func (l *Ledger) SetUnreachable(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unreachable = v
}

// SetExecutionFailure 后续交易被接受但执行失败（扣手续费，不转账）
//
// errJSON 为空时恢复正常执行。
func (l *Ledger) SetExecutionFailure(errJSON string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if errJSON == "" {
		l.executionErr = nil
		return
	}
	l.executionErr = json.RawMessage(errJSON)
}

// SetBlockhashTTL 设置 blockhash 有效期
func (l *Ledger) SetBlockhashTTL(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blockhashTTL = d
}

// Calls 返回某个方法被调用的次数
func (l *Ledger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

// Confirm 立即确认交易并通知订阅者
func (l *Ledger) Confirm(sig solana.Signature) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.txs[sig]
	if !ok {
		return false
	}
	l.confirmLocked(sig, rec)
	return true
}

func (l *Ledger) confirmLocked(sig solana.Signature, rec *txRecord) {
	if rec.confirmed {
		return
	}
	rec.confirmed = true
	note := client.SignatureNotification{Slot: rec.slot, Err: rec.err}
	for _, ch := range l.subs[sig] {
		ch <- note
		close(ch)
	}
	delete(l.subs, sig)
}

func (l *Ledger) enter(method string) error {
	l.calls[method]++
	if l.unreachable {
		return client.NewNetworkError(errUnreachable)
	}
	return nil
}

func (l *Ledger) nextHash() solana.Hash {
	l.seq++
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], l.seq)
	return solana.Hash(sha256.Sum256(buf[:]))
}

// GetLatestBlockhash 签发新的 blockhash
func (l *Ledger) GetLatestBlockhash(ctx context.Context) (*client.LatestBlockhash, error) {
	if err := ctx.Err(); err != nil {
		return nil, client.NewTimeoutError(err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("getLatestBlockhash"); err != nil {
		return nil, err
	}

	l.slot++
	hash := l.nextHash()
	l.blockhashes[hash] = l.now
	return &client.LatestBlockhash{
		Blockhash:            hash,
		LastValidBlockHeight: l.slot + 150,
	}, nil
}

// GetBalance 查询余额
func (l *Ledger) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, client.NewTimeoutError(err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("getBalance"); err != nil {
		return 0, err
	}
	return l.balances[account], nil
}

// SendTransaction 校验并执行交易
func (l *Ledger) SendTransaction(ctx context.Context, rawTx []byte) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, client.NewTimeoutError(err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("sendTransaction"); err != nil {
		return solana.Signature{}, err
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(rawTx))
	if err != nil {
		return solana.Signature{}, client.NewRPCError(rpcCodeInvalidParams,
			fmt.Sprintf("failed to deserialize transaction: %v", err), nil)
	}
	if err := verifySignatures(tx); err != nil {
		return solana.Signature{}, client.NewRPCError(rpcCodeSignatureFailure, err.Error(), nil)
	}
	sig := tx.Signatures[0]

	issued, ok := l.blockhashes[tx.Message.RecentBlockhash]
	if !ok || l.now.Sub(issued) > l.blockhashTTL {
		return solana.Signature{}, client.NewRPCError(rpcCodeSimulationFailed,
			"Transaction simulation failed: Blockhash not found", json.RawMessage(`{"err":"BlockhashNotFound"}`))
	}
	if _, dup := l.txs[sig]; dup {
		return solana.Signature{}, client.NewRPCError(rpcCodeSimulationFailed,
			"Transaction simulation failed: This transaction has already been processed", nil)
	}

	payer := tx.Message.AccountKeys[0]
	fee := l.feePerSignature * uint64(len(tx.Signatures))
	if l.balances[payer] == 0 {
		return solana.Signature{}, client.NewRPCError(rpcCodeSimulationFailed,
			"Transaction simulation failed: Attempt to debit an account but found no record of a prior credit.",
			json.RawMessage(`{"err":"AccountNotFound"}`))
	}

	transfers, err := decodeTransfers(tx)
	if err != nil {
		return solana.Signature{}, client.NewRPCError(rpcCodeSimulationFailed,
			"Transaction simulation failed: "+err.Error(), nil)
	}

	rec := &txRecord{slot: l.slot}
	if l.executionErr != nil {
		if l.balances[payer] < fee {
			return solana.Signature{}, insufficientFunds()
		}
		l.balances[payer] -= fee
		rec.err = l.executionErr
	} else {
		// 模拟执行，全部成功后再落账
		next := map[solana.PublicKey]uint64{payer: l.balances[payer]}
		if next[payer] < fee {
			return solana.Signature{}, insufficientFunds()
		}
		next[payer] -= fee
		for _, t := range transfers {
			if _, ok := next[t.from]; !ok {
				next[t.from] = l.balances[t.from]
			}
			if next[t.from] < t.lamports {
				return solana.Signature{}, insufficientFunds()
			}
			next[t.from] -= t.lamports
			if _, ok := next[t.to]; !ok {
				next[t.to] = l.balances[t.to]
			}
			next[t.to] += t.lamports
		}
		for account, bal := range next {
			l.balances[account] = bal
		}
	}

	l.txs[sig] = rec
	return sig, nil
}

func insufficientFunds() *client.Error {
	return client.NewRPCError(rpcCodeSimulationFailed,
		"Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1",
		json.RawMessage(`{"err":{"InstructionError":[0,{"Custom":1}]}}`))
}

// verifySignatures 校验每个必需签名覆盖序列化后的消息
func verifySignatures(tx *solana.Transaction) error {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required == 0 || len(tx.Signatures) != required || len(tx.Message.AccountKeys) < required {
		return fmt.Errorf("Transaction signature verification failure: expected %d signatures, got %d",
			required, len(tx.Signatures))
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	for i, sig := range tx.Signatures {
		if !sig.Verify(tx.Message.AccountKeys[i], msg) {
			return errors.New("Transaction signature verification failure")
		}
	}
	return nil
}

type transferOp struct {
	from, to solana.PublicKey
	lamports uint64
}

// decodeTransfers 解析 System Program 转账指令，其他指令一律拒绝
func decodeTransfers(tx *solana.Transaction) ([]transferOp, error) {
	keys := tx.Message.AccountKeys
	ops := make([]transferOp, 0, len(tx.Message.Instructions))
	for i, inst := range tx.Message.Instructions {
		if int(inst.ProgramIDIndex) >= len(keys) || !keys[inst.ProgramIDIndex].Equals(solana.SystemProgramID) {
			return nil, fmt.Errorf("instruction %d: unsupported program", i)
		}
		data := []byte(inst.Data)
		if len(data) != 12 || binary.LittleEndian.Uint32(data[:4]) != systemTransferTag || len(inst.Accounts) != 2 {
			return nil, fmt.Errorf("instruction %d: unsupported system instruction", i)
		}
		from, to := int(inst.Accounts[0]), int(inst.Accounts[1])
		if from >= len(keys) || to >= len(keys) {
			return nil, fmt.Errorf("instruction %d: account index out of range", i)
		}
		if from >= int(tx.Message.Header.NumRequiredSignatures) {
			return nil, fmt.Errorf("instruction %d: missing signature for funding account", i)
		}
		ops = append(ops, transferOp{
			from:     keys[from],
			to:       keys[to],
			lamports: binary.LittleEndian.Uint64(data[4:]),
		})
	}
	return ops, nil
}

// GetSignatureStatus 查询交易状态；每次查询推进一次确认进度
func (l *Ledger) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*client.SignatureStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, client.NewTimeoutError(err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("getSignatureStatuses"); err != nil {
		return nil, err
	}

	rec, ok := l.txs[sig]
	if !ok {
		return nil, nil
	}
	rec.polls++
	if !l.neverConfirm && rec.polls > l.confirmAfter {
		l.confirmLocked(sig, rec)
	}

	status := &client.SignatureStatus{
		Slot:               rec.slot,
		Err:                rec.err,
		ConfirmationStatus: client.CommitmentProcessed,
	}
	if rec.confirmed {
		one := uint64(1)
		status.Confirmations = &one
		status.ConfirmationStatus = client.CommitmentConfirmed
	}
	return status, nil
}

// RequestAirdrop 水龙头充值
func (l *Ledger) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, client.NewTimeoutError(err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("requestAirdrop"); err != nil {
		return solana.Signature{}, err
	}
	if lamports > l.airdropLimit {
		return solana.Signature{}, client.NewRPCError(rpcCodeAirdropUnavailable,
			"Internal error: airdrop request exceeds faucet limit", nil)
	}

	l.balances[account] += lamports
	h := l.nextHash()
	var sig solana.Signature
	copy(sig[:], h[:])
	copy(sig[32:], account[:])
	l.txs[sig] = &txRecord{slot: l.slot, confirmed: true}
	return sig, nil
}

// SubscribeSignature 交易确认时推送一次通知
func (l *Ledger) SubscribeSignature(ctx context.Context, sig solana.Signature) (<-chan client.SignatureNotification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("signatureSubscribe"); err != nil {
		return nil, err
	}

	ch := make(chan client.SignatureNotification, 1)
	if rec, ok := l.txs[sig]; ok && rec.confirmed {
		ch <- client.SignatureNotification{Slot: rec.slot, Err: rec.err}
		close(ch)
		return ch, nil
	}
	l.subs[sig] = append(l.subs[sig], ch)

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		list := l.subs[sig]
		for i, c := range list {
			if c == ch {
				l.subs[sig] = append(list[:i], list[i+1:]...)
				close(ch)
				break
			}
		}
	}()
	return ch, nil
}

// Close 无操作
func (l *Ledger) Close() error {
	return nil
}
