package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
)

// executorGasLimit is generous; executor calls carry an opaque payload whose
// estimation is unreliable.
const executorGasLimit = 500_000

// executorABI is the minimal surface of the MATE EVVM executor.
const executorABI = `[
  {"type":"function","name":"execute","stateMutability":"nonpayable","inputs":[{"name":"evvmId","type":"uint256"},{"name":"payload","type":"bytes"}],"outputs":[{"name":"","type":"bytes"}]},
  {"type":"function","name":"executeWithNonce","stateMutability":"nonpayable","inputs":[{"name":"evvmId","type":"uint256"},{"name":"payload","type":"bytes"},{"name":"nonce","type":"uint256"}],"outputs":[{"name":"","type":"bytes"}]}
]`

// ExecutorReceipt reports a confirmed executor transaction.
type ExecutorReceipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
}

// Executor anchors supply-chain lot events onto the MATE EVVM via its
// on-chain executor contract.
type Executor struct {
	client   *Client
	contract *bind.BoundContract
	addr     common.Address
	evvmID   *big.Int
}

// NewExecutor binds the executor contract at addr.
func NewExecutor(c *Client, addr string, evvmID int64) (*Executor, error) {
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid executor address %q", addr)
	}
	parsed, err := abi.JSON(strings.NewReader(executorABI))
	if err != nil {
		return nil, fmt.Errorf("parse executor abi: %w", err)
	}
	a := common.HexToAddress(addr)
	return &Executor{
		client:   c,
		contract: bind.NewBoundContract(a, parsed, c.eth, c.eth, c.eth),
		addr:     a,
		evvmID:   big.NewInt(evvmID),
	}, nil
}

// buildPayload encodes a lot event as UTF-8 JSON bytes.
func buildPayload(lotID, eventType string, at time.Time) ([]byte, error) {
	return json.Marshal(map[string]any{
		"lotId":     lotID,
		"eventType": eventType,
		"timestamp": at.UnixMilli(),
	})
}

// RegisterEvent submits a lot event to the EVVM and waits for confirmation.
// It first tries executeWithNonce with the wallet's pending nonce; on nonce
// or replacement conflicts it retries once via plain execute, letting the
// node pick the nonce.
func (e *Executor) RegisterEvent(ctx context.Context, lotID, eventType string) (*ExecutorReceipt, error) {
	if !e.client.IsConfigured() {
		return nil, ErrNoSigner
	}
	payload, err := buildPayload(lotID, eventType, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}

	nonce, err := e.client.eth.PendingNonceAt(ctx, e.client.addr)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}

	rcpt, err := e.send(ctx, "executeWithNonce", e.evvmID, payload, new(big.Int).SetUint64(nonce))
	if err == nil {
		return rcpt, nil
	}
	low := strings.ToLower(err.Error())
	if !strings.Contains(low, "nonce") && !strings.Contains(low, "replacement") {
		return nil, err
	}
	log.Warn().Err(err).Str("lot_id", lotID).Msg("executor nonce conflict, retrying without explicit nonce")
	return e.send(ctx, "execute", e.evvmID, payload)
}

func (e *Executor) send(ctx context.Context, method string, args ...any) (*ExecutorReceipt, error) {
	opts, err := e.client.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	opts.GasLimit = executorGasLimit
	tx, err := e.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	receipt, err := bind.WaitMined(ctx, e.client.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s: tx %s reverted", method, tx.Hash().Hex())
	}
	return &ExecutorReceipt{
		TxHash:      tx.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}
