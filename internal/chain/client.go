// Package chain wraps the Polygon JSON-RPC connection and the two on-chain
// collaborators the application uses: the AgriculturalReputation contract and
// the EVVM executor that anchors supply-chain lot events. All methods take a
// context and return wrapped errors; transaction methods wait for the receipt
// before returning.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/agritrust/go-agritrust-backend/internal/config"
)

// transferGasLimit is the intrinsic gas of a plain value transfer.
const transferGasLimit = 21_000

// Client is a signing-capable connection to a Polygon JSON-RPC endpoint.
// The signing key is optional; read methods work without it and write
// methods report ErrNoSigner.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	addr    common.Address
}

// ErrNoSigner is returned by write operations when no PRIVATE_KEY was
// configured.
var ErrNoSigner = fmt.Errorf("no signing key configured")

// Dial connects to the configured RPC endpoint and loads the signing key if
// one is present. It never fails on a missing key so the service can start
// in read-only mode.
func Dial(ctx context.Context, cfg config.ChainConfig) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}
	c := &Client{eth: eth, chainID: big.NewInt(cfg.ChainID)}

	if k := strings.TrimSpace(cfg.PrivateKey); k != "" {
		key, err := crypto.HexToECDSA(k)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		c.key = key
		c.addr = crypto.PubkeyToAddress(key.PublicKey)
		log.Info().Str("wallet", c.addr.Hex()).Msg("chain signer loaded")
	} else {
		log.Warn().Msg("PRIVATE_KEY not set; chain writes disabled")
	}
	return c, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	if c != nil && c.eth != nil {
		c.eth.Close()
	}
}

// IsConfigured reports whether the client can sign transactions.
func (c *Client) IsConfigured() bool { return c != nil && c.key != nil }

// ChainID returns the configured chain ID.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// WalletAddress returns the checksummed address of the signing wallet, or
// the empty string when no key is configured.
func (c *Client) WalletAddress() string {
	if !c.IsConfigured() {
		return ""
	}
	return c.addr.Hex()
}

// Balance returns the current wei balance of addr.
func (c *Client) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	bal, err := c.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", addr.Hex(), err)
	}
	return bal, nil
}

// WalletBalance returns the wei balance of the signing wallet.
func (c *Client) WalletBalance(ctx context.Context) (*big.Int, error) {
	if !c.IsConfigured() {
		return nil, ErrNoSigner
	}
	return c.Balance(ctx, c.addr)
}

// SendValue transfers amount wei from the signing wallet to `to` and waits
// for the transaction to be mined. It returns the transaction hash.
func (c *Client) SendValue(ctx context.Context, to common.Address, amount *big.Int) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNoSigner
	}
	nonce, err := c.eth.PendingNonceAt(ctx, c.addr)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount,
		Gas:      transferGasLimit,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send tx: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, c.eth, signed)
	if err != nil {
		return "", fmt.Errorf("wait mined %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return signed.Hash().Hex(), fmt.Errorf("tx %s reverted", signed.Hash().Hex())
	}
	return signed.Hash().Hex(), nil
}

// SendFrom transfers amount wei from an arbitrary key, optionally with call
// data, and waits for the transaction to be mined. Used by the agent wallet
// service, which manages keys of its own.
func (c *Client) SendFrom(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount *big.Int, data []byte) (string, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)
	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}
	gas := uint64(transferGasLimit)
	if len(data) > 0 {
		gas = executorGasLimit
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), key)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send tx: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, c.eth, signed)
	if err != nil {
		return "", fmt.Errorf("wait mined %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return signed.Hash().Hex(), fmt.Errorf("tx %s reverted", signed.Hash().Hex())
	}
	return signed.Hash().Hex(), nil
}

// transactOpts builds keyed transact options bound to ctx.
func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if !c.IsConfigured() {
		return nil, ErrNoSigner
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}
