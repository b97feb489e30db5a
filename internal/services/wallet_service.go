// Package services – WalletService
//
// This file manages the signing wallets of the automation agents (document
// validator, certification checker, report generator). Agents without a
// configured key fall back to the system wallet. Message signing uses the
// EIP-191 personal-message scheme so signatures verify in standard wallet
// tooling.
package services

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"

	"github.com/agritrust/go-agritrust-backend/internal/chain"
	"github.com/agritrust/go-agritrust-backend/internal/config"
)

// SystemWallet is the fallback wallet identifier.
const SystemWallet = "system"

// WalletChain is the blockchain surface WalletService depends on.
type WalletChain interface {
	ChainID() *big.Int
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
	SendFrom(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount *big.Int, data []byte) (string, error)
}

// WalletInfo describes one created wallet. PrivateKey is only returned on
// creation.
type WalletInfo struct {
	AgentID    string `json:"agentId"`
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey,omitempty"`
	Balance    string `json:"balance,omitempty"`
}

// WalletContext is the agent-facing summary of a wallet.
type WalletContext struct {
	Address      string `json:"address"`
	Balance      string `json:"balance"`
	Network      string `json:"network"`
	ChainID      int64  `json:"chainId"`
	IsConfigured bool   `json:"isConfigured"`
}

// WalletService holds the per-agent signing keys.
type WalletService struct {
	// Chain is the RPC connection used for balances and transfers.
	Chain WalletChain
	// Network is the human-readable network name reported in contexts.
	Network string

	mu      sync.RWMutex
	wallets map[string]*ecdsa.PrivateKey
}

// NewWalletService loads the configured system and agent keys. Malformed
// keys are skipped with a warning rather than failing startup.
func NewWalletService(c WalletChain, chainCfg config.ChainConfig, agents config.AgentKeys) *WalletService {
	s := &WalletService{
		Chain:   c,
		Network: "polygon",
		wallets: map[string]*ecdsa.PrivateKey{},
	}
	s.load(SystemWallet, chainCfg.PrivateKey)
	s.load("document_validator", agents.DocumentValidator)
	s.load("certification_checker", agents.CertificationChecker)
	s.load("report_generator", agents.ReportGenerator)
	return s
}

func (s *WalletService) load(name, hexKey string) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		log.Warn().Str("wallet", name).Msg("skipping malformed agent key")
		return
	}
	s.wallets[name] = key
}

// wallet resolves an agent's key, falling back to the system wallet.
func (s *WalletService) wallet(agentID string) (*ecdsa.PrivateKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.wallets[agentID]; ok {
		return key, nil
	}
	if key, ok := s.wallets[SystemWallet]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownWallet, agentID)
}

// Create generates a fresh random wallet for an agent and returns it,
// private key included. The key is also kept in memory for later calls.
func (s *WalletService) Create(ctx context.Context, agentID string) (*WalletInfo, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	s.mu.Lock()
	s.wallets[agentID] = key
	s.mu.Unlock()

	addr := crypto.PubkeyToAddress(key.PublicKey)
	info := &WalletInfo{
		AgentID:    agentID,
		Address:    addr.Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}
	if bal, err := s.Chain.Balance(ctx, addr); err == nil {
		info.Balance = chain.FormatMATIC(bal)
	}
	return info, nil
}

// Address returns an agent wallet's address.
func (s *WalletService) Address(agentID string) (string, error) {
	key, err := s.wallet(agentID)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

// Balance returns an agent wallet's balance as a decimal MATIC string.
func (s *WalletService) Balance(ctx context.Context, agentID string) (string, error) {
	key, err := s.wallet(agentID)
	if err != nil {
		return "", err
	}
	bal, err := s.Chain.Balance(ctx, crypto.PubkeyToAddress(key.PublicKey))
	if err != nil {
		return "", err
	}
	return chain.FormatMATIC(bal), nil
}

// SignMessage signs a personal message (EIP-191) with the agent's wallet
// and returns the 65-byte signature hex-encoded.
func (s *WalletService) SignMessage(agentID, message string) (string, error) {
	key, err := s.wallet(agentID)
	if err != nil {
		return "", err
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	// Wallet tooling expects V in {27,28}.
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// VerifyMessage recovers the address that signed a personal message.
func (s *WalletService) VerifyMessage(message, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		sig, err = hex.DecodeString(signature)
		if err != nil {
			return "", fmt.Errorf("decode signature: %w", err)
		}
	}
	if len(sig) != 65 {
		return "", fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	if sig[64] >= 27 {
		sig = append(append([]byte{}, sig[:64]...), sig[64]-27)
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

// Send transfers value from the agent's wallet. valueMATIC is a decimal
// MATIC amount; dataHex is optional call data.
func (s *WalletService) Send(ctx context.Context, agentID, to, valueMATIC, dataHex string) (string, error) {
	key, err := s.wallet(agentID)
	if err != nil {
		return "", err
	}
	if !common.IsHexAddress(to) {
		return "", ErrInvalidAddress
	}
	wei, err := chain.ParseMATIC(valueMATIC)
	if err != nil {
		return "", ErrInvalidAmount
	}
	var data []byte
	if dataHex != "" && dataHex != "0x" {
		data, err = hexutil.Decode(dataHex)
		if err != nil {
			return "", fmt.Errorf("decode data: %w", err)
		}
	}
	return s.Chain.SendFrom(ctx, key, common.HexToAddress(to), wei, data)
}

// Context returns the agent-facing wallet summary.
func (s *WalletService) Context(ctx context.Context, agentID string) (*WalletContext, error) {
	key, err := s.wallet(agentID)
	if err != nil {
		return nil, err
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	out := &WalletContext{
		Address:      addr.Hex(),
		Network:      s.Network,
		ChainID:      s.Chain.ChainID().Int64(),
		IsConfigured: true,
	}
	bal, err := s.Chain.Balance(ctx, addr)
	if err != nil {
		return nil, err
	}
	out.Balance = chain.FormatMATIC(bal)
	return out, nil
}

// List returns the identifiers of all loaded wallets.
func (s *WalletService) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.wallets))
	for name := range s.wallets {
		out = append(out, name)
	}
	return out
}
