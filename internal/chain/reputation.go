package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// reputationABI covers the subset of the AgriculturalReputation contract the
// backend uses. Array getters are the auto-generated public mapping accessors.
const reputationABI = `[
  {"type":"function","name":"farmers","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[
    {"name":"farmerAddress","type":"address"},
    {"name":"farmerId","type":"string"},
    {"name":"reputationScore","type":"uint256"},
    {"name":"totalVerifications","type":"uint256"},
    {"name":"validCertifications","type":"uint256"},
    {"name":"isRegistered","type":"bool"},
    {"name":"registrationDate","type":"uint256"}]},
  {"type":"function","name":"farmerDocuments","stateMutability":"view","inputs":[{"name":"","type":"address"},{"name":"","type":"uint256"}],"outputs":[
    {"name":"docHash","type":"string"},
    {"name":"docType","type":"string"},
    {"name":"timestamp","type":"uint256"},
    {"name":"isValidated","type":"bool"},
    {"name":"validatedBy","type":"address"}]},
  {"type":"function","name":"farmerVerifications","stateMutability":"view","inputs":[{"name":"","type":"address"},{"name":"","type":"uint256"}],"outputs":[
    {"name":"step","type":"uint256"},
    {"name":"status","type":"bool"},
    {"name":"timestamp","type":"uint256"},
    {"name":"verifiedBy","type":"address"},
    {"name":"details","type":"string"}]},
  {"type":"function","name":"certifications","stateMutability":"view","inputs":[{"name":"","type":"address"},{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"registerFarmer","stateMutability":"nonpayable","inputs":[{"name":"farmer","type":"address"},{"name":"farmerId","type":"string"}],"outputs":[]},
  {"type":"function","name":"registerDocument","stateMutability":"nonpayable","inputs":[{"name":"farmer","type":"address"},{"name":"docHash","type":"string"},{"name":"docType","type":"string"}],"outputs":[]},
  {"type":"function","name":"logVerification","stateMutability":"nonpayable","inputs":[{"name":"farmer","type":"address"},{"name":"step","type":"uint256"},{"name":"status","type":"bool"},{"name":"details","type":"string"}],"outputs":[]},
  {"type":"function","name":"updateReputation","stateMutability":"nonpayable","inputs":[{"name":"farmer","type":"address"},{"name":"newScore","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"addCertification","stateMutability":"nonpayable","inputs":[{"name":"farmer","type":"address"},{"name":"certification","type":"string"}],"outputs":[]},
  {"type":"function","name":"logX402Payment","stateMutability":"nonpayable","inputs":[{"name":"farmer","type":"address"},{"name":"amount","type":"uint256"},{"name":"action","type":"string"}],"outputs":[]}
]`

// FarmerInfo mirrors the contract's farmer record.
type FarmerInfo struct {
	FarmerAddress    string    `json:"farmerAddress"`
	FarmerID         string    `json:"farmerId"`
	ReputationScore  int64     `json:"reputationScore"`
	Verifications    int64     `json:"totalVerifications"`
	Certifications   int64     `json:"validCertifications"`
	IsRegistered     bool      `json:"isRegistered"`
	RegistrationDate time.Time `json:"registrationDate"`
}

// DocumentRecord mirrors one entry of the contract's per-farmer document list.
type DocumentRecord struct {
	DocHash     string    `json:"docHash"`
	DocType     string    `json:"docType"`
	Timestamp   time.Time `json:"timestamp"`
	IsValidated bool      `json:"isValidated"`
	ValidatedBy string    `json:"validatedBy"`
}

// VerificationRecord mirrors one entry of the contract's verification log.
type VerificationRecord struct {
	Step       int       `json:"step"`
	Status     bool      `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	VerifiedBy string    `json:"verifiedBy"`
	Details    string    `json:"details"`
}

// Reputation is a typed handle on the AgriculturalReputation contract.
type Reputation struct {
	client   *Client
	contract *bind.BoundContract
	addr     common.Address
}

// NewReputation binds the contract at addr. Returns nil when addr is empty
// or the zero address, which means contract features are disabled.
func NewReputation(c *Client, addr string) (*Reputation, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" || addr == (common.Address{}).Hex() {
		return nil, nil
	}
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("invalid contract address %q", addr)
	}
	parsed, err := abi.JSON(strings.NewReader(reputationABI))
	if err != nil {
		return nil, fmt.Errorf("parse reputation abi: %w", err)
	}
	a := common.HexToAddress(addr)
	return &Reputation{
		client:   c,
		contract: bind.NewBoundContract(a, parsed, c.eth, c.eth, c.eth),
		addr:     a,
	}, nil
}

// Address returns the bound contract address.
func (r *Reputation) Address() string { return r.addr.Hex() }

func unixTime(v *big.Int) time.Time {
	if v == nil || v.Sign() == 0 {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0).UTC()
}

// FarmerInfo reads the farmer record for addr.
func (r *Reputation) FarmerInfo(ctx context.Context, addr common.Address) (*FarmerInfo, error) {
	var out []any
	err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "farmers", addr)
	if err != nil {
		return nil, fmt.Errorf("farmers(%s): %w", addr.Hex(), err)
	}
	if len(out) != 7 {
		return nil, fmt.Errorf("farmers(%s): unexpected output arity %d", addr.Hex(), len(out))
	}
	return &FarmerInfo{
		FarmerAddress:    out[0].(common.Address).Hex(),
		FarmerID:         out[1].(string),
		ReputationScore:  out[2].(*big.Int).Int64(),
		Verifications:    out[3].(*big.Int).Int64(),
		Certifications:   out[4].(*big.Int).Int64(),
		IsRegistered:     out[5].(bool),
		RegistrationDate: unixTime(out[6].(*big.Int)),
	}, nil
}

// Documents walks the per-farmer document array until the first out-of-range
// revert. The contract exposes no length getter.
func (r *Reputation) Documents(ctx context.Context, addr common.Address) ([]DocumentRecord, error) {
	docs := []DocumentRecord{}
	for i := int64(0); ; i++ {
		var out []any
		err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "farmerDocuments", addr, big.NewInt(i))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return docs, nil
		}
		docs = append(docs, DocumentRecord{
			DocHash:     out[0].(string),
			DocType:     out[1].(string),
			Timestamp:   unixTime(out[2].(*big.Int)),
			IsValidated: out[3].(bool),
			ValidatedBy: out[4].(common.Address).Hex(),
		})
	}
}

// Verifications walks the per-farmer verification log.
func (r *Reputation) Verifications(ctx context.Context, addr common.Address) ([]VerificationRecord, error) {
	recs := []VerificationRecord{}
	for i := int64(0); ; i++ {
		var out []any
		err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "farmerVerifications", addr, big.NewInt(i))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return recs, nil
		}
		recs = append(recs, VerificationRecord{
			Step:       int(out[0].(*big.Int).Int64()),
			Status:     out[1].(bool),
			Timestamp:  unixTime(out[2].(*big.Int)),
			VerifiedBy: out[3].(common.Address).Hex(),
			Details:    out[4].(string),
		})
	}
}

// Certifications walks the per-farmer certification list.
func (r *Reputation) Certifications(ctx context.Context, addr common.Address) ([]string, error) {
	certs := []string{}
	for i := int64(0); ; i++ {
		var out []any
		err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "certifications", addr, big.NewInt(i))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return certs, nil
		}
		s, _ := out[0].(string)
		if s == "" {
			return certs, nil
		}
		certs = append(certs, s)
	}
}

// Owner returns the contract owner address.
func (r *Reputation) Owner(ctx context.Context) (string, error) {
	var out []any
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "owner"); err != nil {
		return "", fmt.Errorf("owner(): %w", err)
	}
	return out[0].(common.Address).Hex(), nil
}

// transact sends a state-changing call and waits for the receipt.
func (r *Reputation) transact(ctx context.Context, method string, args ...any) (string, error) {
	opts, err := r.client.transactOpts(ctx)
	if err != nil {
		return "", err
	}
	tx, err := r.contract.Transact(opts, method, args...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	receipt, err := bind.WaitMined(ctx, r.client.eth, tx)
	if err != nil {
		return "", fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return tx.Hash().Hex(), fmt.Errorf("%s: tx %s reverted", method, tx.Hash().Hex())
	}
	return tx.Hash().Hex(), nil
}

// RegisterFarmer registers a new farmer record. Owner only.
func (r *Reputation) RegisterFarmer(ctx context.Context, farmer common.Address, farmerID string) (string, error) {
	return r.transact(ctx, "registerFarmer", farmer, farmerID)
}

// RegisterDocument anchors a document hash for a farmer. Owner only.
func (r *Reputation) RegisterDocument(ctx context.Context, farmer common.Address, docHash, docType string) (string, error) {
	return r.transact(ctx, "registerDocument", farmer, docHash, docType)
}

// LogVerification records one pipeline step (1..4) for a farmer. Owner only.
func (r *Reputation) LogVerification(ctx context.Context, farmer common.Address, step int, status bool, details string) (string, error) {
	if step < 1 || step > 4 {
		return "", fmt.Errorf("verification step %d out of range 1..4", step)
	}
	return r.transact(ctx, "logVerification", farmer, big.NewInt(int64(step)), status, details)
}

// UpdateReputation sets a farmer's score (0..100). Owner only.
func (r *Reputation) UpdateReputation(ctx context.Context, farmer common.Address, score int) (string, error) {
	if score < 0 || score > 100 {
		return "", fmt.Errorf("reputation score %d out of range 0..100", score)
	}
	return r.transact(ctx, "updateReputation", farmer, big.NewInt(int64(score)))
}

// AddCertification appends a certification string for a farmer. Owner only.
func (r *Reputation) AddCertification(ctx context.Context, farmer common.Address, certification string) (string, error) {
	return r.transact(ctx, "addCertification", farmer, certification)
}

// LogPayment mirrors an executed x402 micropayment into the contract.
func (r *Reputation) LogPayment(ctx context.Context, farmer common.Address, amountWei *big.Int, action string) (string, error) {
	return r.transact(ctx, "logX402Payment", farmer, amountWei, action)
}
