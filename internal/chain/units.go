package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// ParseMATIC converts a decimal MATIC amount string (e.g. "0.001") to wei.
func ParseMATIC(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(big.NewInt(params.Ether)))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q has sub-wei precision", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatMATIC renders a wei value as a decimal MATIC string with trailing
// zeros trimmed ("1000000000000000" -> "0.001").
func FormatMATIC(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0"
	}
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)

	ether := big.NewInt(params.Ether)
	whole := new(big.Int)
	frac := new(big.Int)
	whole.DivMod(abs, ether, frac)

	out := whole.String()
	if frac.Sign() > 0 {
		f := fmt.Sprintf("%018s", frac.String())
		f = strings.TrimRight(f, "0")
		out += "." + f
	}
	if neg {
		out = "-" + out
	}
	return out
}
