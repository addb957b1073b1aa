package action

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var weiPerEther = new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// Args converts the collected field values of d into call arguments, in
// declared order, skipping the synthetic value param.
func Args(d Descriptor, values map[string]string) ([]interface{}, error) {
	params := d.CallParams()
	out := make([]interface{}, 0, len(params))
	for _, p := range params {
		v, err := Convert(p.Kind, values[p.Name])
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Value returns the wei amount to attach to a call of d. Non-payable
// actions always return nil. A blank amount on a payable action is zero.
func Value(d Descriptor, values map[string]string) (*big.Int, error) {
	if !d.Payable {
		return nil, nil
	}
	raw := strings.TrimSpace(values[ValueParam])
	if raw == "" {
		return new(big.Int), nil
	}
	return ParseEther(raw)
}

// Convert turns one raw field string into the Go value the ABI encoder
// expects for kind.
func Convert(kind Kind, raw string) (interface{}, error) {
	switch kind {
	case KindUint256:
		n, ok := new(big.Int).SetString(raw, 10)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("invalid integer: %q", raw)
		}
		return n, nil
	case KindEther:
		return ParseEther(raw)
	case KindAddress:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid address: %q", raw)
		}
		return common.HexToAddress(raw), nil
	case KindBytes32:
		b, err := hexutil.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bytes32: %w", err)
		}
		if len(b) != 32 {
			return nil, fmt.Errorf("invalid bytes32: got %d bytes", len(b))
		}
		var out [32]byte
		copy(out[:], b)
		return out, nil
	case KindBytes:
		b, err := hexutil.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bytes: %w", err)
		}
		return b, nil
	case KindString:
		return raw, nil
	}
	return nil, fmt.Errorf("unsupported kind %q", kind)
}

// ParseEther converts a decimal ETH amount ("0.5", "1e-3") to wei.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if !reEther.MatchString(s) {
		return nil, fmt.Errorf("invalid ETH amount: %q", s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid ETH amount: %q", s)
	}
	r.Mul(r, weiPerEther)
	if !r.IsInt() {
		return nil, fmt.Errorf("ETH amount %q has more than 18 decimals", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatEther renders wei as a trimmed decimal ETH string.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	s := new(big.Rat).SetFrac(wei, weiPerEther.Num()).FloatString(18)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
