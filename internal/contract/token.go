package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenInfo is the on-chain record returned by tokens(id).
type TokenInfo struct {
	ID           *big.Int
	Name         string
	Description  string
	InitialValue *big.Int
	State        uint8
	Owner        common.Address
}

// StateName returns the label of the token's lifecycle state.
func (t *TokenInfo) StateName() string { return StateName(t.State) }

// Token reads the record stored for id.
func (h *Handle) Token(ctx context.Context, id *big.Int) (*TokenInfo, error) {
	out, err := h.Call(ctx, "tokens", id)
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("tokens: expected 5 values, got %d", len(out))
	}
	info := &TokenInfo{ID: new(big.Int).Set(id)}
	var ok bool
	if info.Name, ok = out[0].(string); !ok {
		return nil, fmt.Errorf("tokens: unexpected name type %T", out[0])
	}
	if info.Description, ok = out[1].(string); !ok {
		return nil, fmt.Errorf("tokens: unexpected description type %T", out[1])
	}
	if info.InitialValue, ok = out[2].(*big.Int); !ok {
		return nil, fmt.Errorf("tokens: unexpected value type %T", out[2])
	}
	if info.State, ok = out[3].(uint8); !ok {
		return nil, fmt.Errorf("tokens: unexpected state type %T", out[3])
	}
	if info.Owner, ok = out[4].(common.Address); !ok {
		return nil, fmt.Errorf("tokens: unexpected owner type %T", out[4])
	}
	return info, nil
}

// SellingPrice reads tokenSellingPrice(id) in wei.
func (h *Handle) SellingPrice(ctx context.Context, id *big.Int) (*big.Int, error) {
	out, err := h.Call(ctx, "tokenSellingPrice", id)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("tokenSellingPrice: expected 1 value, got %d", len(out))
	}
	price, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("tokenSellingPrice: unexpected type %T", out[0])
	}
	return price, nil
}
