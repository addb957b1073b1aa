package action

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ValueParam is the synthetic parameter that carries the ETH amount of a
// payable action. It is never passed as a call argument.
const ValueParam = "value"

// ErrUnknownRole is returned when a role key is not in the table.
var ErrUnknownRole = errors.New("unknown role")

// ErrUnknownAction is returned when a function name is not in the table.
var ErrUnknownAction = errors.New("unknown action")

// Role groups the actions one kind of participant performs.
type Role string

const (
	RoleVendor    Role = "vendor"
	RoleTrader    Role = "trader"
	RoleWarehouse Role = "warehouse"
)

// Title is the label shown on the role tab.
func (r Role) Title() string {
	switch r {
	case RoleVendor:
		return "Vendor"
	case RoleTrader:
		return "Trader"
	case RoleWarehouse:
		return "Warehouse Tokenizer"
	}
	return string(r)
}

// ParamSpec is one declared input of an action.
type ParamSpec struct {
	Name string
	Kind Kind
}

// Descriptor describes one contract function a user can invoke.
type Descriptor struct {
	Function    string
	Params      []ParamSpec
	Payable     bool
	Description string
}

// IsValueParam reports whether p is the synthetic ETH amount of a payable call.
func (d Descriptor) IsValueParam(p ParamSpec) bool {
	return d.Payable && p.Name == ValueParam
}

// CallParams returns the params that become call arguments, in order.
func (d Descriptor) CallParams() []ParamSpec {
	out := make([]ParamSpec, 0, len(d.Params))
	for _, p := range d.Params {
		if d.IsValueParam(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Param returns the declared param called name.
func (d Descriptor) Param(name string) (ParamSpec, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// Signature returns the canonical signature, e.g. "activateToken(uint256)".
func (d Descriptor) Signature() string {
	params := d.CallParams()
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Kind.ABIType()
	}
	return d.Function + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the 4-byte function selector as 0x-prefixed hex.
func (d Descriptor) Selector() string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(d.Signature()))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

func (d Descriptor) clone() Descriptor {
	d.Params = slices.Clone(d.Params)
	return d
}

var (
	createToken = Descriptor{
		Function: "createToken",
		Params: []ParamSpec{
			{Name: "name", Kind: KindString},
			{Name: "description", Kind: KindString},
			{Name: "value", Kind: KindUint256},
			{Name: "validity", Kind: KindUint256},
		},
		Description: "Mint a new asset token (initial value in wei, validity in days).",
	}
	setTokenSellingPrice = Descriptor{
		Function: "setTokenSellingPrice",
		Params: []ParamSpec{
			{Name: "tokenId", Kind: KindUint256},
			{Name: "newPrice", Kind: KindUint256},
		},
		Description: "Set the price (in wei) a buyer must pay for a token you own.",
	}
	transferToken = Descriptor{
		Function: "transferToken",
		Params: []ParamSpec{
			{Name: "to", Kind: KindAddress},
			{Name: "tokenId", Kind: KindUint256},
		},
		Description: "Hand a token over to another address.",
	}
	purchaseToken = Descriptor{
		Function: "purchaseToken",
		Params: []ParamSpec{
			{Name: "tokenId", Kind: KindUint256},
			{Name: ValueParam, Kind: KindEther},
		},
		Payable:     true,
		Description: "Buy a listed token, paying the selling price in ETH.",
	}
	redemptionRequest = Descriptor{
		Function: "redemptionRequest",
		Params: []ParamSpec{
			{Name: "tokenId", Kind: KindUint256},
		},
		Description: "Ask the warehouse to release the physical asset behind a token.",
	}
	activateToken = Descriptor{
		Function: "activateToken",
		Params: []ParamSpec{
			{Name: "tokenId", Kind: KindUint256},
		},
		Description: "Confirm the asset is in storage and activate its token.",
	}
	burnToken = Descriptor{
		Function: "burnToken",
		Params: []ParamSpec{
			{Name: "tokenId", Kind: KindUint256},
			{Name: "redemptionCode", Kind: KindBytes32},
		},
		Description: "Burn a redeemed token once the asset has left the warehouse.",
	}
	attachCertificate = Descriptor{
		Function: "attachCertificate",
		Params: []ParamSpec{
			{Name: "tokenId", Kind: KindUint256},
			{Name: "certificate", Kind: KindBytes},
		},
		Description: "Attach a storage certificate blob to a token.",
	}
)

var roles = []Role{RoleVendor, RoleTrader, RoleWarehouse}

var table = map[Role][]Descriptor{
	RoleVendor:    {createToken, setTokenSellingPrice, transferToken},
	RoleTrader:    {purchaseToken, setTokenSellingPrice, redemptionRequest},
	RoleWarehouse: {activateToken, burnToken, attachCertificate},
}

// Roles returns the role keys in tab order.
func Roles() []Role {
	return slices.Clone(roles)
}

// Actions returns the ordered actions for role.
func Actions(role Role) ([]Descriptor, error) {
	list, ok := table[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	out := make([]Descriptor, len(list))
	for i, d := range list {
		out[i] = d.clone()
	}
	return out, nil
}

// Lookup finds an action by function name across all roles.
func Lookup(function string) (Descriptor, error) {
	for _, r := range roles {
		for _, d := range table[r] {
			if d.Function == function {
				return d.clone(), nil
			}
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownAction, function)
}

// ParseRole converts a user-supplied role key.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := table[r]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRole, s)
	}
	return r, nil
}
