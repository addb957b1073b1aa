package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolesOrder(t *testing.T) {
	assert.Equal(t, []Role{RoleVendor, RoleTrader, RoleWarehouse}, Roles())
}

func TestActionsPerRole(t *testing.T) {
	tests := []struct {
		role Role
		want []string
	}{
		{RoleVendor, []string{"createToken", "setTokenSellingPrice", "transferToken"}},
		{RoleTrader, []string{"purchaseToken", "setTokenSellingPrice", "redemptionRequest"}},
		{RoleWarehouse, []string{"activateToken", "burnToken", "attachCertificate"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			list, err := Actions(tt.role)
			require.NoError(t, err)
			var names []string
			for _, d := range list {
				names = append(names, d.Function)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestActionsUnknownRole(t *testing.T) {
	_, err := Actions("admin")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestActionsReturnsCopies(t *testing.T) {
	list, err := Actions(RoleVendor)
	require.NoError(t, err)
	list[0].Params[0].Name = "mutated"

	again, err := Actions(RoleVendor)
	require.NoError(t, err)
	assert.Equal(t, "name", again[0].Params[0].Name)
}

func TestLookup(t *testing.T) {
	d, err := Lookup("purchaseToken")
	require.NoError(t, err)
	assert.True(t, d.Payable)

	_, err = Lookup("selfDestruct")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestOnlyPurchaseIsPayable(t *testing.T) {
	for _, r := range Roles() {
		list, _ := Actions(r)
		for _, d := range list {
			assert.Equal(t, d.Function == "purchaseToken", d.Payable, d.Function)
		}
	}
}

func TestSignatureSkipsValueParam(t *testing.T) {
	d, _ := Lookup("purchaseToken")
	assert.Equal(t, "purchaseToken(uint256)", d.Signature())

	d, _ = Lookup("createToken")
	assert.Equal(t, "createToken(string,string,uint256,uint256)", d.Signature())
}

func TestCreateTokenValueIsNotSynthetic(t *testing.T) {
	// createToken has a "value" param but is not payable, so it stays an argument.
	d, _ := Lookup("createToken")
	assert.Len(t, d.CallParams(), 4)
}

func TestSelector(t *testing.T) {
	d := Descriptor{Function: "transfer", Params: []ParamSpec{{Name: "to", Kind: KindAddress}, {Name: "amount", Kind: KindUint256}}}
	assert.Equal(t, "0xa9059cbb", d.Selector())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Trader ")
	require.NoError(t, err)
	assert.Equal(t, RoleTrader, r)

	_, err = ParseRole("auditor")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRoleTitle(t *testing.T) {
	assert.Equal(t, "Warehouse Tokenizer", RoleWarehouse.Title())
}
