package contract

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/assetcli/internal/action"
)

func TestABIMatchesActionTable(t *testing.T) {
	parsed, err := ParsedABI()
	require.NoError(t, err)

	for _, role := range action.Roles() {
		descs, err := action.Actions(role)
		require.NoError(t, err)
		for _, d := range descs {
			m, ok := parsed.Methods[d.Function]
			require.True(t, ok, "method %s missing from ABI", d.Function)

			params := d.CallParams()
			require.Len(t, m.Inputs, len(params), d.Function)
			for i, p := range params {
				assert.Equal(t, m.Inputs[i].Type.String(), p.Kind.ABIType(), "%s.%s", d.Function, p.Name)
			}
			assert.Equal(t, m.Payable, d.Payable, d.Function)
			assert.Equal(t, m.Sig, d.Signature())
			assert.Equal(t, hexutil.Encode(m.ID), d.Selector())
		}
	}
}

func TestDefaultEventsExist(t *testing.T) {
	parsed, err := ParsedABI()
	require.NoError(t, err)
	for _, name := range DefaultEvents {
		_, ok := parsed.Events[name]
		assert.True(t, ok, name)
	}
}
