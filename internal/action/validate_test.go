package action

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	addr := "0x" + strings.Repeat("aB", 20)
	b32 := "0x" + strings.Repeat("ab", 32)

	tests := []struct {
		name string
		kind Kind
		raw  string
		want string
	}{
		{"uint zero", KindUint256, "0", ""},
		{"uint plain", KindUint256, "12", ""},
		{"uint letters", KindUint256, "12a", MsgUint256},
		{"uint negative", KindUint256, "-1", MsgUint256},
		{"uint decimal", KindUint256, "1.5", MsgUint256},
		{"uint empty", KindUint256, "", MsgUint256},
		{"uint padded", KindUint256, " 1", MsgUint256},

		{"ether integer", KindEther, "1", ""},
		{"ether decimal", KindEther, "0.05", ""},
		{"ether leading dot", KindEther, ".5", ""},
		{"ether exponent", KindEther, "1e-3", ""},
		{"ether zero", KindEther, "0", ""},
		{"ether negative", KindEther, "-0.1", MsgEther},
		{"ether word", KindEther, "abc", MsgEther},
		{"ether empty", KindEther, "", MsgEther},
		{"ether fraction", KindEther, "1/2", MsgEther},
		{"ether one wei", KindEther, "1e-18", ""},
		{"ether too precise", KindEther, "1e-19", MsgEther},
		{"ether nineteen decimals", KindEther, "0.0000000000000000001", MsgEther},

		{"address ok", KindAddress, addr, ""},
		{"address short", KindAddress, "0x1234", MsgAddress},
		{"address no prefix", KindAddress, strings.Repeat("ab", 20), MsgAddress},
		{"address bad hex", KindAddress, "0x" + strings.Repeat("zz", 20), MsgAddress},

		{"bytes32 ok", KindBytes32, b32, ""},
		{"bytes32 short", KindBytes32, "0xab", MsgBytes32},
		{"bytes32 long", KindBytes32, b32 + "ab", MsgBytes32},

		{"bytes ok", KindBytes, "0xdeadbeef", ""},
		{"bytes odd", KindBytes, "0xabc", MsgBytes},
		{"bytes bare prefix", KindBytes, "0x", MsgBytes},

		{"string ok", KindString, "Widget", ""},
		{"string spaces", KindString, "   ", MsgString},
		{"string empty", KindString, "", MsgString},

		{"unknown kind", Kind("int8"), "1", MsgUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.kind, tt.raw))
		})
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, MsgAddress, Validate(KindAddress, "0x1234"))
		assert.Empty(t, Validate(KindUint256, "0"))
	}
}

func TestKindABIType(t *testing.T) {
	assert.Equal(t, "uint256", KindEther.ABIType())
	assert.Equal(t, "bytes32", KindBytes32.ABIType())
	assert.Equal(t, "string", KindString.ABIType())
}

func TestEveryKindHasHint(t *testing.T) {
	for _, k := range Kinds {
		assert.NotEmpty(t, k.Hint(), "kind %s", k)
	}
}
