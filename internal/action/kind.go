package action

// Kind is the declared type of an action parameter. It drives both input
// validation and the conversion of the raw string into a call argument.
type Kind string

const (
	KindUint256 Kind = "uint256"
	KindEther   Kind = "ether"
	KindAddress Kind = "address"
	KindBytes32 Kind = "bytes32"
	KindBytes   Kind = "bytes"
	KindString  Kind = "string"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindUint256, KindEther, KindAddress, KindBytes32, KindBytes, KindString}

// ABIType returns the Solidity type the kind is encoded as.
// Ether amounts are sent as wei, so they encode as uint256.
func (k Kind) ABIType() string {
	if k == KindEther {
		return "uint256"
	}
	return string(k)
}

// Hint returns a short example shown next to an empty form field.
func (k Kind) Hint() string {
	switch k {
	case KindUint256:
		return "e.g. 42"
	case KindEther:
		return "ETH, e.g. 0.05"
	case KindAddress:
		return "0x… (40 hex chars)"
	case KindBytes32:
		return "0x… (64 hex chars)"
	case KindBytes:
		return "0x… (even-length hex)"
	case KindString:
		return "text"
	}
	return ""
}
