package action

import (
	"regexp"
	"strings"
)

// Validation messages.
const (
	MsgUint256     = "Must be a positive integer."
	MsgEther       = "Must be a positive number."
	MsgAddress     = "Invalid Ethereum address."
	MsgBytes32     = "Must be 0x followed by 64 hex characters."
	MsgBytes       = "Must be 0x-prefixed, even-length hex."
	MsgString      = "Cannot be empty."
	MsgUnsupported = "Unsupported parameter type."
)

var (
	reUint256 = regexp.MustCompile(`^\d+$`)
	reEther   = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	reAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	reBytes32 = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	reBytes   = regexp.MustCompile(`^0x([0-9a-fA-F]{2})+$`)
)

// Validate checks raw against the rule for kind and returns the error
// message, or "" when the value is acceptable.
func Validate(kind Kind, raw string) string {
	switch kind {
	case KindUint256:
		if !reUint256.MatchString(raw) {
			return MsgUint256
		}
	case KindEther:
		if _, err := ParseEther(raw); err != nil {
			return MsgEther
		}
	case KindAddress:
		if !reAddress.MatchString(raw) {
			return MsgAddress
		}
	case KindBytes32:
		if !reBytes32.MatchString(raw) {
			return MsgBytes32
		}
	case KindBytes:
		if !reBytes.MatchString(raw) {
			return MsgBytes
		}
	case KindString:
		if strings.TrimSpace(raw) == "" {
			return MsgString
		}
	default:
		return MsgUnsupported
	}
	return ""
}
