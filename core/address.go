package core

import "strings"

// Address is a canonical account identifier: lower-case hex, 0x-prefixed,
// 20 raw bytes. Values of this type are always canonical; construct them
// through ParseAddress.
type Address string

const addressHexLen = 40

// ParseAddress normalizes an externally supplied account identifier. The
// optional 0x prefix is stripped, exactly 40 hex characters are required,
// and the canonical lower-case 0x-prefixed form is returned.
func ParseAddress(s string) (Address, error) {
	a := strings.TrimSpace(s)
	a = strings.TrimPrefix(a, "0x")
	if len(a) != addressHexLen {
		return "", ErrInvalidAddress
	}
	for _, c := range a {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return "", ErrInvalidAddress
		}
	}
	return Address("0x" + strings.ToLower(a)), nil
}

func (a Address) String() string {
	return string(a)
}
