package taxid

import (
	"strings"
)

// Kind identifies a Brazilian tax identifier class
type Kind int

const (
	// Unknown is returned for digit strings that match no class
	Unknown Kind = iota
	// CNPJ is the 14-digit organization identifier
	CNPJ
	// CPF is the 11-digit individual identifier
	CPF
)

const (
	cnpjLength = 14
	cpfLength  = 11
)

var (
	cpfFirstWeights   = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfSecondWeights  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

func (k Kind) String() string {
	switch k {
	case CNPJ:
		return "CNPJ"
	case CPF:
		return "CPF"
	default:
		return "unknown"
	}
}

// Clean strips every non-digit character from raw
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

// KindOf classifies a cleaned digit string by its length alone
func KindOf(digits string) Kind {
	switch len(digits) {
	case cnpjLength:
		return CNPJ
	case cpfLength:
		return CPF
	default:
		return Unknown
	}
}

// Validate checks the check digits of a cleaned digit string and returns
// its masked form. ok is false when the length matches no class or the
// check digits do not hold.
func Validate(digits string) (masked string, kind Kind, ok bool) {
	kind = KindOf(digits)
	switch kind {
	case CNPJ:
		masked, ok = ValidateCNPJ(digits)
	case CPF:
		masked, ok = ValidateCPF(digits)
	}
	if !ok {
		return "", Unknown, false
	}
	return masked, kind, true
}

// ValidateCNPJ validates a 14-digit CNPJ and returns it as 00.000.000/0000-00
func ValidateCNPJ(digits string) (string, bool) {
	if !checkDigits(digits, cnpjLength, cnpjFirstWeights, cnpjSecondWeights) {
		return "", false
	}
	return Mask(digits, CNPJ), true
}

// ValidateCPF validates an 11-digit CPF and returns it as 000.000.000-00
func ValidateCPF(digits string) (string, bool) {
	if !checkDigits(digits, cpfLength, cpfFirstWeights, cpfSecondWeights) {
		return "", false
	}
	return Mask(digits, CPF), true
}

// Mask formats digits with the punctuation of kind. It does not validate;
// input of the wrong length is returned unchanged.
func Mask(digits string, kind Kind) string {
	switch {
	case kind == CNPJ && len(digits) == cnpjLength:
		return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
	case kind == CPF && len(digits) == cpfLength:
		return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
	default:
		return digits
	}
}

func checkDigits(digits string, length int, first, second []int) bool {
	if len(digits) != length || !allDigits(digits) || repeated(digits) {
		return false
	}
	n := len(first)
	if checkDigit(digits[:n], first) != digits[n] {
		return false
	}
	return checkDigit(digits[:n+1], second) == digits[n+1]
}

// checkDigit computes the mod-11 verifier for body using weights
func checkDigit(body string, weights []int) byte {
	sum := 0
	for i, w := range weights {
		sum += int(body[i]-'0') * w
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + 11 - r)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// repeated reports whether s is a single digit repeated, which passes the
// checksum but is never issued
func repeated(s string) bool {
	return strings.Count(s, s[:1]) == len(s)
}
