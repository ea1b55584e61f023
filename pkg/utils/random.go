package utils

import (
	"crypto/rand"
	"math/big"
)

const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// GenerateSecureRandomString returns a string of n characters drawn uniformly
// from an unambiguous alphanumeric alphabet using crypto/rand.
func GenerateSecureRandomString(n int) (string, error) {
	max := big.NewInt(int64(len(accessCodeAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = accessCodeAlphabet[idx.Int64()]
	}
	return string(out), nil
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
