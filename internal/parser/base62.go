package parser

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var base62Digits = func() map[byte]int64 {
	m := make(map[byte]int64, len(base62Alphabet))
	for i := 0; i < len(base62Alphabet); i++ {
		m[base62Alphabet[i]] = int64(i)
	}
	return m
}()

// base62ToUUID decodes a base62 string (alphabet 0-9A-Za-z) into its
// canonical UUID form, e.g. "1w24hGOdCSFLtsgBQr2jKh" ->
// "3f9c958c-ee57-4121-a79e-408946b27077". The orchestrator encodes the
// 128-bit transaction UUID this way in the report's correlation key field.
func base62ToUUID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty base62 value")
	}
	n := new(big.Int)
	base := big.NewInt(62)
	for i := 0; i < len(s); i++ {
		d, ok := base62Digits[s[i]]
		if !ok {
			return "", fmt.Errorf("invalid base62 character %q", s[i])
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(d))
	}

	buf := n.Bytes()
	if len(buf) > 16 {
		return "", fmt.Errorf("base62 value %q exceeds 128 bits", s)
	}
	var raw [16]byte
	copy(raw[16-len(buf):], buf)

	id, err := uuid.FromBytes(raw[:])
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
