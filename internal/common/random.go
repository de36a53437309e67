package common

import (
	"crypto/rand"
	"math/big"
)

// base36Alphabet is the character set for mint sequence tokens. Uppercase only,
// so generated identifiers stay shouty like the rest of a certificate id.
const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MakeRandBase36String generates a random uppercase base36 string of the given
// length using crypto/rand. It returns an error only if the random number
// generator fails.
func MakeRandBase36String(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = base36Alphabet[n.Int64()]
	}
	return string(b), nil
}
