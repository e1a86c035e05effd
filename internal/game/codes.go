package game

import (
	"crypto/rand"
	"math/big"
)

// Room code alphabet, with the ambiguous 0/O/1/I/L left out.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 5

// GenerateCode mints a random room code. Rooms can also be created under any
// caller-chosen id; generated codes are just a convenience for hosts.
func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
