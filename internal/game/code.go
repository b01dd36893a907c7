package game

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const maxCodeAttempts = 32

// GenerateCode returns a random 4-digit room code in [1000, 9999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}
