package service

import (
	"crypto/rand"
	"math/big"
)

const tokenLength = 32

const tokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generateToken produce un token de sesión opaco e impredecible.
func generateToken() (string, error) {
	buf := make([]byte, tokenLength)
	max := big.NewInt(int64(len(tokenCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tokenCharset[n.Int64()]
	}
	return string(buf), nil
}
