package service

import (
	"crypto/rand"
	"math/big"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	roomCodeLength  = 10
	meetingIDLength = 9
)

// randomCode генерирует равномерный код над [A-Z0-9]. Уникальность кода
// вероятностная: коллизии с существующими митингами при генерации
// не проверяются.
func randomCode(n int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
