package util

import (
	"crypto/rand"
	"math/big"
)

const roomCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomCode 生成指定长度的大写 base36 邀请码
func RandomCode(n int) string {
	max := big.NewInt(int64(len(roomCodeAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			buf[i] = roomCodeAlphabet[i%len(roomCodeAlphabet)]
			continue
		}
		buf[i] = roomCodeAlphabet[idx.Int64()]
	}
	return string(buf)
}
