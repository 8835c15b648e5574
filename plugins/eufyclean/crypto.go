package eufyclean

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/md5" // nolint:gosec
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

func md5Bytes(data []byte) []byte {
	sum := md5.Sum(data) // nolint:gosec
	return sum[:]
}

func md5Hex(data []byte) string {
	return hex.EncodeToString(md5Bytes(data))
}

func hmacSha256Hex(key, data []byte) string {
	h := hmac.New(sha256.New, key)
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// shuffledMD5 computes the MD5 hex digest of value and reorders its four
// 8-character segments as [2,1,4,3]. The backend signs postData this way.
func shuffledMD5(value string) string {
	h := md5Hex([]byte(value))
	return h[8:16] + h[0:8] + h[24:32] + h[16:24]
}

func aesCbcEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}

// unpaddedRSA applies textbook modular exponentiation: plaintext as a
// big-endian integer raised to exponent modulo modulus, re-encoded as
// big-endian bytes sized to the modulus bit length.
func unpaddedRSA(modulus, exponent *big.Int, plaintext []byte) []byte {
	keyLen := (modulus.BitLen() + 7) / 8
	m := new(big.Int).SetBytes(plaintext)
	c := new(big.Int).Exp(m, exponent, modulus)
	return c.FillBytes(make([]byte, keyLen))
}
