package eufyclean

import (
	"encoding/hex"
	"math/big"
	"strings"
)

// Password cipher key and IV from the Eufy Home Android app.
var (
	tuyaPasswordKey = []byte{36, 78, 109, 138, 86, 172, 135, 145, 36, 67, 45, 139, 108, 188, 162, 196}
	tuyaPasswordIV  = []byte{119, 36, 86, 242, 167, 102, 76, 243, 57, 44, 53, 151, 233, 62, 87, 71}
)

// derivePassword left-pads uid with '0' to the next multiple of 16 bytes and
// encrypts it with AES-128-CBC under the fixed key/IV. The raw ciphertext is
// the derived password.
func derivePassword(uid string) ([]byte, error) {
	size := 16 * ((len(uid) + 15) / 16)
	padded := strings.Repeat("0", size-len(uid)) + uid
	return aesCbcEncrypt(tuyaPasswordKey, tuyaPasswordIV, []byte(padded))
}

// finalizePassword produces the credential string actually transmitted.
// When the token response supplies an RSA modulus and exponent the cipher
// bytes are encrypted with unpadded RSA and hex encoded; otherwise the
// credential is the MD5 of the uppercase hex encoding. Both forms have been
// observed in the wild depending on server version.
func finalizePassword(cipherBytes []byte, modulus, exponent *big.Int) string {
	if modulus != nil && exponent != nil && modulus.Sign() > 0 {
		return hex.EncodeToString(unpaddedRSA(modulus, exponent, cipherBytes))
	}
	upper := strings.ToUpper(hex.EncodeToString(cipherBytes))
	return md5Hex([]byte(upper))
}
