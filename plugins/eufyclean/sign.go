package eufyclean

import (
	"sort"
	"strings"
)

// Protocol constants extracted from the Eufy Home Android app. These are
// fixed by the backend, not configuration.
const (
	tuyaAppSecret = "s8x78u7xwymasd9kqa7a73pjhxqsedaj"
	tuyaBmpSecret = "cepev5pfnhua4dkqkdpmnrdxx378mpjr"
	tuyaHmacKey   = tuyaBmpSecret + "_" + tuyaAppSecret
)

// Only these query parameters participate in the request signature. Anything
// else is sent but excluded from signing.
var signatureParams = map[string]bool{
	"a": true, "v": true, "lat": true, "lon": true, "lang": true,
	"deviceId": true, "imei": true, "imsi": true, "appVersion": true,
	"ttid": true, "isH5": true, "h5Token": true, "os": true,
	"clientId": true, "postData": true, "time": true, "requestId": true,
	"n4h5": true, "sid": true, "sp": true,
}

// signRequest computes the HMAC-SHA256 request signature over the
// allow-listed query parameters. postData contributes its shuffled MD5
// digest rather than the raw body. The output must be bit-exact; the server
// rejects anything else.
func signRequest(queryParams map[string]string, encodedPostData string) string {
	params := make(map[string]string, len(queryParams)+1)
	for k, v := range queryParams {
		params[k] = v
	}
	if encodedPostData != "" {
		params["postData"] = encodedPostData
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "" && signatureParams[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		v := params[k]
		if k == "postData" {
			v = shuffledMD5(v)
		}
		pairs = append(pairs, k+"="+v)
	}

	message := strings.Join(pairs, "||")
	return hmacSha256Hex([]byte(tuyaHmacKey), []byte(message))
}
