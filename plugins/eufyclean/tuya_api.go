package eufyclean

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	tuyaBaseURL   = "https://a1.tuyaeu.com"
	tuyaClientID  = "yx5v9uc3ef9wg3v9atje"
	tuyaUserAgent = "TY-UA=APP/Android/2.4.0/SDK/null"

	// Account identifiers on the Tuya side carry this vendor prefix.
	tuyaUsernamePrefix = "eh-"

	// 12 fixed chars resembling a real Android device fingerprint plus 32
	// random alphanumerics. Generated once per session instance; it is an
	// identity, not a nonce.
	tuyaDeviceIDPrefix = "8534c8ec0ed0"
)

// TuyaSession owns the session lifecycle against the signed Tuya-compatible
// API: token request, encrypted login, session id, and signed request
// execution.
type TuyaSession struct {
	baseURL    string
	httpClient *http.Client
	deviceID   string

	username    string
	countryCode string

	// acquireMu serializes session acquisition so concurrent requests do
	// not race to log in twice.
	acquireMu sync.Mutex
	mu        sync.Mutex
	sid       string
}

func NewTuyaSession(httpClient *http.Client) *TuyaSession {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TuyaSession{
		baseURL:    tuyaBaseURL,
		httpClient: httpClient,
		deviceID:   tuyaDeviceIDPrefix + randomAlphaNumeric(32),
	}
}

// SetAccount binds the session to a vendor account. accountID is the raw
// vendor id; the Tuya username is the prefixed form.
func (s *TuyaSession) SetAccount(accountID, countryCode string) {
	s.username = tuyaUsernamePrefix + accountID
	s.countryCode = countryCode
}

// Username returns the prefixed Tuya account name.
func (s *TuyaSession) Username() string { return s.username }

// SessionID returns the held session id, empty before acquisition.
func (s *TuyaSession) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sid
}

// sessionToken is the transient product of the token-request step, consumed
// once by login.
type sessionToken struct {
	token    string
	modulus  *big.Int
	exponent *big.Int
}

// AcquireSession performs token request, password derivation, and encrypted
// login, storing the returned session id.
func (s *TuyaSession) AcquireSession(ctx context.Context) error {
	s.acquireMu.Lock()
	defer s.acquireMu.Unlock()
	if s.SessionID() != "" {
		return nil
	}
	return s.acquireSessionLocked(ctx)
}

func (s *TuyaSession) acquireSessionLocked(ctx context.Context) error {
	if s.username == "" || s.countryCode == "" {
		return fmt.Errorf("%w: username and country code must be set", ErrSession)
	}

	tokenResult, err := s.do(ctx, "tuya.m.user.uid.token.create", "1.0", map[string]any{
		"uid":         s.username,
		"countryCode": s.countryCode,
	}, nil)
	if err != nil {
		return err
	}
	token, err := parseSessionToken(tokenResult)
	if err != nil {
		return err
	}

	cipherBytes, err := derivePassword(s.username)
	if err != nil {
		return fmt.Errorf("%w: derive password: %v", ErrSession, err)
	}
	passwd := finalizePassword(cipherBytes, token.modulus, token.exponent)

	loginResult, err := s.do(ctx, "tuya.m.user.uid.password.login.reg", "1.0", map[string]any{
		"uid":         s.username,
		"createGroup": true,
		"ifencrypt":   1,
		"passwd":      passwd,
		"countryCode": s.countryCode,
		"options":     `{"group": 1}`,
		"token":       token.token,
	}, nil)
	if err != nil {
		return err
	}
	login, ok := loginResult.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: unexpected login result shape", ErrSession)
	}
	sid := stringFrom(login["sid"])
	if sid == "" {
		return fmt.Errorf("%w: login response missing sid", ErrSession)
	}

	s.mu.Lock()
	s.sid = sid
	s.mu.Unlock()
	slog.Info("acquired tuya session", "username", s.username)
	return nil
}

func parseSessionToken(result any) (sessionToken, error) {
	body, ok := result.(map[string]any)
	if !ok {
		return sessionToken{}, fmt.Errorf("%w: unexpected token result shape", ErrSession)
	}
	token := stringFrom(body["token"])
	if token == "" {
		return sessionToken{}, fmt.Errorf("%w: token response missing token", ErrSession)
	}
	out := sessionToken{token: token}
	modStr := stringFrom(body["publicKey"])
	expStr := stringFrom(body["exponent"])
	if modStr != "" && expStr != "" {
		mod, okM := new(big.Int).SetString(modStr, 10)
		exp, okE := new(big.Int).SetString(expStr, 10)
		if okM && okE {
			out.modulus = mod
			out.exponent = exp
		}
	}
	return out, nil
}

// Request is the single consolidated entry point for signed API calls.
// When requiresSession is set and no session id is held, the session is
// acquired first.
func (s *TuyaSession) Request(ctx context.Context, action, version string, data map[string]any, extra map[string]string, requiresSession bool) (any, error) {
	if requiresSession && s.SessionID() == "" {
		if err := s.AcquireSession(ctx); err != nil {
			return nil, err
		}
	}
	return s.do(ctx, action, version, data, extra)
}

func (s *TuyaSession) do(ctx context.Context, action, version string, data map[string]any, extra map[string]string) (any, error) {
	params := s.defaultQueryParams()
	params["time"] = strconv.FormatInt(time.Now().Unix(), 10)
	params["requestId"] = uuid.NewString()
	params["a"] = action
	params["v"] = version
	for k, v := range extra {
		params[k] = v
	}
	if sid := s.SessionID(); sid != "" {
		params["sid"] = sid
	}

	encodedPostData := ""
	if len(data) > 0 {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		encodedPostData = string(payload)
	}
	params["sign"] = signRequest(params, encodedPostData)

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	var body io.Reader
	if encodedPostData != "" {
		form := url.Values{}
		form.Set("postData", encodedPostData)
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api.json?"+query.Encode(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", tuyaUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s status %d", ErrProtocol, action, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProtocol, action, err)
	}
	if success, present := out["success"]; present && !boolFrom(success) {
		return nil, fmt.Errorf("%w: %s flagged unsuccessful: %v", ErrProtocol, action, out["errorMsg"])
	}
	result, ok := out["result"]
	if !ok {
		return nil, fmt.Errorf("%w: %s response missing result", ErrProtocol, action)
	}
	return result, nil
}

func (s *TuyaSession) defaultQueryParams() map[string]string {
	return map[string]string{
		"appVersion": "2.4.0",
		"deviceId":   s.deviceID,
		"platform":   "sdk_gphone64_arm64",
		"clientId":   tuyaClientID,
		"lang":       "en",
		"osSystem":   "12",
		"os":         "Android",
		"timeZoneId": "Europe/Berlin",
		"ttid":       "android",
		"et":         "0.0.1",
		"sdkVersion": "3.0.8cAnker",
	}
}

func randomAlphaNumeric(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = letters[rand.Intn(len(letters))]
	}
	return string(buf)
}
