package eufyclean

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	eufyBaseURL     = "https://portal-ww.eufylife.com/app"
	eufyBasePathfix = "/app"
)

type clientCredential struct {
	name   string
	id     string
	secret string
}

// Ordered fallback list. The app-facing credentials change between vendor
// app releases; the first set that yields a token wins.
var eufyClients = []clientCredential{
	{name: "eufy_clean", id: "EufyClean-app", secret: "nKbJmGvjmTBJ9bQHpXfX"},
	{name: "eufy_home", id: "eufyhome-app", secret: "GQCpr9dSp3uQpsOMgJ4xQ"},
}

// EufyApiClient talks to the vendor account API: login and the vendor-side
// device directory.
type EufyApiClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
	accountID  string
	country    string
}

func NewEufyApiClient(httpClient *http.Client) *EufyApiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &EufyApiClient{baseURL: eufyBaseURL, httpClient: httpClient}
}

// AccountID returns the vendor account identifier extracted at login.
func (c *EufyApiClient) AccountID() string { return c.accountID }

// CountryCode returns the phone country code extracted at login.
func (c *EufyApiClient) CountryCode() string { return c.country }

// Login posts the account credentials with each configured client-credential
// set in order, stopping at the first set that yields a token. Every failed
// attempt is retained for the aggregate error.
func (c *EufyApiClient) Login(ctx context.Context, email, password string) error {
	var attempts []LoginAttempt
	for _, client := range eufyClients {
		body := map[string]string{
			"client_id":     client.id,
			"client_secret": client.secret,
			"email":         email,
			"password":      password,
		}
		resp, err := c.postJSON(ctx, c.baseURL+"/user/email/login", body)
		if err != nil {
			slog.Debug("eufy login attempt failed", "client", client.name, "err", err)
			attempts = append(attempts, LoginAttempt{Client: client.name, Reason: err.Error()})
			continue
		}
		if reason, flagged := loginErrorReason(resp); flagged {
			slog.Debug("eufy login rejected", "client", client.name, "reason", reason)
			attempts = append(attempts, LoginAttempt{Client: client.name, Reason: reason})
			continue
		}
		token := extractToken(resp)
		if token == "" {
			attempts = append(attempts, LoginAttempt{Client: client.name, Reason: "no access token in response"})
			continue
		}
		c.token = token
		c.applyUserInfo(resp)
		slog.Info("authenticated with eufy api", "client", client.name)
		return nil
	}
	return &AuthError{Attempts: attempts}
}

func loginErrorReason(resp map[string]any) (string, bool) {
	errVal, ok := resp["error"]
	if !ok || errVal == nil || errVal == false || errVal == "" {
		return "", false
	}
	if msg, ok := resp["message"].(map[string]any); ok {
		if inner := stringFrom(msg["message"]); inner != "" {
			return inner, true
		}
	}
	if desc := stringFrom(resp["error_description"]); desc != "" {
		return desc, true
	}
	return stringFrom(errVal), true
}

func extractToken(resp map[string]any) string {
	if token := stringFrom(resp["access_token"]); token != "" {
		return token
	}
	if data, ok := resp["data"].(map[string]any); ok {
		if token := stringFrom(data["access_token"]); token != "" {
			return token
		}
	}
	if info, ok := resp["user_info"].(map[string]any); ok {
		return stringFrom(info["token"])
	}
	return ""
}

func (c *EufyApiClient) applyUserInfo(resp map[string]any) {
	info, ok := resp["user_info"].(map[string]any)
	if !ok {
		return
	}
	c.accountID = stringFrom(info["id"])
	c.country = stringFrom(info["phone_code"])
	if host := stringFrom(info["request_host"]); host != "" {
		c.baseURL = strings.TrimSuffix(strings.TrimRight(host, "/"), eufyBasePathfix) + eufyBasePathfix
	}
}

// ListDevices fetches the vendor-side device directory. The response shape
// has drifted across API versions; tolerate a plain array or the known
// object wrappers, and entries nested under a device key.
func (c *EufyApiClient) ListDevices(ctx context.Context) ([]DeviceRecord, error) {
	if c.token == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrSession)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user/device/all", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("token", c.token)
	req.Header.Set("category", "Home")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: device list status %d", ErrProtocol, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	var items []any
	switch data := body["data"].(type) {
	case []any:
		items = data
	case map[string]any:
		for _, key := range []string{"items", "devices", "device_list"} {
			if list, ok := data[key].([]any); ok && len(list) > 0 {
				items = list
				break
			}
		}
	}

	records := make([]DeviceRecord, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if wrapped, ok := entry["device"].(map[string]any); ok {
			entry = wrapped
		}
		record, ok := normalizeDeviceRecord(entry)
		if !ok {
			slog.Warn("dropping incomplete device record", "entry", entry)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (c *EufyApiClient) postJSON(ctx context.Context, url string, body any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.New("invalid json response")
	}
	return out, nil
}
