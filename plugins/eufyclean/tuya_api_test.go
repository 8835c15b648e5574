package eufyclean

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodePostData(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	if err := r.ParseForm(); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	raw := r.PostFormValue("postData")
	if raw == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode postData: %v", err)
	}
	return out
}

func newTestSession(t *testing.T, handler http.HandlerFunc) (*TuyaSession, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	session := NewTuyaSession(srv.Client())
	session.baseURL = srv.URL
	return session, srv
}

func TestAcquireSession(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("sign") == "" {
			t.Fatalf("request not signed")
		}
		if query.Get("clientId") != tuyaClientID {
			t.Fatalf("unexpected clientId: %s", query.Get("clientId"))
		}
		if !strings.HasPrefix(query.Get("deviceId"), tuyaDeviceIDPrefix) {
			t.Fatalf("unexpected deviceId: %s", query.Get("deviceId"))
		}

		w.Header().Set("Content-Type", "application/json")
		switch query.Get("a") {
		case "tuya.m.user.uid.token.create":
			body := decodePostData(t, r)
			if body["uid"] != "eh-u1" || body["countryCode"] != "49" {
				t.Fatalf("unexpected token request: %v", body)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"result":  map[string]any{"token": "t1"},
			})
		case "tuya.m.user.uid.password.login.reg":
			body := decodePostData(t, r)
			if body["token"] != "t1" {
				t.Fatalf("login did not carry the token: %v", body)
			}
			if body["passwd"] != "4e1fbbec7618e98ea91d4bc1d1479ddc" {
				t.Fatalf("unexpected credential: %v", body["passwd"])
			}
			if body["ifencrypt"] != float64(1) || body["createGroup"] != true {
				t.Fatalf("unexpected login flags: %v", body)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"result":  map[string]any{"sid": "s1"},
			})
		default:
			t.Fatalf("unexpected action: %s", query.Get("a"))
		}
	})

	session.SetAccount("u1", "49")
	if session.Username() != "eh-u1" {
		t.Fatalf("unexpected username: %s", session.Username())
	}

	if err := session.AcquireSession(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if session.SessionID() != "s1" {
		t.Fatalf("unexpected sid: %s", session.SessionID())
	}

	// Second acquisition is a no-op.
	if err := session.AcquireSession(context.Background()); err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
}

func TestAcquireSessionRSACredential(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("a") {
		case "tuya.m.user.uid.token.create":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"result": map[string]any{
					"token":     "t1",
					"publicKey": "1988980464988590376687",
					"exponent":  "65537",
				},
			})
		case "tuya.m.user.uid.password.login.reg":
			body := decodePostData(t, r)
			if body["passwd"] != "11728dfefb97b88e0f" {
				t.Fatalf("unexpected rsa credential: %v", body["passwd"])
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"result":  map[string]any{"sid": "s1"},
			})
		}
	})

	session.SetAccount("u1", "49")
	if err := session.AcquireSession(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
}

func TestAcquireSessionRequiresAccount(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("no request expected")
	})
	if err := session.AcquireSession(context.Background()); !errors.Is(err, ErrSession) {
		t.Fatalf("expected ErrSession, got %v", err)
	}
}

func TestRequestAttachesSessionID(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sid") != "s1" {
			t.Fatalf("expected sid on request")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"result": []any{}})
	})
	session.SetAccount("u1", "49")
	session.sid = "s1"

	if _, err := session.Request(context.Background(), "tuya.m.location.list", "2.1", nil, nil, true); err != nil {
		t.Fatalf("request: %v", err)
	}
}

func TestRequestMissingResult(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})
	_, err := session.Request(context.Background(), "tuya.m.location.list", "2.1", nil, nil, false)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestRequestUnsuccessfulFlag(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  false,
			"errorMsg": "sign invalid",
			"result":   map[string]any{},
		})
	})
	_, err := session.Request(context.Background(), "tuya.m.location.list", "2.1", nil, nil, false)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	if !strings.Contains(err.Error(), "sign invalid") {
		t.Fatalf("error should carry the server message: %v", err)
	}
}

func TestListAllDevices(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		switch query.Get("a") {
		case "tuya.m.location.list":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"result": []any{map[string]any{"groupId": "g1", "name": "Home"}},
			})
		case "tuya.m.my.group.device.list":
			if query.Get("gid") != "g1" {
				t.Fatalf("expected gid on group device list")
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"result": []any{map[string]any{"devId": "dev-1", "localKey": "key-1", "name": "Kitchen"}},
			})
		case "tuya.m.my.shared.device.list":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"result": []any{
					map[string]any{"devId": "dev-2", "localKey": "key-2", "name": "Shared"},
					map[string]any{"devId": "broken"},
				},
			})
		default:
			t.Fatalf("unexpected action: %s", query.Get("a"))
		}
	})
	session.SetAccount("u1", "49")
	session.sid = "s1"

	records, err := session.ListAllDevices(context.Background())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	if records[0].ID != "dev-1" || records[1].ID != "dev-2" {
		t.Fatalf("unexpected records: %+v", records)
	}
}
