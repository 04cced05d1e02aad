package accounts_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"Storefront/internal/accounts"
)

const testSecret = "test-secret"

func newAccountsTS(t *testing.T) *httptest.Server {
	t.Helper()

	s := &accounts.Server{
		Log:    zap.NewNop(),
		Store:  accounts.NewMemStore(),
		Tokens: accounts.NewTokens(testSecret),
	}

	h := accounts.NewHandler(s, accounts.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "accounts",
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func TestRegisterLoginWhoAmI(t *testing.T) {
	ts := newAccountsTS(t)

	resp, raw := postJSON(t, ts.URL+"/accounts/register", map[string]any{
		"email":    "Clerk@Example.com",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", resp.StatusCode, raw)
	}

	// Same email again, case-folded: conflict.
	resp, _ = postJSON(t, ts.URL+"/accounts/register", map[string]any{
		"email":    "clerk@example.com",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status=%d want 409", resp.StatusCode)
	}

	resp, raw = postJSON(t, ts.URL+"/accounts/login", map[string]any{
		"email":    "clerk@example.com",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d body=%s", resp.StatusCode, raw)
	}

	var lr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &lr); err != nil {
		t.Fatalf("decode login: %v body=%s", err, raw)
	}
	if lr.AccessToken == "" {
		t.Fatalf("empty access_token")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/accounts/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+lr.AccessToken)
	whoResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	defer whoResp.Body.Close()

	if whoResp.StatusCode != http.StatusOK {
		t.Fatalf("whoami status=%d", whoResp.StatusCode)
	}

	var who map[string]any
	if err := json.NewDecoder(whoResp.Body).Decode(&who); err != nil {
		t.Fatalf("decode whoami: %v", err)
	}
	if who["email"] != "clerk@example.com" || who["role"] != accounts.RoleStaff {
		t.Fatalf("whoami=%v", who)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newAccountsTS(t)

	postJSON(t, ts.URL+"/accounts/register", map[string]any{
		"email":    "clerk@example.com",
		"password": "password123",
	})

	resp, _ := postJSON(t, ts.URL+"/accounts/login", map[string]any{
		"email":    "clerk@example.com",
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", resp.StatusCode)
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newAccountsTS(t)

	resp, _ := postJSON(t, ts.URL+"/accounts/register", map[string]any{
		"email":    "clerk@example.com",
		"password": "short",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short password status=%d want 400", resp.StatusCode)
	}

	resp, _ = postJSON(t, ts.URL+"/accounts/register", map[string]any{
		"email":    "",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty email status=%d want 400", resp.StatusCode)
	}
}

func TestTokensRejectTampering(t *testing.T) {
	tokens := accounts.NewTokens(testSecret)

	tok, err := tokens.Issue(accounts.Account{ID: "a_1", Email: "clerk@example.com", Role: accounts.RoleStaff}, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Expired immediately (zero TTL).
	if _, err := tokens.Verify(tok); err == nil {
		t.Fatalf("expected expired token to fail verification")
	}

	// Signed with a different secret.
	other := accounts.NewTokens("another-secret")
	tok, err = other.Issue(accounts.Account{ID: "a_1", Role: accounts.RoleStaff}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tokens.Verify(tok); err == nil {
		t.Fatalf("expected wrong-secret token to fail verification")
	}
}
