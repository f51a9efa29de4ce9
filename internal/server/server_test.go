package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	adminservice "cafe-control-plane/internal/admin/service"
	sessiondomain "cafe-control-plane/internal/session/domain"
	sessionservice "cafe-control-plane/internal/session/service"
	"cafe-control-plane/internal/snapshot"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRegistry struct {
	registerID  int64
	registerErr error
	heartbeats  []int64
}

func (f *fakeRegistry) GetOrRegister(_ context.Context, name string) (int64, error) {
	if f.registerErr != nil {
		return 0, f.registerErr
	}
	return f.registerID, nil
}

func (f *fakeRegistry) Heartbeat(_ context.Context, id int64, _ time.Time) error {
	f.heartbeats = append(f.heartbeats, id)
	return nil
}

type fakeLeases struct {
	session *sessiondomain.Session
	err     error
}

func (f *fakeLeases) CreateLease(context.Context, int64, string, int, string) (*sessiondomain.Session, error) {
	return f.session, f.err
}

func (f *fakeLeases) ResolvePin(context.Context, string, int64, time.Time) (*sessiondomain.Session, error) {
	return f.session, f.err
}

func (f *fakeLeases) EndLease(context.Context, int64, time.Time) (*sessiondomain.Session, error) {
	return f.session, f.err
}

type fakeViews struct {
	views []snapshot.TerminalView
	err   error
}

func (f *fakeViews) List(context.Context, time.Time) ([]snapshot.TerminalView, error) {
	return f.views, f.err
}

type fakeAdmins struct {
	token    string
	loginErr error
	valid    bool
	username string
	tokenErr error
}

func (f *fakeAdmins) Login(context.Context, string, string) (string, time.Time, error) {
	if f.loginErr != nil {
		return "", time.Time{}, f.loginErr
	}
	return f.token, time.Now().Add(time.Hour), nil
}

func (f *fakeAdmins) VerifyAny(context.Context, string) (bool, error) {
	return f.valid, nil
}

func (f *fakeAdmins) ValidateToken(string) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return f.username, nil
}

func testSession() *sessiondomain.Session {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &sessiondomain.Session{
		ID:         11,
		TerminalID: 1,
		PinCode:    "443211",
		StartTime:  now,
		EndTime:    now.Add(time.Hour),
		IsActive:   true,
	}
}

func newTestHandler(registry *fakeRegistry, leases *fakeLeases, views *fakeViews, admins *fakeAdmins) http.Handler {
	if registry == nil {
		registry = &fakeRegistry{registerID: 1}
	}
	if leases == nil {
		leases = &fakeLeases{session: testSession()}
	}
	if views == nil {
		views = &fakeViews{}
	}
	if admins == nil {
		admins = &fakeAdmins{token: "tok", valid: true, username: "admin"}
	}
	return New(registry, leases, views, admins, nil, zap.NewNop()).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer tok"}
}

func TestRegisterTerminal(t *testing.T) {
	registry := &fakeRegistry{registerID: 42}
	h := newTestHandler(registry, nil, nil, nil)

	w := doJSON(t, h, http.MethodPost, "/api/v1/terminals/register", gin.H{"name": "PC-01"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		TerminalID int64 `json:"terminal_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TerminalID != 42 {
		t.Errorf("terminal_id = %d, want 42", resp.TerminalID)
	}
}

func TestRegisterTerminalBadBody(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/terminals/register", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHeartbeat(t *testing.T) {
	registry := &fakeRegistry{}
	h := newTestHandler(registry, nil, nil, nil)

	w := doJSON(t, h, http.MethodPost, "/api/v1/terminals/7/heartbeat", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if len(registry.heartbeats) != 1 || registry.heartbeats[0] != 7 {
		t.Errorf("heartbeats = %v, want [7]", registry.heartbeats)
	}
}

func TestHeartbeatBadID(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)
	for _, path := range []string{"/api/v1/terminals/abc/heartbeat", "/api/v1/terminals/0/heartbeat", "/api/v1/terminals/-1/heartbeat"} {
		w := doJSON(t, h, http.MethodPost, path, nil, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestUnlock(t *testing.T) {
	h := newTestHandler(nil, &fakeLeases{session: testSession()}, nil, nil)

	w := doJSON(t, h, http.MethodPost, "/api/v1/terminals/1/unlock", gin.H{"pin": "443211"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != 11 {
		t.Errorf("session id = %d, want 11", resp.ID)
	}
	if resp.Pin != "" {
		t.Error("unlock response must not echo the pin")
	}
}

func TestUnlockErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid pin", sessionservice.ErrInvalidPin, http.StatusBadRequest},
		{"unknown pin", sessionservice.ErrPinNotFound, http.StatusNotFound},
		{"wrong terminal", &sessionservice.WrongTerminalError{ActualTerminalID: 2}, http.StatusConflict},
		{"expired", sessionservice.ErrSessionExpired, http.StatusGone},
		{"internal", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(nil, &fakeLeases{err: tc.err}, nil, nil)
			w := doJSON(t, h, http.MethodPost, "/api/v1/terminals/1/unlock", gin.H{"pin": "443211"}, nil)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	h := newTestHandler(nil, nil, nil, &fakeAdmins{token: "issued-token"})

	w := doJSON(t, h, http.MethodPost, "/api/v1/admin/login", gin.H{"username": "admin", "password": "pw"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token != "issued-token" {
		t.Errorf("token = %q, want issued-token", resp.Token)
	}
	if resp.ExpiresAt == "" {
		t.Error("expected expires_at")
	}
}

func TestLoginRejected(t *testing.T) {
	h := newTestHandler(nil, nil, nil, &fakeAdmins{loginErr: adminservice.ErrInvalidCredentials})
	w := doJSON(t, h, http.MethodPost, "/api/v1/admin/login", gin.H{"username": "admin", "password": "bad"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestVerify(t *testing.T) {
	for _, valid := range []bool{true, false} {
		h := newTestHandler(nil, nil, nil, &fakeAdmins{valid: valid})
		w := doJSON(t, h, http.MethodPost, "/api/v1/admin/verify", gin.H{"password": "pw"}, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var resp struct {
			Valid bool `json:"valid"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Valid != valid {
			t.Errorf("valid = %v, want %v", resp.Valid, valid)
		}
	}
}

func TestListTerminalsRequiresAuth(t *testing.T) {
	h := newTestHandler(nil, nil, nil, &fakeAdmins{tokenErr: errors.New("bad token")})
	w := doJSON(t, h, http.MethodGet, "/api/v1/terminals", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestListTerminals(t *testing.T) {
	views := &fakeViews{views: []snapshot.TerminalView{
		{ID: 1, Name: "PC-01", Status: "InUse", Indicator: "normal"},
		{ID: 2, Name: "PC-02", Status: "Idle", Indicator: "neutral"},
	}}
	h := newTestHandler(nil, nil, views, nil)

	w := doJSON(t, h, http.MethodGet, "/api/v1/terminals", nil, authHeader())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Terminals []snapshot.TerminalView `json:"terminals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Terminals) != 2 {
		t.Errorf("terminals = %d, want 2", len(resp.Terminals))
	}
}

func TestCreateLease(t *testing.T) {
	h := newTestHandler(nil, &fakeLeases{session: testSession()}, nil, nil)

	w := doJSON(t, h, http.MethodPost, "/api/v1/sessions",
		gin.H{"terminal_id": 1, "minutes": 60}, authHeader())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pin != "443211" {
		t.Errorf("pin = %q, want 443211 in operator response", resp.Pin)
	}
}

func TestCreateLeaseConflicts(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"already leased", sessionservice.ErrAlreadyLeased, http.StatusConflict},
		{"pin in use", sessionservice.ErrPinInUse, http.StatusConflict},
		{"unknown terminal", sessionservice.ErrTerminalNotFound, http.StatusNotFound},
		{"bad duration", sessionservice.ErrInvalidDuration, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(nil, &fakeLeases{err: tc.err}, nil, nil)
			w := doJSON(t, h, http.MethodPost, "/api/v1/sessions",
				gin.H{"terminal_id": 1, "minutes": 60}, authHeader())
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestEndLease(t *testing.T) {
	h := newTestHandler(nil, &fakeLeases{session: testSession()}, nil, nil)

	w := doJSON(t, h, http.MethodDelete, "/api/v1/sessions/terminal/1", nil, authHeader())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestEndLeaseNoSession(t *testing.T) {
	h := newTestHandler(nil, &fakeLeases{err: sessionservice.ErrNoActiveSession}, nil, nil)
	w := doJSON(t, h, http.MethodDelete, "/api/v1/sessions/terminal/1", nil, authHeader())
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)
	w := doJSON(t, h, http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	w := doJSON(t, h, http.MethodGet, "/healthz", nil, nil)
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("expected generated request id")
	}

	w = doJSON(t, h, http.MethodGet, "/healthz", nil, map[string]string{"X-Request-Id": "fixed"})
	if got := w.Header().Get("X-Request-Id"); got != "fixed" {
		t.Errorf("request id = %q, want fixed", got)
	}
}
