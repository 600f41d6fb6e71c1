package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sales-reports/internal/adapters/web"
	"sales-reports/internal/app"
	"sales-reports/internal/core"
	"sales-reports/internal/logger"
	"sales-reports/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const testSecret = "test-secret"

type fakeService struct {
	calls  []app.SummaryRequest
	caller core.Caller
	err    error
	panic  bool
}

func (f *fakeService) RequestSummary(_ context.Context, caller core.Caller, req app.SummaryRequest) (*app.SummaryAck, error) {
	if f.panic {
		panic("service exploded")
	}
	f.calls = append(f.calls, req)
	f.caller = caller
	if f.err != nil {
		return nil, f.err
	}
	return &app.SummaryAck{
		RequestID:     "req_1",
		Status:        app.StatusProcessing,
		Message:       "Your sales summary is being generated and will be sent to " + req.EmailTo,
		EstimatedTime: "30-60 seconds",
		RequestedAt:   time.Date(2025, 9, 8, 9, 0, 0, 0, time.UTC),
	}, nil
}

func quietLogger() *logrus.Logger {
	return logger.Discard()
}

func newServer(svc app.ReportService, burst int) http.Handler {
	return web.NewHandler(svc, web.Options{
		JWTSecret:      testSecret,
		RateLimitRPS:   1,
		RateLimitBurst: burst,
	}, quietLogger())
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func centralToken(t *testing.T) string {
	return signToken(t, testSecret, jwt.MapClaims{"user_id": "u_central", "role": "CENTRAL"})
}

func post(t *testing.T, h http.Handler, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newServer(&fakeService{}, 10)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID header")
	}
}

func TestWeeklySummary_Accepted(t *testing.T) {
	svc := &fakeService{}
	h := newServer(svc, 10)

	rec := post(t, h, "/api/sales/summary/weekly", centralToken(t),
		`{"from":"2025-09-01","to":"2025-09-07","branch":"SanIsidro","emailTo":"a@example.com","includeCharts":true}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var ack app.SummaryAck
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.RequestID != "req_1" || ack.Status != app.StatusProcessing || ack.EstimatedTime == "" {
		t.Errorf("ack = %+v", ack)
	}

	if len(svc.calls) != 1 {
		t.Fatalf("service calls = %d, want 1", len(svc.calls))
	}
	got := svc.calls[0]
	if got.Premium || got.IncludeCharts || got.AttachPDF {
		t.Errorf("standard endpoint passed flags %+v", got)
	}
	if got.Branch != "SanIsidro" || got.From != "2025-09-01" || got.EmailTo != "a@example.com" {
		t.Errorf("request = %+v", got)
	}
	if svc.caller.ID != "u_central" {
		t.Errorf("caller id = %q", svc.caller.ID)
	}
	if _, ok := svc.caller.Role.(core.Central); !ok {
		t.Errorf("caller role = %T, want core.Central", svc.caller.Role)
	}
}

func TestPremiumSummary_PassesFlags(t *testing.T) {
	svc := &fakeService{}
	h := newServer(svc, 10)

	rec := post(t, h, "/api/sales/summary/weekly/premium", centralToken(t),
		`{"emailTo":"a@example.com","includeCharts":true,"attachPdf":true}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	got := svc.calls[0]
	if !got.Premium || !got.IncludeCharts || !got.AttachPDF {
		t.Errorf("premium flags = %+v", got)
	}
}

func TestBranchCallerIdentity(t *testing.T) {
	svc := &fakeService{}
	h := newServer(svc, 10)
	token := signToken(t, testSecret, jwt.MapClaims{"user_id": "u_branch", "role": "branch", "branch": "Miraflores"})

	rec := post(t, h, "/api/sales/summary/weekly", token, `{"emailTo":"a@example.com","branch":"SanIsidro"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	role, ok := svc.caller.Role.(core.Branch)
	if !ok {
		t.Fatalf("caller role = %T, want core.Branch", svc.caller.Role)
	}
	if role.Home != "Miraflores" {
		t.Errorf("home branch = %q, want Miraflores", role.Home)
	}
}

func TestAuthFailures(t *testing.T) {
	expired := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "u_central", "role": "CENTRAL", "exp": time.Now().Add(-time.Minute).Unix(),
	})

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "not.a.jwt", http.StatusUnauthorized},
		{"wrong secret", signToken(t, "other", jwt.MapClaims{"user_id": "u", "role": "CENTRAL"}), http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
		{"no user id", signToken(t, testSecret, jwt.MapClaims{"role": "CENTRAL"}), http.StatusUnauthorized},
		{"unknown role", signToken(t, testSecret, jwt.MapClaims{"user_id": "u", "role": "AUDITOR"}), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := post(t, newServer(svc, 10), "/api/sales/summary/weekly", tt.token, `{"emailTo":"a@example.com"}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if len(svc.calls) != 0 {
				t.Errorf("service reached without valid identity")
			}
		})
	}
}

func TestCookieToken(t *testing.T) {
	svc := &fakeService{}
	h := newServer(svc, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/sales/summary/weekly", strings.NewReader(`{"emailTo":"a@example.com"}`))
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: centralToken(t)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid input", fmt.Errorf("%w: EmailTo must be a valid email address", app.ErrInvalidInput), http.StatusBadRequest, "BAD_REQUEST"},
		{"missing home branch", core.ErrMissingHomeBranch, http.StatusForbidden, "FORBIDDEN"},
		{"pool closed", fmt.Errorf("failed to emit report request: %w", worker.ErrPoolClosed), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newServer(&fakeService{err: tt.err}, 10), "/api/sales/summary/weekly", centralToken(t), `{"emailTo":"x"}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body struct {
				Code      string `json:"code"`
				RequestID string `json:"request_id"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.RequestID == "" {
				t.Errorf("error body missing request_id")
			}
		})
	}
}

func TestMalformedJSON(t *testing.T) {
	svc := &fakeService{}
	rec := post(t, newServer(svc, 10), "/api/sales/summary/weekly", centralToken(t), `{"emailTo":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(svc.calls) != 0 {
		t.Errorf("service called for malformed body")
	}
}

func TestBodyTooLarge(t *testing.T) {
	big := `{"emailTo":"a@example.com","branch":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := post(t, newServer(&fakeService{}, 10), "/api/sales/summary/weekly", centralToken(t), big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	svc := &fakeService{}
	h := newServer(svc, 2)
	token := centralToken(t)

	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, post(t, h, "/api/sales/summary/weekly", token, `{"emailTo":"a@example.com"}`).Code)
	}
	if codes[0] != http.StatusAccepted || codes[1] != http.StatusAccepted {
		t.Fatalf("first two codes = %v, want 202", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third code = %d, want 429", codes[2])
	}

	other := signToken(t, testSecret, jwt.MapClaims{"user_id": "u_other", "role": "CENTRAL"})
	if code := post(t, h, "/api/sales/summary/weekly", other, `{"emailTo":"a@example.com"}`).Code; code != http.StatusAccepted {
		t.Errorf("other caller throttled: %d", code)
	}
}

func TestRecoverer(t *testing.T) {
	rec := post(t, newServer(&fakeService{panic: true}, 10), "/api/sales/summary/weekly", centralToken(t), `{"emailTo":"a@example.com"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	h := web.NewHandler(&fakeService{}, web.Options{
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"https://app.example.com"},
		RateLimitRPS:   1,
		RateLimitBurst: 1,
	}, quietLogger())

	tests := []struct {
		origin string
		want   string
	}{
		{"https://app.example.com", "https://app.example.com"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/sales/summary/weekly", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("%s: preflight status = %d, want 204", tt.origin, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("%s: allow-origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}
