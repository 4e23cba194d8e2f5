package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kharcha/internal/charts"
	"kharcha/internal/core"
	"kharcha/internal/ledger"
	"kharcha/internal/report"
	"kharcha/internal/services"
	"kharcha/internal/storage"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	dir := t.TempDir()

	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "kharcha.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ledgers := ledger.NewMemoryStore()
	reports, err := report.NewWriter(filepath.Join(dir, "monthly_reports"), ledgers)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	renderer, err := charts.NewSVGRenderer(filepath.Join(dir, "charts"))
	if err != nil {
		t.Fatalf("NewSVGRenderer: %v", err)
	}

	tracker := services.NewTrackerService(services.Dependencies{
		Registry: repo,
		Ledgers:  ledgers,
		Markers:  ledgers,
		Reports:  reports,
		Charts:   renderer,
		Clock:    core.FixedClock(time.Date(2025, 11, 14, 9, 5, 0, 0, ist)),
	})
	srv := NewServer(":0", tracker, nil, opts)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeSummary(t *testing.T, rr *httptest.ResponseRecorder) summaryResponse {
	t.Helper()
	var got summaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode summary: %v (body %s)", err, rr.Body.String())
	}
	return got
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	notReady := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db down") }})
	if rr := do(t, notReady, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestBudgetAndExpenseFlow(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/users/Alice/session", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("open new user: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decodeSummary(t, rr); got.User != "alice" || !got.NewUser || len(got.Ledger) != 7 {
		t.Fatalf("unexpected open summary: %+v", got)
	}

	if rr := do(t, srv, http.MethodPost, "/users/alice/session", ""); rr.Code != http.StatusOK {
		t.Fatalf("reopen status=%d", rr.Code)
	}

	if rr := do(t, srv, http.MethodPost, "/users/alice/budget", `{"amount":1000}`); rr.Code != http.StatusOK {
		t.Fatalf("set budget status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodPost, "/users/alice/budget", `{"amount":500}`); rr.Code != http.StatusConflict {
		t.Fatalf("second set budget status=%d, want 409", rr.Code)
	}

	do(t, srv, http.MethodPost, "/users/alice/expenses", `{"category":"Food","amount":200}`)
	rr = do(t, srv, http.MethodPost, "/users/alice/expenses", `{"category":"Travel","amount":"100"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add expense status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeSummary(t, rr)
	if got.Budget != 1000 || got.TotalExpenses != 300 || got.Remaining != 700 || got.PercentUsed != 30 || got.Status != "Within budget" {
		t.Fatalf("unexpected status after 300 spent: %+v", got)
	}

	rr = do(t, srv, http.MethodPost, "/users/alice/expenses", `{"category":"Food","amount":850}`)
	got = decodeSummary(t, rr)
	if got.TotalExpenses != 1150 || got.Remaining != -150 || got.PercentUsed != 115 || got.Status != "Exceeded" {
		t.Fatalf("unexpected status after 1150 spent: %+v", got)
	}

	rr = do(t, srv, http.MethodGet, "/users/alice/summary", "")
	if rr.Code != http.StatusOK || decodeSummary(t, rr).TotalExpenses != 1150 {
		t.Fatalf("summary status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPut, "/users/alice/budget", `{"amount":2000}`)
	if rr.Code != http.StatusOK || decodeSummary(t, rr).PercentUsed != 57.5 {
		t.Fatalf("modify budget status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestExpenseValidation(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body", "", http.StatusBadRequest},
		{"broken json", `{"category":`, http.StatusBadRequest},
		{"missing category", `{"amount":10}`, http.StatusUnprocessableEntity},
		{"unknown category", `{"category":"Rent","amount":10}`, http.StatusUnprocessableEntity},
		{"reserved category", `{"category":"Budget","amount":10}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"category":"Food","amount":-1}`, http.StatusUnprocessableEntity},
		{"non numeric amount", `{"category":"Food","amount":"ten"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := do(t, srv, http.MethodPost, "/users/bob/expenses", tt.body); rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}

	if rr := do(t, srv, http.MethodPost, "/users/%20/session", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank user status=%d", rr.Code)
	}
}

func TestUserNamesCannotLeaveDataDir(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, path := range []string{
		"/users/..%2F..%2Fescaped/budget",
		"/users/..%5Cescaped/budget",
		"/users/a%2Fb/budget",
		"/users/..%00/budget",
	} {
		rr := do(t, srv, http.MethodPost, path, `{"amount":1000}`)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s status=%d want 422 body=%s", path, rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), "invalid user name") {
			t.Fatalf("%s unexpected body %s", path, rr.Body.String())
		}
	}
}

func TestReportsEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/users/alice/budget", `{"amount":1000}`)
	do(t, srv, http.MethodPost, "/users/alice/expenses", `{"category":"Food","amount":850}`)

	rr := do(t, srv, http.MethodGet, "/users/alice/reports", "")
	var list reportsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if len(list.Reports) != 1 || list.Reports[0] != "alice_November_2025.txt" {
		t.Fatalf("unexpected reports: %+v", list)
	}

	rr = do(t, srv, http.MethodGet, "/users/alice/reports/alice_November_2025.txt", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("read report status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "Expense Report for alice - November 2025\nBudget: ₹1000.00\n") ||
		!strings.Contains(body, "14-11-2025 09:05 | Food | ₹850.00") {
		t.Fatalf("unexpected report:\n%s", body)
	}
	if rr.Header().Get("Content-Disposition") != "" {
		t.Fatalf("inline view must not be an attachment")
	}

	rr = do(t, srv, http.MethodGet, "/users/alice/reports/alice_November_2025.txt?download=1", "")
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="alice_November_2025.txt"` {
		t.Fatalf("Content-Disposition = %q", got)
	}

	if rr := do(t, srv, http.MethodGet, "/users/alice/reports/bob_November_2025.txt", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("foreign report status=%d, want 404", rr.Code)
	}
}

func TestReportsOfPrefixedUserStayPrivate(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/users/a_b/budget", `{"amount":1000}`)
	do(t, srv, http.MethodPost, "/users/a/session", "")

	rr := do(t, srv, http.MethodGet, "/users/a/reports", "")
	var list reportsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if len(list.Reports) != 0 {
		t.Fatalf("user a sees reports %v", list.Reports)
	}
	if rr := do(t, srv, http.MethodGet, "/users/a/reports/a_b_November_2025.txt", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("prefixed user's report status=%d, want 404", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/users/a_b/reports/a_b_November_2025.txt", ""); rr.Code != http.StatusOK {
		t.Fatalf("own report status=%d", rr.Code)
	}
}

func TestChartEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/users/alice/expenses", `{"category":"Food","amount":200}`)

	for _, kind := range []string{"bar", "pie"} {
		rr := do(t, srv, http.MethodGet, "/users/alice/charts/"+kind, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s chart status=%d body=%s", kind, rr.Code, rr.Body.String())
		}
		if rr.Header().Get("Content-Type") != "image/svg+xml" || !strings.Contains(rr.Body.String(), "<svg") {
			t.Fatalf("%s chart is not svg: %s", kind, rr.Body.String())
		}
	}

	if rr := do(t, srv, http.MethodGet, "/users/alice/charts/line", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown chart status=%d", rr.Code)
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	srv := newTestServer(t, Options{RateLimit: 2})

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/users/carol/session", ""); rr.Code >= 400 {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/users/carol/session", "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected 429 with Retry-After, got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/users/carol/summary", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, got %d", rr.Code)
	}
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc123")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Header().Get(requestIDHeader) != "abc123" {
		t.Fatalf("request id not echoed: %q", rr.Header().Get(requestIDHeader))
	}

	rr = do(t, srv, http.MethodGet, "/healthz", "")
	if !strings.HasPrefix(rr.Header().Get(requestIDHeader), "req_") {
		t.Fatalf("expected generated request id, got %q", rr.Header().Get(requestIDHeader))
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing")
	}
}

// failingTracker only implements Summary; other calls would panic.
type failingTracker struct {
	*services.TrackerService
}

func (failingTracker) Summary(context.Context, string) (services.Summary, error) {
	return services.Summary{}, errors.New("disk failure")
}

func TestStorageErrorIsInternal(t *testing.T) {
	srv := NewServer(":0", failingTracker{}, nil, Options{})
	defer srv.rateLimiter.stop()

	rr := do(t, srv, http.MethodGet, "/users/alice/summary", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "disk failure") {
		t.Fatalf("internal error leaked: %s", rr.Body.String())
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.7:1234", "", "203.0.113.7"},
		{"untrusted proxy ignored", "203.0.113.7:1234", "198.51.100.1", "203.0.113.7"},
		{"trusted proxy", "10.0.0.2:80", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Fatalf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
