package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/hello-login/internal/core/domain"
	"github.com/yndnr/hello-login/internal/server/httpserver/handler"
	"github.com/yndnr/hello-login/internal/telemetry/logger"
)

func testLogger(t *testing.T) (logger.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := logger.New(logger.Config{Level: "debug", Format: "json", Output: &lockedWriter{w: &buf}})
	if err != nil {
		t.Fatalf("logger.New() error = %v", err)
	}
	return l, &buf
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "a,b,c" {
		t.Errorf("order = %v, want a,b,c", order)
	}
}

func TestRequestID(t *testing.T) {
	l, _ := testLogger(t)

	var seen string
	h := RequestID(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if _, err := ulid.Parse(seen); err != nil {
			t.Errorf("generated id %q is not a ULID: %v", seen, err)
		}
		if got := w.Header().Get(HeaderRequestID); got != seen {
			t.Errorf("header = %q, context = %q", got, seen)
		}
	})

	t.Run("honored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if seen != "abc-123" {
			t.Errorf("id = %q, want abc-123", seen)
		}
	})

	t.Run("oversized replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, strings.Repeat("x", 500))
		h.ServeHTTP(httptest.NewRecorder(), req)

		if len(seen) != 26 {
			t.Errorf("id length = %d, want generated ULID", len(seen))
		}
	})
}

type fakeObserver struct {
	mu     sync.Mutex
	routes []string
	status []int
}

func (f *fakeObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, method+" "+route)
	f.status = append(f.status, status)
}

func TestAudit_RequestResponseLines(t *testing.T) {
	l, buf := testLogger(t)
	obs := &fakeObserver{}

	mux := http.NewServeMux()
	mux.Handle("GET /items/{id}", Chain(okHandler(), RequestID(l), Audit(obs)))

	req := httptest.NewRequest(http.MethodGet, "/items/7?x=1", nil)
	req.Header.Set(HeaderRequestID, "log-1")
	mux.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %s", len(lines), buf.String())
	}
	if lines[0]["msg"] != "REQUEST" || lines[1]["msg"] != "RESPONSE" {
		t.Errorf("messages = %v, %v", lines[0]["msg"], lines[1]["msg"])
	}
	for _, line := range lines {
		if line["log_id"] != "log-1" {
			t.Errorf("log_id = %v, want log-1", line["log_id"])
		}
		if line["uri"] != "/items/7?x=1" {
			t.Errorf("uri = %v", line["uri"])
		}
		if line["handler"] != "GET /items/{id}" {
			t.Errorf("handler = %v", line["handler"])
		}
	}
	if lines[1]["status"] != float64(200) {
		t.Errorf("status = %v", lines[1]["status"])
	}

	if len(obs.routes) != 1 || obs.routes[0] != "GET GET /items/{id}" || obs.status[0] != 200 {
		t.Errorf("observer = %v %v", obs.routes, obs.status)
	}
}

func TestAudit_LogsHandlerError(t *testing.T) {
	l, buf := testLogger(t)

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, r, errors.New("disk on fire"))
	})
	h := Chain(failing, RequestID(l), Audit(nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	lines := logLines(t, buf)
	last := lines[len(lines)-1]
	if last["level"] != "ERROR" || last["msg"] != "RESPONSE" {
		t.Errorf("last line = %v", last)
	}
	if last["error"] != "disk on fire" {
		t.Errorf("error attr = %v", last["error"])
	}
}

func TestAudit_ClientErrorAtWarn(t *testing.T) {
	l, buf := testLogger(t)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, r, domain.ErrUserException)
	}), RequestID(l), Audit(nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := logLines(t, buf)
	last := lines[len(lines)-1]
	if last["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", last["level"])
	}
}

func TestRecover(t *testing.T) {
	l, buf := testLogger(t)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})
	h := Chain(panicking, RequestID(l), Audit(nil), Recover())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp handler.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != domain.ErrInternal.Code {
		t.Errorf("code = %q, want EX", resp.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("panic was not logged")
	}
}

type fakeSessions struct{ ok bool }

func (f fakeSessions) GetSession(*http.Request) (any, bool) { return nil, f.ok }

func TestLoginCheck(t *testing.T) {
	whitelist := []string{"/", "/login", "/api/*"}

	tests := []struct {
		name         string
		target       string
		loggedIn     bool
		wantStatus   int
		wantLocation string
	}{
		{"whitelisted root", "/", false, http.StatusOK, ""},
		{"whitelisted wildcard", "/api/members/ex", false, http.StatusOK, ""},
		{"protected without session", "/members", false, http.StatusFound, "/login?redirectURL=" + url.QueryEscape("/members")},
		{"protected keeps query", "/members/1?tab=a", false, http.StatusFound, "/login?redirectURL=" + url.QueryEscape("/members/1?tab=a")},
		{"protected with session", "/members", true, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := LoginCheck(fakeSessions{ok: tt.loggedIn}, whitelist)(okHandler())
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}

func TestSimpleMatch(t *testing.T) {
	tests := []struct {
		pattern, s string
		want       bool
	}{
		{"/", "/", true},
		{"/", "/members", false},
		{"/api/*", "/api/members/ex", true},
		{"/api/*", "/api/", true},
		{"/api/*", "/apix", false},
		{"*.css", "/static/site.css", true},
		{"/a/*/c", "/a/b/b/c", true},
		{"/a/*/c", "/a/b/d", false},
		{"*", "/anything", true},
	}
	for _, tt := range tests {
		if got := simpleMatch(tt.pattern, tt.s); got != tt.want {
			t.Errorf("simpleMatch(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(0.001, 2)(okHandler())

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	if send("10.0.0.1") != http.StatusOK || send("10.0.0.1") != http.StatusOK {
		t.Fatal("burst requests should pass")
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	h := Chain(okHandler(), ClientIP(nil), RateLimit(0.001, 1))

	limited := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 49 {
		t.Errorf("limited = %d, want 49", limited)
	}
}

func TestRateLimit_TrustedProxyUsesForwardedClient(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	h := Chain(okHandler(), ClientIP(trusted), RateLimit(0.001, 1))

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.5:4000"
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("198.51.100.1"); code != http.StatusOK {
		t.Fatalf("first client status = %d, want 200", code)
	}
	if code := send("198.51.100.2"); code != http.StatusOK {
		t.Errorf("second client status = %d, want 200", code)
	}
	// A client-supplied leftmost hop does not change the bucket.
	if code := send("1.2.3.4, 198.51.100.1"); code != http.StatusTooManyRequests {
		t.Errorf("prepended hop status = %d, want 429", code)
	}
}

func TestLimiterRegistry_HardCap(t *testing.T) {
	reg := newLimiterRegistry(10, 0)
	if reg.burst != 10 {
		t.Errorf("burst default = %d, want 10", reg.burst)
	}
	reg.capacity = 100

	now := time.Unix(0, 0)
	reg.now = func() time.Time { return now }
	for i := 0; i < 1000; i++ {
		reg.get("client-" + strconv.Itoa(i))
	}
	if got := reg.size(); got != 100 {
		t.Fatalf("limiters = %d, want 100", got)
	}
	if _, ok := reg.limiters["client-0"]; ok {
		t.Error("oldest client should have been evicted")
	}
	if _, ok := reg.limiters["client-999"]; !ok {
		t.Error("newest client should be tracked")
	}
}

func TestLimiterRegistry_RecentUseSurvivesEviction(t *testing.T) {
	reg := newLimiterRegistry(10, 0)
	reg.capacity = 3

	reg.get("a")
	reg.get("b")
	reg.get("c")
	reg.get("a")
	reg.get("d")

	if _, ok := reg.limiters["b"]; ok {
		t.Error("b was least recently seen and should be evicted")
	}
	if _, ok := reg.limiters["a"]; !ok {
		t.Error("a was touched and should survive")
	}
}

func TestLimiterRegistry_SweepsIdle(t *testing.T) {
	reg := newLimiterRegistry(10, 0)

	now := time.Unix(0, 0)
	reg.now = func() time.Time { return now }
	for i := 0; i < 50; i++ {
		reg.get("10.0.0." + strconv.Itoa(i))
	}

	now = now.Add(limiterIdleTTL + time.Second)
	reg.get("fresh")

	if got := reg.size(); got != 1 {
		t.Errorf("limiters after sweep = %d, want 1", got)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example"})(okHandler())

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
			t.Errorf("Allow-Origin = %q", got)
		}
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/login", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", w.Code)
		}
	})
}

func TestClientIP(t *testing.T) {
	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	}
	tests := []struct {
		name    string
		trusted []netip.Prefix
		xff     string
		remote  string
		want    string
	}{
		{"untrusted peer ignores header", trusted, "1.1.1.1", "9.9.9.9:1", "9.9.9.9"},
		{"no proxies configured", nil, "1.1.1.1", "10.0.0.1:1", "10.0.0.1"},
		{"trusted peer", trusted, "1.1.1.1", "10.0.0.1:1", "1.1.1.1"},
		{"rightmost untrusted hop", trusted, "6.6.6.6, 2.2.2.2, 10.0.0.2", "10.0.0.1:1", "2.2.2.2"},
		{"all hops trusted", trusted, "10.0.0.3", "10.0.0.1:1", "10.0.0.1"},
		{"garbage hop", trusted, "not-an-ip", "10.0.0.1:1", "10.0.0.1"},
		{"trusted ipv6 peer", trusted, "3.3.3.3", "[::1]:8080", "3.3.3.3"},
		{"remote ipv6", nil, "", "[::1]:8080", "::1"},
		{"remote no port", nil, "", "5.5.5.5", "5.5.5.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := ClientIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = getClientIP(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("client ip = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetClientIP_WithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "4.4.4.4:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	if got := getClientIP(req); got != "4.4.4.4" {
		t.Errorf("getClientIP() = %q, want 4.4.4.4", got)
	}
}
