package httpserver

import (
	"container/list"
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/hello-login/internal/core/domain"
	"github.com/yndnr/hello-login/internal/server/httpserver/handler"
	"github.com/yndnr/hello-login/internal/telemetry/logger"
)

// HeaderRequestID carries the request (log) id in both directions.
const HeaderRequestID = "X-Request-ID"

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestObserver receives one observation per completed request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// SessionLookup reports whether a request carries a live session.
type SessionLookup interface {
	GetSession(r *http.Request) (any, bool)
}

// RequestID assigns each request a log id. An incoming X-Request-ID is
// honored; otherwise a ULID is generated. The id and a logger are stored in
// the request context.
func RequestID(base logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" || len(requestID) > 128 {
				requestID = ulid.Make().String()
			}

			w.Header().Set(HeaderRequestID, requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = logger.WithLogger(ctx, base)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Audit writes a REQUEST line before the handler runs and a RESPONSE line
// after it, both tagged with the request's log id. Failed requests are
// logged at error level together with the error the handler answered with.
func Audit(observer RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := logger.L(r.Context())
			ex := logger.Exchange{
				Method:   r.Method,
				URI:      r.URL.RequestURI(),
				Handler:  r.Pattern,
				ClientIP: getClientIP(r),
			}
			logger.Request(log, ex)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			ex.Status = wrapped.statusCode
			ex.Duration = time.Since(start)
			ex.Err = wrapped.err
			logger.Response(log, ex)

			if observer != nil {
				observer.ObserveRequest(r.Method, r.Pattern, ex.Status, ex.Duration)
			}
		})
	}
}

// Recover recovers from panics and answers 500 with the EX code.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.L(r.Context()).Error("panic recovered",
					"error", rec,
					"path", r.URL.Path,
				)
				handler.WriteError(w, r, domain.ErrInternal.WithCause(fmt.Errorf("panic: %v", rec)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// LoginCheck lets whitelisted paths through and redirects any request
// without a live session to /login?redirectURL=<original uri>.
func LoginCheck(sessions SessionLookup, whitelist []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isWhitelisted(r.URL.Path, whitelist) {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := sessions.GetSession(r); ok {
				next.ServeHTTP(w, r)
				return
			}

			uri := r.URL.RequestURI()
			logger.L(r.Context()).Info("unauthenticated request", "uri", uri)
			http.Redirect(w, r, "/login?redirectURL="+url.QueryEscape(uri), http.StatusFound)
		})
	}
}

func isWhitelisted(path string, whitelist []string) bool {
	for _, pattern := range whitelist {
		if simpleMatch(pattern, path) {
			return true
		}
	}
	return false
}

// simpleMatch reports whether s matches pattern, where each '*' matches any
// run of characters (including '/').
func simpleMatch(pattern, s string) bool {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return pattern == s
	}
	if !strings.HasPrefix(s, pattern[:star]) {
		return false
	}
	rest := pattern[star+1:]
	s = s[star:]
	if rest == "" {
		return true
	}
	for i := 0; i <= len(s); i++ {
		if simpleMatch(rest, s[i:]) {
			return true
		}
	}
	return false
}

// maxTrackedClients is the hard cap on limiter entries. When the table is
// full the least recently seen client is evicted.
const maxTrackedClients = 10000

// limiterIdleTTL is how long a client's limiter survives without requests.
const limiterIdleTTL = 3 * time.Minute

type clientLimiter struct {
	key      string
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterRegistry keeps one token bucket per client IP, ordered from most
// to least recently seen.
type limiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*list.Element
	lru      *list.List
	capacity int
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func newLimiterRegistry(requestsPerSecond float64, burst int) *limiterRegistry {
	if burst <= 0 {
		burst = int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &limiterRegistry{
		limiters: make(map[string]*list.Element),
		lru:      list.New(),
		capacity: maxTrackedClients,
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
		now:      time.Now,
	}
}

func (reg *limiterRegistry) get(ip string) *rate.Limiter {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	now := reg.now()
	if el, ok := reg.limiters[ip]; ok {
		cl := el.Value.(*clientLimiter)
		cl.lastSeen = now
		reg.lru.MoveToFront(el)
		return cl.limiter
	}

	// Idle entries sit at the back; stop at the first live one.
	for el := reg.lru.Back(); el != nil; el = reg.lru.Back() {
		cl := el.Value.(*clientLimiter)
		if now.Sub(cl.lastSeen) <= limiterIdleTTL && reg.lru.Len() < reg.capacity {
			break
		}
		reg.lru.Remove(el)
		delete(reg.limiters, cl.key)
	}

	cl := &clientLimiter{key: ip, limiter: rate.NewLimiter(reg.limit, reg.burst), lastSeen: now}
	reg.limiters[ip] = reg.lru.PushFront(cl)
	return cl.limiter
}

func (reg *limiterRegistry) size() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.lru.Len()
}

// RateLimit applies a token bucket per client IP. Requests over budget get
// 429 with the error.too_many_requests code. The client IP is the one
// resolved by ClientIP, or the peer address when ClientIP is not installed.
func RateLimit(requestsPerSecond float64, burst int) Middleware {
	reg := newLimiterRegistry(requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			if !reg.get(ip).Allow() {
				logger.L(r.Context()).Warn("rate limited", "client_ip", ip)
				w.Header().Set("Retry-After", "1")
				handler.WriteError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS adds Cross-Origin Resource Sharing headers.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := len(allowedOrigins) == 0
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code and
// the error a handler answered with.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	err         error
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// RecordError implements the handler package's error recorder.
func (w *responseWriter) RecordError(err error) {
	w.err = err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

type clientIPKey struct{}

// ClientIP resolves the client address once per request. X-Forwarded-For
// is read only when the peer is one of trusted; the address returned is the
// rightmost hop not in trusted. Anything else uses the peer address.
func ClientIP(trusted []netip.Prefix) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, trusted)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPKey{}, ip)))
		})
	}
}

func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := peerIP(r)
	if !isTrusted(peer, trusted) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			// A hop we cannot parse was written by someone untrusted.
			break
		}
		if !isTrusted(addr.Unmap().String(), trusted) {
			return addr.Unmap().String()
		}
	}
	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// getClientIP returns the address ClientIP resolved, falling back to the
// peer address.
func getClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok {
		return ip
	}
	return peerIP(r)
}

func peerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
