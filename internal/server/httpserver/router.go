package httpserver

import (
	"net/http"
	"net/netip"

	"github.com/yndnr/hello-login/internal/server/httpserver/handler"
	"github.com/yndnr/hello-login/internal/telemetry/logger"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// App serves every application and health endpoint.
	App App

	// Sessions backs the login check.
	Sessions SessionLookup

	// Logger is attached to each request context.
	Logger logger.Logger

	// Metrics receives per-request observations (optional).
	Metrics RequestObserver

	// MetricsHandler serves GET /metrics (optional).
	MetricsHandler http.Handler

	// LoginWhitelist lists paths reachable without a session.
	LoginWhitelist []string

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = CORS off).
	CORSAllowedOrigins []string

	// RateLimit is the per-IP rate limit in requests/second (0 = off).
	RateLimit int

	// RateBurst is the per-IP burst size.
	RateBurst int

	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies []netip.Prefix

	// EnableAudit enables REQUEST/RESPONSE logging.
	EnableAudit bool
}

// App is the application handler together with the patterns it serves.
type App interface {
	http.Handler
	Routes() []handler.Route
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	// Order: RequestID -> ClientIP -> Audit -> Recover -> CORS -> RateLimit -> LoginCheck -> App
	app := []Middleware{RequestID(log), ClientIP(cfg.TrustedProxies)}
	if cfg.EnableAudit {
		app = append(app, Audit(cfg.Metrics))
	}
	app = append(app, Recover())
	if len(cfg.CORSAllowedOrigins) > 0 {
		app = append(app, CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.RateLimit > 0 {
		app = append(app, RateLimit(float64(cfg.RateLimit), cfg.RateBurst))
	}
	app = append(app, LoginCheck(cfg.Sessions, cfg.LoginWhitelist))
	appHandler := Chain(cfg.App, app...)

	// Probes skip audit, rate limiting and the login check.
	probe := Chain(cfg.App, RequestID(log), Recover())

	// Each pattern is registered here too so request logging and metrics
	// see the matched pattern.
	mux := http.NewServeMux()
	for _, rt := range cfg.App.Routes() {
		if rt.Probe {
			mux.Handle(rt.Pattern, probe)
		} else {
			mux.Handle(rt.Pattern, appHandler)
		}
	}
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", Chain(cfg.MetricsHandler, RequestID(log), Recover()))
	}
	return mux
}
