package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr          = "127.0.0.1:8080"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second

	DefaultCookieName = "mySessionId"
	DefaultTokenBytes = 32

	DefaultRateLimit = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultLoginWhitelist is the set of paths served without a session.
var DefaultLoginWhitelist = []string{
	"/",
	"/members/add",
	"/login",
	"/logout",
	"/health",
	"/ready",
	"/metrics",
	"/api/*",
}

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:              DefaultHTTPAddr,
				ReadHeaderTimeout: DefaultReadHeaderTimeout,
				ShutdownTimeout:   DefaultShutdownTimeout,
			},
		},
		Session: SessionSection{
			CookieName: DefaultCookieName,
			TokenBytes: DefaultTokenBytes,
		},
		Web: WebSection{
			RateLimit:      DefaultRateLimit,
			EnableAudit:    true,
			LoginWhitelist: append([]string(nil), DefaultLoginWhitelist...),
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
