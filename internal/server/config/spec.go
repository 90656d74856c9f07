package config

import (
	"fmt"
	"net/netip"
	"time"
)

// ServerConfig is the root configuration for hello-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Session SessionSection `koanf:"session"`
	Web     WebSection     `koanf:"web"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	TLSCertFile       string        `koanf:"tls_cert_file"`
	TLSKeyFile        string        `koanf:"tls_key_file"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// SessionSection configures the cookie session manager.
type SessionSection struct {
	// CookieName is the name of the session cookie.
	CookieName string `koanf:"cookie_name"`

	// TokenBytes is the random byte count per token (minimum 16).
	TokenBytes int `koanf:"token_bytes"`

	// SecureCookie marks the session cookie Secure (HTTPS only).
	SecureCookie bool `koanf:"secure_cookie"`
}

// WebSection configures the request pipeline.
type WebSection struct {
	// RateLimit is the per-IP request rate (requests/second). 0 disables it.
	RateLimit int `koanf:"rate_limit"`

	// RateBurst is the per-IP burst size. Defaults to RateLimit.
	RateBurst int `koanf:"rate_burst"`

	// EnableAudit enables REQUEST/RESPONSE logging for every request.
	EnableAudit bool `koanf:"enable_audit"`

	// LoginWhitelist lists paths reachable without a session.
	// A trailing "*" matches any suffix.
	LoginWhitelist []string `koanf:"login_whitelist"`

	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// header is believed. Empty means the peer address is the client.
	TrustedProxies []string `koanf:"trusted_proxies"`

	// CORSAllowedOrigins lists allowed CORS origins (empty disables CORS).
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`

	// Watch reloads log.level when the config file changes.
	Watch bool `koanf:"watch"`
}

// TrustedProxyPrefixes parses TrustedProxies. Bare addresses become
// single-host prefixes.
func (w WebSection) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(w.TrustedProxies))
	for _, s := range w.TrustedProxies {
		if p, err := netip.ParsePrefix(s); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("web.trusted_proxies entry %q: %w", s, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
