package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/hello-login/pkg/token"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifySession(&cfg.Session); err != nil {
		return err
	}
	if err := verifyWeb(&cfg.Web); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err)
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	if cfg.HTTP.ShutdownTimeout < 0 || cfg.HTTP.ReadHeaderTimeout < 0 {
		return errors.New("server.http timeouts must not be negative")
	}
	return nil
}

func verifySession(cfg *SessionSection) error {
	if cfg.CookieName == "" {
		return errors.New("session.cookie_name is required")
	}
	if strings.ContainsAny(cfg.CookieName, " \t\r\n;,=\"") {
		return fmt.Errorf("session.cookie_name %q contains invalid characters", cfg.CookieName)
	}
	if cfg.TokenBytes < token.MinLength {
		return fmt.Errorf("session.token_bytes must be at least %d", token.MinLength)
	}
	return nil
}

func verifyWeb(cfg *WebSection) error {
	if cfg.RateLimit < 0 || cfg.RateBurst < 0 {
		return errors.New("web.rate_limit and web.rate_burst must not be negative")
	}
	for _, p := range cfg.LoginWhitelist {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("web.login_whitelist entry %q must start with /", p)
		}
	}
	_, err := cfg.TrustedProxyPrefixes()
	return err
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}
