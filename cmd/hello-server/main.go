package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/hello-login/internal/infra/buildinfo"
	"github.com/yndnr/hello-login/internal/infra/confloader"
	"github.com/yndnr/hello-login/internal/server/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "hello-server",
		Usage:   "member registration and cookie session server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "check-config",
				Usage:  "Load and validate the configuration, then exit",
				Action: checkConfig,
			},
			{
				Name:  "version",
				Usage: "Print build information",
				Action: func(c *cli.Context) error {
					info := buildinfo.Get()
					fmt.Fprintf(c.App.Writer, "hello-server %s (commit: %s, built: %s, %s)\n",
						info.Version, info.Commit, info.BuildTime, info.GoVersion)
					return nil
				},
			},
		},
	}
}

// globalFlags returns the flags shared by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to YAML configuration file",
			EnvVars: []string{"HELLO_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "HTTP listen address (overrides server.http.addr)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error (overrides log.level)",
		},
		&cli.BoolFlag{
			Name:  "seed-test-member",
			Usage: "Register the member test/test! at startup",
		},
	}
}

// configSource remembers where configuration comes from so it can be
// loaded again on reload.
type configSource struct {
	file      string
	overrides map[string]any
}

func newConfigSource(c *cli.Context) *configSource {
	src := &configSource{
		file:      c.String("config"),
		overrides: make(map[string]any),
	}
	if c.IsSet("addr") {
		src.overrides["server.http.addr"] = c.String("addr")
	}
	if c.IsSet("log-level") {
		src.overrides["log.level"] = c.String("log-level")
	}
	return src
}

// load builds a verified configuration from defaults, file, environment
// and flag overrides, in increasing priority.
func (s *configSource) load() (*config.ServerConfig, error) {
	cfg := config.Default()

	loader := confloader.NewLoader(confloader.WithConfigFile(s.file))
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if len(s.overrides) > 0 {
		if err := loader.LoadMap(s.overrides); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func checkConfig(c *cli.Context) error {
	cfg, err := newConfigSource(c).load()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "configuration ok (addr=%s, cookie=%s, log.level=%s)\n",
		cfg.Server.HTTP.Addr, cfg.Session.CookieName, cfg.Log.Level)
	return nil
}
