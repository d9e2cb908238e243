// Package config loads ServerConfig from flags, environment variables, and
// an optional config file via viper, generalizing the teacher's
// NewServerConfig/ServerConfig pair (server.go's `Config *ServerConfig`
// field, consulted for DataRoot/Debug/Vhosts/DirIndex/etc.) into the
// settings this HTTP layer actually needs.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServerConfig holds the settings trellis-http needs at startup, the
// direct analog of the teacher's ServerConfig.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// BaseURL is the externally visible root of the repository, used to
	// build absolute Link/Location/Memento-Datetime header values.
	BaseURL string
	// Debug mirrors the teacher's config.Debug, enabling the debug logger.
	Debug bool
	// CacheMaxAge is the max-age seconds value sent as Cache-Control on 200
	// GET responses for resources, binary descriptions and ACLs (spec.md
	// §4.5); memento and timemap responses carry no Cache-Control.
	CacheMaxAge int
	// AllowOrigins is the CORS allow-list, generalizing the teacher's
	// inline wildcard/"*" origin check in server.go's `handle`.
	AllowOrigins []string
	// MetricsNamespace prefixes every metric this process registers,
	// mirroring evalgo-org-eve's `tracing.NewMetrics(namespace)`.
	MetricsNamespace string
}

// Load builds a ServerConfig from command-line flags, environment
// variables (TRELLIS_-prefixed, following the teacher's VIPER_-prefix
// convention in spirit), and an optional config file, following
// evalgo-org-eve's cli/root.go viper.BindPFlag/AutomaticEnv/ReadInConfig
// pattern. args is normally os.Args[1:].
func Load(args []string) (*ServerConfig, error) {
	flags := pflag.NewFlagSet("trellis-http", pflag.ContinueOnError)
	flags.String("addr", ":8080", "HTTP listen address")
	flags.String("base-url", "http://localhost:8080", "externally visible repository root")
	flags.Bool("debug", false, "enable verbose request logging")
	flags.Int("cache-max-age", 86400, "max-age seconds for Cache-Control on 200 GET responses")
	flags.String("allow-origins", "*", "comma-separated CORS allow-list, or * for any origin")
	flags.String("metrics-namespace", "trellis_http", "prefix for registered Prometheus metrics")
	flags.String("config", "", "path to a trellis-http config file")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	v.SetEnvPrefix("trellis")
	v.AutomaticEnv()

	if cfgFile, _ := flags.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", cfgFile, err)
		}
	}

	origins := strings.Split(v.GetString("allow-origins"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &ServerConfig{
		Addr:             v.GetString("addr"),
		BaseURL:          strings.TrimRight(v.GetString("base-url"), "/"),
		Debug:            v.GetBool("debug"),
		CacheMaxAge:      v.GetInt("cache-max-age"),
		AllowOrigins:     origins,
		MetricsNamespace: v.GetString("metrics-namespace"),
	}, nil
}

// MustLoad is Load, exiting the process on failure — used from main where
// there is no better error sink before the logger is constructed.
func MustLoad(args []string) *ServerConfig {
	cfg, err := Load(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "trellis-http: "+err.Error())
		os.Exit(2)
	}
	return cfg
}
