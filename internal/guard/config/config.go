// Package config loads rr-guardd settings from defaults and GUARD_ environment
// variables, and validates them.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/rr-guard/internal/guard/repos/policy"
)

// AppConfig is the complete rr-guardd configuration.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log     LoggingConfig `koanf:"log"`
	Proxy   ProxyConfig   `koanf:"proxy"`
	Policy  PolicyConfig  `koanf:"policy"`
	Watcher WatcherConfig `koanf:"watcher"`
}

type LoggingConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

type ProxyConfig struct {
	Port            int  `koanf:"port" validate:"required,gte=1,lt=65536"`
	SanitizeHTML    bool `koanf:"sanitize_html"`
	SecurityHeaders bool `koanf:"security_headers"`
}

type PolicyConfig struct {
	// Source is a denylist file or compiled snapshot. Empty selects the
	// embedded default.
	Source string `koanf:"source" validate:"policy_source"`
	// CacheSize bounds the decision cache; 0 disables it.
	CacheSize int     `koanf:"cache_size" validate:"gte=0"`
	FPRate    float64 `koanf:"fp_rate" validate:"gt=0,lt=1"`
}

type WatcherConfig struct {
	Enabled         bool   `koanf:"enabled"`
	MarkerAttribute string `koanf:"marker_attribute" validate:"required"`
}

// DEFAULT_APP_CONFIG holds the values used when no override is present.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LoggingConfig{Level: "info"},
	Proxy: ProxyConfig{
		Port:            8080,
		SanitizeHTML:    true,
		SecurityHeaders: true,
	},
	Policy: PolicyConfig{
		Source:    "",
		CacheSize: 4096,
		FPRate:    0.01,
	},
	Watcher: WatcherConfig{
		Enabled:         true,
		MarkerAttribute: "data-extension",
	},
}

// envKeys maps GUARD_ variables onto config paths. Underscores inside a key
// name make a mechanical transform ambiguous, so the map is explicit.
var envKeys = map[string]string{
	"GUARD_ENV":                      "env",
	"GUARD_LOG_LEVEL":                "log.level",
	"GUARD_PROXY_PORT":               "proxy.port",
	"GUARD_PROXY_SANITIZE_HTML":      "proxy.sanitize_html",
	"GUARD_PROXY_SECURITY_HEADERS":   "proxy.security_headers",
	"GUARD_POLICY_SOURCE":            "policy.source",
	"GUARD_POLICY_CACHE_SIZE":        "policy.cache_size",
	"GUARD_POLICY_FP_RATE":           "policy.fp_rate",
	"GUARD_WATCHER_ENABLED":          "watcher.enabled",
	"GUARD_WATCHER_MARKER_ATTRIBUTE": "watcher.marker_attribute",
}

// validPolicySource accepts the empty source and any extension the policy
// registry can load.
func validPolicySource(fl validator.FieldLevel) bool {
	return policy.SupportedExtension(fl.Field().String())
}

// envLoader loads GUARD_ variables. Unknown variables are ignored. Values
// containing spaces or commas become lists. It can be replaced in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "GUARD_",
		TransformFunc: func(key, value string) (string, any) {
			path, ok := envKeys[strings.ToUpper(key)]
			if !ok {
				return "", nil
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return path, value
			}
			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				return path, strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
			}
			return path, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "policy_source" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("policy_source", validPolicySource)
}

// Load builds an AppConfig from defaults and the environment, then validates it.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}

// ListenAddr returns the proxy listen address.
func (c *AppConfig) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Proxy.Port)
}
