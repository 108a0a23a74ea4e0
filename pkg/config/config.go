package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/mmconsole/internal/logging"
	"github.com/ccollicutt/mmconsole/pkg/transport"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ApplyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it is set and otherwise returns the
// defaults with environment overrides applied.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}
	cfg := DefaultConfig()
	cfg.ApplyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and fills in defaults for
// optional fields left at zero.
func Validate(cfg *Config) error {
	if err := validateTransport(&cfg.Transport); err != nil {
		return fmt.Errorf("transport: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if strings.TrimSpace(cfg.Records.ErrorSeverity) == "" {
		return errors.New("records: error_severity must not be empty")
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			return fmt.Errorf("webhooks[%d] (%s): %w", i, cfg.Webhooks[i].DisplayName(), err)
		}
	}

	return nil
}

func validateTransport(tc *TransportConfig) error {
	if !knownKind(transport.Kind(tc.Type)) {
		return fmt.Errorf("invalid type %q (must be bluetooth, serial, or tcp)", tc.Type)
	}

	if tc.ReceiveTimeout < 0 {
		return fmt.Errorf("receive_timeout must not be negative, got %s", tc.ReceiveTimeout)
	}
	if tc.ReceiveTimeout == 0 {
		tc.ReceiveTimeout = transport.DefaultReceiveTimeout
	}

	if tc.ReadSize < 0 {
		return fmt.Errorf("read_size must not be negative, got %d", tc.ReadSize)
	}
	if tc.ReadSize == 0 {
		tc.ReadSize = transport.DefaultReadSize
	}

	if tc.Bluetooth.Address != "" {
		if _, err := transport.ParseAddress(tc.Bluetooth.Address); err != nil {
			return fmt.Errorf("bluetooth: %w", err)
		}
	}
	if tc.Bluetooth.Channel > 30 {
		return fmt.Errorf("bluetooth: channel must be 1-30, got %d", tc.Bluetooth.Channel)
	}

	if tc.Serial.BaudRate < 0 {
		return fmt.Errorf("serial: baud_rate must not be negative, got %d", tc.Serial.BaudRate)
	}

	// The selected default link must be usable without further flags.
	switch transport.Kind(tc.Type) {
	case transport.KindSerial:
		if tc.Serial.Device == "" {
			return errors.New("serial: device is required when type is serial")
		}
	case transport.KindTCP:
		if tc.TCP.Address == "" {
			return errors.New("tcp: address is required when type is tcp")
		}
	}

	return nil
}

func knownKind(kind transport.Kind) bool {
	for _, k := range transport.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func validateLog(lc *LogConfig) error {
	if _, ok := logging.ParseLevel(lc.Level); !ok {
		return fmt.Errorf("invalid level %q", lc.Level)
	}
	if lc.TailDefault < 0 {
		return fmt.Errorf("tail_default must not be negative, got %d", lc.TailDefault)
	}
	if lc.TailDefault == 0 {
		lc.TailDefault = DefaultTailCount
	}
	if lc.SavePath == "" {
		lc.SavePath = DefaultSavePath
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}
	return s
}
