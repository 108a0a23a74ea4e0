// Package config provides configuration loading and validation for mmconsole.
package config

import (
	"time"

	"github.com/ccollicutt/mmconsole/pkg/transport"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
	Records   RecordsConfig   `yaml:"records"`
	Webhooks  []WebhookConfig `yaml:"webhooks,omitempty"`
}

// TransportConfig selects and tunes the link to the robot.
type TransportConfig struct {
	// Type is the default link for a bare "connect" (bluetooth, serial, tcp).
	Type string `yaml:"type"`

	// ReceiveTimeout bounds each receive call of the poller.
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`

	// ReadSize is the largest chunk read per receive call.
	ReadSize int `yaml:"read_size"`

	Bluetooth transport.BluetoothOptions `yaml:"bluetooth"`
	Serial    transport.SerialOptions    `yaml:"serial"`
	TCP       transport.TCPOptions       `yaml:"tcp"`
}

// Options returns the transport options for the given kind. An empty kind
// uses the configured Type.
func (t *TransportConfig) Options(kind transport.Kind) transport.Options {
	if kind == "" {
		kind = transport.Kind(t.Type)
	}
	return transport.Options{
		Kind:           kind,
		ReceiveTimeout: t.ReceiveTimeout,
		ReadSize:       t.ReadSize,
		Bluetooth:      t.Bluetooth,
		Serial:         t.Serial,
		TCP:            t.TCP,
	}
}

// LogConfig controls diagnostics and log queries.
type LogConfig struct {
	// Level is the diagnostic log level (trace, debug, info, warn, error, disabled).
	Level string `yaml:"level"`

	// TailDefault is how many records a bare "log" command shows.
	TailDefault int `yaml:"tail_default"`

	// SavePath is where "log save" writes when no file is given.
	SavePath string `yaml:"save_path"`
}

// RecordsConfig controls record classification.
type RecordsConfig struct {
	// ErrorSeverity is the severity tag reported as an error.
	ErrorSeverity string `yaml:"error_severity"`
}

// WebhookConfig defines an endpoint notified for every error record.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// DisplayName returns the name, falling back to the URL.
func (w *WebhookConfig) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.URL
}
