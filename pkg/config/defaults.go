package config

import (
	"os"
	"time"

	"github.com/ccollicutt/mmconsole/pkg/parser"
	"github.com/ccollicutt/mmconsole/pkg/transport"
)

// Default values for configuration.
const (
	DefaultTransport      = transport.KindBluetooth
	DefaultLogLevel       = "info"
	DefaultTailCount      = 10
	DefaultSavePath       = "log.json"
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvTransport     = "MMCONSOLE_TRANSPORT"
	EnvBluetoothAddr = "MMCONSOLE_BT_ADDRESS"
	EnvSerialDevice  = "MMCONSOLE_SERIAL_DEVICE"
	EnvTCPAddress    = "MMCONSOLE_TCP_ADDRESS"
	EnvLogLevel      = "MMCONSOLE_LOG_LEVEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Type:           string(DefaultTransport),
			ReceiveTimeout: transport.DefaultReceiveTimeout,
			ReadSize:       transport.DefaultReadSize,
			Bluetooth: transport.BluetoothOptions{
				Address: transport.DefaultBluetoothAddress,
				Channel: transport.DefaultBluetoothChannel,
			},
			Serial: transport.SerialOptions{
				BaudRate: transport.DefaultBaudRate,
			},
			TCP: transport.TCPOptions{
				DialTimeout: transport.DefaultDialTimeout,
			},
		},
		Log: LogConfig{
			Level:       DefaultLogLevel,
			TailDefault: DefaultTailCount,
			SavePath:    DefaultSavePath,
		},
		Records: RecordsConfig{
			ErrorSeverity: parser.DefaultErrorSeverity,
		},
	}
}

// ApplyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvironmentOverrides() {
	if v := os.Getenv(EnvTransport); v != "" {
		c.Transport.Type = v
	}
	if v := os.Getenv(EnvBluetoothAddr); v != "" {
		c.Transport.Bluetooth.Address = v
	}
	if v := os.Getenv(EnvSerialDevice); v != "" {
		c.Transport.Serial.Device = v
	}
	if v := os.Getenv(EnvTCPAddress); v != "" {
		c.Transport.TCP.Address = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}
