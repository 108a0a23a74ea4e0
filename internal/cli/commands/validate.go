package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/mmconsole/pkg/config"
	"github.com/ccollicutt/mmconsole/pkg/transport"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate an mmconsole configuration file without connecting.

Checks:
  - YAML syntax
  - Transport type and per-transport settings
  - Log level, tail count and save path
  - Webhook URLs
  - Serial device existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(out, "Validating %s...\n", configPath)

	// Load and validate config
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tc := &cfg.Transport
	_, _ = fmt.Fprintf(out, "\nConfiguration valid!\n")
	_, _ = fmt.Fprintf(out, "  Transport:       %s\n", tc.Type)
	_, _ = fmt.Fprintf(out, "  Receive timeout: %s\n", tc.ReceiveTimeout)
	_, _ = fmt.Fprintf(out, "  Read size:       %d bytes\n", tc.ReadSize)
	_, _ = fmt.Fprintf(out, "  Error severity:  %s\n", cfg.Records.ErrorSeverity)
	_, _ = fmt.Fprintf(out, "  Log tail:        %d\n", cfg.Log.TailDefault)
	_, _ = fmt.Fprintf(out, "  Log save path:   %s\n", cfg.Log.SavePath)

	_, _ = fmt.Fprintf(out, "\nLinks:\n")
	for _, kind := range transport.Kinds {
		target := tc.Options(kind).Target()
		if target == "" {
			target = "(not configured)"
		}
		_, _ = fmt.Fprintf(out, "  %-9s %s\n", kind, target)
	}

	if len(cfg.Webhooks) > 0 {
		_, _ = fmt.Fprintf(out, "\nWebhooks:\n")
		for i := range cfg.Webhooks {
			wh := &cfg.Webhooks[i]
			_, _ = fmt.Fprintf(out, "  %d. %s (timeout %s)\n", i+1, wh.DisplayName(), wh.Timeout)
		}
	}

	// Check the serial device exists (warning only)
	if dev := tc.Serial.Device; dev != "" {
		if _, err := os.Stat(dev); err != nil {
			_, _ = fmt.Fprintf(out, "\nWarning: serial device %s: %v\n", dev, err)
		}
	}

	return nil
}
