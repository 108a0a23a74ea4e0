// Package cli provides the command-line interface for mmconsole.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/mmconsole/internal/cli/commands"
	"github.com/ccollicutt/mmconsole/internal/console"
	"github.com/ccollicutt/mmconsole/internal/logging"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "mmconsole",
		Short: "Remote console for the robot",
		Long: `mmconsole connects to the robot over Bluetooth, a serial port or TCP and
collects the telemetry it streams while you issue commands.

Console commands:
  connect <bluetooth|serial|tcp>     Open a link (default from the config)
  battery                            Request a battery voltage reading
  log [all|raw|clear|save [file]|N]  Show, clear or save the received log
  status                             Show the link state and counters
  clear                              Clear the screen
  help, exit

Run without a subcommand to start the console.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, global)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&global.ConfigPath, "config", "c", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&global.LogLevel, "log-level", "", "Diagnostic log level (trace|debug|info|warn|error|disabled)")

	// Add subcommands
	rootCmd.AddCommand(commands.NewReplayCommand(global))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}

func runConsole(cmd *cobra.Command, global *commands.GlobalOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := global.LoadConfig(ctx)
	if err != nil {
		return err
	}
	level := global.Level(cfg)

	if in, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(in.Fd()) {
		t, err := console.OpenTerminal(in, cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("opening terminal: %w", err)
		}
		defer func() { _ = t.Close() }()

		c := console.New(cfg, t, console.WithLogger(logging.New(t, level)))
		defer func() { _ = c.Close() }()
		return c.RunTerminal(ctx, t)
	}

	c := console.New(cfg, cmd.OutOrStdout(), console.WithLogger(logging.Init(level)))
	defer func() { _ = c.Close() }()
	return c.Run(ctx, cmd.InOrStdin())
}
