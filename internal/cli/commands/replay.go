package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/mmconsole/internal/logging"
	"github.com/ccollicutt/mmconsole/pkg/logstore"
	"github.com/ccollicutt/mmconsole/pkg/output"
	"github.com/ccollicutt/mmconsole/pkg/parser"
	"github.com/ccollicutt/mmconsole/pkg/poller"
	"github.com/ccollicutt/mmconsole/pkg/transport"
	"github.com/ccollicutt/mmconsole/pkg/webhook"
)

// ReplayOptions holds command-line options for the replay command.
type ReplayOptions struct {
	Output    string
	ChunkSize int
	Tail      int
	Raw       bool
	Verbose   bool
	Quiet     bool
	Notify    bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(global *GlobalOptions) *cobra.Command {
	opts := &ReplayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <capture-file>...",
		Short: "Replay captured telemetry through the log pipeline",
		Long: `Replay raw byte captures of the robot link through the same reassembly,
classification and log store used by a live session, then print the log.

Capture files are read in sorted order as one continuous stream, in chunks of
--chunk-size bytes. Glob patterns are expanded.

Exit codes:
  0 - No error records
  1 - Error records present
  2 - Configuration or runtime error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, args, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVar(&opts.ChunkSize, "chunk-size", transport.DefaultReadSize, "Bytes delivered per receive")
	cmd.Flags().IntVarP(&opts.Tail, "tail", "n", 0, "Show only the last N records (0 shows all)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "Print raw lines instead of records")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Append the summary")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no records")
	cmd.Flags().BoolVar(&opts.Notify, "notify", false, "Post error records to the configured webhooks")

	return cmd
}

func runReplay(cmd *cobra.Command, args []string, global *GlobalOptions, opts *ReplayOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.ChunkSize <= 0 {
		return fmt.Errorf("invalid chunk-size %d: must be positive", opts.ChunkSize)
	}
	if opts.Tail < 0 {
		return fmt.Errorf("invalid tail %d: must not be negative", opts.Tail)
	}

	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
		Raw:     opts.Raw,
	})
	if err != nil {
		return err
	}

	cfg, err := global.LoadConfig(ctx)
	if err != nil {
		return err
	}
	logger := logging.Init(global.Level(cfg))

	files, err := parser.ExpandCaptures(args)
	if err != nil {
		return fmt.Errorf("expanding capture files: %w", err)
	}

	readers := make([]io.Reader, 0, len(files))
	for _, path := range files {
		f, err := os.Open(path) // #nosec G304 -- user-provided capture path is expected
		if err != nil {
			return fmt.Errorf("opening capture: %w", err)
		}
		defer f.Close()
		readers = append(readers, f)
	}

	classifierOpts := []parser.ClassifierOption{parser.WithErrorSeverity(cfg.Records.ErrorSeverity)}
	if opts.Notify && len(cfg.Webhooks) > 0 {
		notifier := webhook.NewNotifier(webhook.TargetsFromConfig(cfg.Webhooks),
			webhook.WithLogger(logger),
			webhook.WithSession("", "replay "+strings.Join(files, ",")))
		defer notifier.Close()
		classifierOpts = append(classifierOpts, parser.WithErrorSink(notifier))
	}

	store := logstore.New()
	defer store.Close()

	link := transport.NewCapture(io.MultiReader(readers...), opts.ChunkSize)
	p := poller.New(link, store,
		poller.WithClassifier(parser.NewClassifier(classifierOpts...)),
		poller.WithLogger(logger))

	if err := drain(ctx, p); err != nil {
		return err
	}
	if pending := p.Pending(); pending != "" {
		logger.Warn().Str("fragment", pending).Msg("capture ends inside a line; fragment dropped")
	}

	records, raw := store.Snapshot()
	if opts.Tail > 0 && opts.Tail < len(records) {
		records = records[len(records)-opts.Tail:]
		raw = raw[len(raw)-opts.Tail:]
	}

	report := output.NewReport(records, raw, cfg.Records.ErrorSeverity)
	report.Metadata.Source = strings.Join(files, ",")

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	stats := p.Stats()
	logger.Debug().
		Int("chunks", stats.Chunks).
		Int("bytes", stats.Bytes).
		Int("lines", stats.Lines).
		Int("malformed", stats.Malformed).
		Msg("replay finished")

	// Set exit code based on results
	if report.HasErrors() {
		ExitCode = 1
	}

	return nil
}

// drain polls until the capture is exhausted.
func drain(ctx context.Context, p *poller.Poller) error {
	for {
		_, err := p.Poll(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("replay failed: %w", err)
	}
}
