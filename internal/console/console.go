// Package console implements the interactive command shell.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/mmconsole/pkg/config"
	"github.com/ccollicutt/mmconsole/pkg/output"
	"github.com/ccollicutt/mmconsole/pkg/parser"
	"github.com/ccollicutt/mmconsole/pkg/poller"
	"github.com/ccollicutt/mmconsole/pkg/session"
	"github.com/ccollicutt/mmconsole/pkg/transport"
)

// Prompt is shown before every command.
const Prompt = ">>> "

// Session is the part of a session the console drives.
type Session interface {
	ID() string
	Source() string
	StartedAt() time.Time
	AllRecords() []parser.Record
	AllRawLines() []parser.RawLine
	Tail(n int) []parser.Record
	ClearLog()
	Report() *output.Report
	BatteryVoltage()
	State() poller.State
	Stats() poller.Stats
	Done() <-chan struct{}
	Err() error
	Close() error
}

// Opener connects a new session over the given transport kind.
type Opener func(ctx context.Context, kind transport.Kind) (Session, error)

// Console interprets one command line at a time. It is not safe for
// concurrent use.
type Console struct {
	cfg    *config.Config
	out    io.Writer
	open   Opener
	logger zerolog.Logger

	session Session
}

// Option configures a Console.
type Option func(*Console)

// WithOpener replaces how sessions are opened.
func WithOpener(open Opener) Option {
	return func(c *Console) { c.open = open }
}

// WithLogger sets the logger handed to new sessions.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Console) { c.logger = l }
}

// New creates a console writing its output to out.
func New(cfg *config.Config, out io.Writer, opts ...Option) *Console {
	c := &Console{
		cfg:    cfg,
		out:    out,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.open == nil {
		c.open = c.openSession
	}
	return c
}

func (c *Console) openSession(ctx context.Context, kind transport.Kind) (Session, error) {
	s, err := session.Open(ctx, c.cfg, kind, session.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Execute runs one command line and reports whether the shell should exit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	c.reap()

	name, arg := splitCommand(line)
	if name == "" {
		return false
	}

	cmd, ok := lookup(name)
	if !ok {
		c.printf("*** Unknown syntax: %s\n", strings.TrimSpace(line))
		return false
	}
	exit := cmd.run(c, ctx, arg)
	c.reap()
	return exit
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	name, arg, _ := strings.Cut(line, " ")
	return name, strings.TrimSpace(arg)
}

// reap drops a session whose polling stopped, printing its error once.
func (c *Console) reap() {
	if c.session == nil {
		return
	}
	select {
	case <-c.session.Done():
	default:
		return
	}

	if err := c.session.Err(); err != nil {
		c.printf("Connection lost: %v\n", err)
	} else {
		c.printf("Connection closed.\n")
	}
	if err := c.session.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("closing dead session")
	}
	c.session = nil
}

// Run reads commands from in until EOF, exit or ctx cancellation, printing
// the prompt before each one.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		c.printf("%s", Prompt)
		select {
		case <-ctx.Done():
			c.printf("\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				c.printf("\n")
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			if c.Execute(ctx, line) {
				return nil
			}
		}
	}
}

// Close ends the current session, if any.
func (c *Console) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
