// Package session binds a transport, a log store and a poller into one
// console session and exposes the query interface the console uses.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccollicutt/mmconsole/pkg/config"
	"github.com/ccollicutt/mmconsole/pkg/logstore"
	"github.com/ccollicutt/mmconsole/pkg/output"
	"github.com/ccollicutt/mmconsole/pkg/parser"
	"github.com/ccollicutt/mmconsole/pkg/poller"
	"github.com/ccollicutt/mmconsole/pkg/transport"
	"github.com/ccollicutt/mmconsole/pkg/webhook"
)

// BatteryCommand asks the robot for a battery voltage reading. The reading
// arrives later as an ordinary record.
const BatteryCommand = "battery\x00"

// Session is one connection to the robot and the log gathered over it.
type Session struct {
	id     string
	kind   transport.Kind
	target string
	logger zerolog.Logger

	transport transport.Transport
	store     *logstore.Store
	poller    *poller.Poller
	notifier  *webhook.Notifier

	errorSeverity string
	startedAt     time.Time

	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

type options struct {
	transport transport.Transport
	logger    zerolog.Logger
	sinks     []parser.ErrorSink
}

// Option configures Open.
type Option func(*options)

// WithTransport uses t instead of building one from the configuration.
func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithErrorSink adds a sink notified for every error record.
func WithErrorSink(sink parser.ErrorSink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sink) }
}

// Open connects the transport of the given kind and starts polling it.
// An empty kind uses the configured default. ctx bounds only the connect;
// polling runs until Close.
func Open(ctx context.Context, cfg *config.Config, kind transport.Kind, opts ...Option) (*Session, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	topts := cfg.Transport.Options(kind)
	t := o.transport
	if t == nil {
		var err error
		t, err = transport.New(topts)
		if err != nil {
			return nil, err
		}
	}

	s := &Session{
		id:            uuid.NewString(),
		kind:          topts.Kind,
		target:        topts.Target(),
		transport:     t,
		errorSeverity: cfg.Records.ErrorSeverity,
	}
	s.logger = o.logger.With().
		Str("session", s.id).
		Str("transport", string(s.kind)).
		Logger()

	s.logger.Debug().Str("target", s.target).Msg("connecting")
	if err := t.Connect(ctx); err != nil {
		return nil, err
	}
	s.logger.Info().Str("target", s.target).Msg("connected")

	sinks := append([]parser.ErrorSink{parser.ErrorSinkFunc(s.logErrorRecord)}, o.sinks...)
	if len(cfg.Webhooks) > 0 {
		s.notifier = webhook.NewNotifier(webhook.TargetsFromConfig(cfg.Webhooks),
			webhook.WithLogger(s.logger),
			webhook.WithSession(s.id, s.Source()))
		sinks = append(sinks, s.notifier)
	}

	classifier := parser.NewClassifier(
		parser.WithErrorSeverity(cfg.Records.ErrorSeverity),
		parser.WithErrorSink(parser.MultiSink(sinks)),
	)

	s.store = logstore.New()
	s.poller = poller.New(t, s.store,
		poller.WithClassifier(classifier),
		poller.WithLogger(s.logger))

	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.startedAt = time.Now()
	if err := s.poller.Start(pollCtx); err != nil {
		cancel()
		_ = s.release()
		return nil, err
	}
	return s, nil
}

func (s *Session) logErrorRecord(_ parser.RawLine, rec parser.Record) {
	s.logger.Warn().
		Str("subsystem", rec.Subsystem).
		Str("timestamp", rec.Timestamp.String()).
		Str("payload", rec.Payload).
		Msg("robot reported error")
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Kind returns the transport kind.
func (s *Session) Kind() transport.Kind { return s.kind }

// Source describes the link, e.g. "tcp localhost:9000".
func (s *Session) Source() string {
	if s.target == "" {
		return string(s.kind)
	}
	return fmt.Sprintf("%s %s", s.kind, s.target)
}

// StartedAt returns when polling began.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// AllRecords returns every record received so far.
func (s *Session) AllRecords() []parser.Record {
	return s.store.AllRecords()
}

// AllRawLines returns every raw line received so far.
func (s *Session) AllRawLines() []parser.RawLine {
	return s.store.AllRawLines()
}

// Tail returns the last n records.
func (s *Session) Tail(n int) []parser.Record {
	return s.store.Tail(n)
}

// ClearLog empties the log. Polling continues.
func (s *Session) ClearLog() {
	s.store.Clear()
	s.logger.Debug().Msg("log cleared")
}

// Report snapshots the log for export.
func (s *Session) Report() *output.Report {
	records, raw := s.store.Snapshot()
	report := output.NewReport(records, raw, s.errorSeverity)
	report.Metadata.Session = s.id
	report.Metadata.Source = s.Source()
	return report
}

// SendCommand forwards text to the robot. Send failures are logged and
// otherwise ignored; a broken link surfaces through the poller.
func (s *Session) SendCommand(text string) {
	if err := s.transport.Send([]byte(text)); err != nil {
		s.logger.Debug().Err(err).Str("command", text).Msg("send failed")
	}
}

// BatteryVoltage requests a battery voltage reading.
func (s *Session) BatteryVoltage() {
	s.SendCommand(BatteryCommand)
}

// State returns the poller state.
func (s *Session) State() poller.State { return s.poller.State() }

// Stats returns the poller counters.
func (s *Session) Stats() poller.Stats { return s.poller.Stats() }

// Done is closed when polling has stopped.
func (s *Session) Done() <-chan struct{} { return s.poller.Done() }

// Err returns the fatal error that stopped polling, or nil.
func (s *Session) Err() error { return s.poller.Err() }

// Close stops polling, waits for the current cycle and releases the
// transport. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.poller.Done()
		s.closeErr = s.release()
		s.logger.Info().Msg("session closed")
	})
	return s.closeErr
}

func (s *Session) release() error {
	err := s.transport.Close()
	if s.notifier != nil {
		s.notifier.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
	if err != nil {
		return fmt.Errorf("closing %s: %w", s.kind, err)
	}
	return nil
}
