package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/mmconsole/pkg/config"
	"github.com/ccollicutt/mmconsole/pkg/parser"
)

// DefaultQueueSize bounds the events waiting to be posted.
const DefaultQueueSize = 64

// Target is one endpoint a Notifier posts to.
type Target struct {
	Name string
	SendOptions
}

// TargetsFromConfig converts configured webhooks into targets.
func TargetsFromConfig(hooks []config.WebhookConfig) []Target {
	targets := make([]Target, 0, len(hooks))
	for i := range hooks {
		targets = append(targets, Target{
			Name: hooks[i].DisplayName(),
			SendOptions: SendOptions{
				URL:     hooks[i].URL,
				Token:   hooks[i].Token,
				Timeout: hooks[i].Timeout,
			},
		})
	}
	return targets
}

// Notifier is a parser.ErrorSink that posts error records to webhook
// targets from its own goroutine. RecordError never blocks: when the queue
// is full the event is dropped and logged.
type Notifier struct {
	client  *Client
	targets []Target
	session string
	source  string
	logger  zerolog.Logger

	queue chan *Event
	wg    sync.WaitGroup
	once  sync.Once
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithLogger sets the logger for delivery results.
func WithLogger(l zerolog.Logger) NotifierOption {
	return func(n *Notifier) { n.logger = l }
}

// WithQueueSize changes how many events may wait for delivery.
func WithQueueSize(size int) NotifierOption {
	return func(n *Notifier) {
		if size > 0 {
			n.queue = make(chan *Event, size)
		}
	}
}

// WithSession tags events with a session id and source description.
func WithSession(session, source string) NotifierOption {
	return func(n *Notifier) {
		n.session = session
		n.source = source
	}
}

// WithClient replaces the HTTP client wrapper.
func WithClient(c *Client) NotifierOption {
	return func(n *Notifier) { n.client = c }
}

// NewNotifier starts a notifier delivering to targets. Close stops it.
func NewNotifier(targets []Target, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		client:  NewClient(),
		targets: targets,
		logger:  zerolog.Nop(),
		queue:   make(chan *Event, DefaultQueueSize),
	}
	for _, opt := range opts {
		opt(n)
	}

	n.wg.Add(1)
	go n.run()
	return n
}

// RecordError queues an event for the record.
func (n *Notifier) RecordError(line parser.RawLine, rec parser.Record) {
	event := &Event{
		Session:    n.session,
		Source:     n.source,
		Raw:        line,
		Record:     rec,
		ReceivedAt: time.Now(),
	}
	select {
	case n.queue <- event:
	default:
		n.logger.Warn().Str("line", string(line)).Msg("webhook queue full, dropping error record")
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for event := range n.queue {
		for _, target := range n.targets {
			resp := n.client.Send(context.Background(), event, target.SendOptions)
			if resp.Success() {
				n.logger.Debug().Str("webhook", target.Name).Int("status", resp.StatusCode).
					Dur("took", resp.Duration).Msg("error record delivered")
				continue
			}
			n.logger.Warn().Str("webhook", target.Name).Err(resp.Error).Msg("error record delivery failed")
		}
	}
}

// Close delivers queued events and stops the notifier. RecordError must
// not be called after Close.
func (n *Notifier) Close() {
	n.once.Do(func() { close(n.queue) })
	n.wg.Wait()
}
