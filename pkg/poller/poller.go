// Package poller drains a transport into a log store.
//
// A Poller runs one receive, reassemble, classify and append cycle at a time
// and starts the next cycle as soon as the previous one returns. A slow link
// therefore only delays the next cycle. Receive timeouts are not errors; any
// other receive failure ends polling.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/mmconsole/pkg/logstore"
	"github.com/ccollicutt/mmconsole/pkg/parser"
	"github.com/ccollicutt/mmconsole/pkg/transport"
)

// State is the poller lifecycle state.
type State int

const (
	// Idle means no polling loop has been started.
	Idle State = iota
	// Polling means the receive loop is scheduled. It is left only when the
	// loop stops on cancellation or a fatal error.
	Polling
	// Stopped means the loop has ended.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrAlreadyPolling is returned by Start when the loop was already started.
var ErrAlreadyPolling = errors.New("poller already started")

// TransportError wraps a fatal receive failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Stats counts received data. Receive timeouts are not counted.
type Stats struct {
	Chunks    int
	Bytes     int
	Lines     int
	Malformed int
}

// Poller owns the reassembler's pending fragment and is the only writer of
// its store.
type Poller struct {
	transport   transport.Transport
	store       *logstore.Store
	classifier  *parser.Classifier
	reassembler *parser.Reassembler
	logger      zerolog.Logger

	// cycle serializes Poll so cycles never overlap.
	cycle sync.Mutex

	mu    sync.Mutex
	state State
	stats Stats
	err   error
	done  chan struct{}
}

// Option configures a Poller.
type Option func(*Poller)

// WithClassifier replaces the default classifier.
func WithClassifier(c *parser.Classifier) Option {
	return func(p *Poller) {
		p.classifier = c
	}
}

// WithLogger sets the logger used for cycle diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = l
	}
}

// New creates an idle poller reading from t into store.
func New(t transport.Transport, store *logstore.Store, opts ...Option) *Poller {
	p := &Poller{
		transport:   t,
		store:       store,
		classifier:  parser.NewClassifier(),
		reassembler: parser.NewReassembler(),
		logger:      zerolog.Nop(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll runs a single cycle and returns the number of lines it completed.
// A receive timeout returns 0 and nil without touching any state. Any other
// receive failure is returned as *TransportError.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	p.cycle.Lock()
	defer p.cycle.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	chunk, err := p.transport.Receive()
	if errors.Is(err, transport.ErrTimeout) {
		return 0, nil
	}
	if err != nil {
		return 0, &TransportError{Err: err}
	}

	lines := p.reassembler.Feed(chunk)
	entries := make([]logstore.Entry, 0, len(lines))
	malformed := 0
	for _, line := range lines {
		rec, err := p.classifier.Classify(line)
		var bad *parser.MalformedRecordError
		if errors.As(err, &bad) {
			malformed++
			p.logger.Debug().Str("line", bad.Line).Int("fields", bad.Fields).Msg("malformed record kept as partial")
		}
		entries = append(entries, logstore.Entry{Raw: parser.Clean(line), Record: rec})
	}
	if len(entries) > 0 {
		p.store.Append(entries...)
	}

	p.mu.Lock()
	p.stats.Chunks++
	p.stats.Bytes += len(chunk)
	p.stats.Lines += len(entries)
	p.stats.Malformed += malformed
	p.mu.Unlock()

	return len(entries), nil
}

// Start moves the poller from Idle to Polling and runs the loop in a new
// goroutine until ctx is cancelled or a cycle fails. Cancellation takes
// effect once the current cycle returns.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Idle {
		p.mu.Unlock()
		return ErrAlreadyPolling
	}
	p.state = Polling
	p.mu.Unlock()

	p.logger.Debug().Msg("polling started")
	go p.loop(ctx)
	return nil
}

func (p *Poller) loop(ctx context.Context) {
	var err error
	for err == nil {
		if ctx.Err() != nil {
			break
		}
		_, err = p.Poll(ctx)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	p.mu.Lock()
	p.state = Stopped
	p.err = err
	p.mu.Unlock()

	if err != nil {
		p.logger.Error().Err(err).Msg("polling stopped")
	} else {
		p.logger.Debug().Msg("polling stopped")
	}
	close(p.done)
}

// Done is closed when the polling loop has ended.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the loop ends and returns its fatal error, if any.
// Wait must only be called after Start.
func (p *Poller) Wait() error {
	<-p.done
	return p.Err()
}

// Err returns the fatal error that ended the loop, or nil.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Stats returns a snapshot of the counters.
func (p *Poller) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Pending returns the fragment awaiting its terminator, once any running
// cycle has finished.
func (p *Poller) Pending() string {
	p.cycle.Lock()
	defer p.cycle.Unlock()
	return p.reassembler.Pending()
}
