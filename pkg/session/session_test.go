package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ccollicutt/mmconsole/pkg/config"
	"github.com/ccollicutt/mmconsole/pkg/parser"
	"github.com/ccollicutt/mmconsole/pkg/poller"
	"github.com/ccollicutt/mmconsole/pkg/transport"
)

// fakeLink feeds queued chunks to Receive and records sent bytes.
type fakeLink struct {
	chunks     chan []byte
	failAfter  chan error
	connectErr error
	sendErr    error

	mu     sync.Mutex
	sent   []string
	closed bool
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		chunks:    make(chan []byte, 16),
		failAfter: make(chan error, 1),
	}
}

func (f *fakeLink) Connect(context.Context) error { return f.connectErr }

func (f *fakeLink) Send(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, string(p))
	return f.sendErr
}

func (f *fakeLink) Receive() ([]byte, error) {
	select {
	case c := <-f.chunks:
		return c, nil
	case err := <-f.failAfter:
		return nil, err
	case <-time.After(time.Millisecond):
		return nil, transport.ErrTimeout
	}
}

func (f *fakeLink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeLink) sentCommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type sinkFunc func(line string)

func (f sinkFunc) RecordError(line parser.RawLine, _ parser.Record) { f(string(line)) }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Transport.Type = string(transport.KindTCP)
	cfg.Transport.TCP.Address = "robot:9000"
	return cfg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOpen_PollsIntoLog(t *testing.T) {
	link := newFakeLink()
	s, err := Open(context.Background(), testConfig(), "", WithTransport(link))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if s.Kind() != transport.KindTCP {
		t.Errorf("Kind() = %q, want tcp", s.Kind())
	}
	if s.Source() != "tcp robot:9000" {
		t.Errorf("Source() = %q", s.Source())
	}
	if s.ID() == "" {
		t.Error("ID() is empty")
	}

	link.chunks <- []byte("1.0,IMU,INFO,ok\n2.0,MOT")
	link.chunks <- []byte("OR,WARN,hot\n")
	waitFor(t, func() bool { return len(s.AllRecords()) == 2 })

	records := s.AllRecords()
	if records[1].Subsystem != "MOTOR" || records[1].Payload != "hot" {
		t.Errorf("records[1] = %+v", records[1])
	}
	raw := s.AllRawLines()
	if len(raw) != 2 || raw[0] != "1.0,IMU,INFO,ok" {
		t.Errorf("AllRawLines() = %v", raw)
	}
	if tail := s.Tail(1); len(tail) != 1 || tail[0].Payload != "hot" {
		t.Errorf("Tail(1) = %+v", tail)
	}
	if s.State() != poller.Polling {
		t.Errorf("State() = %v, want polling", s.State())
	}

	s.ClearLog()
	if n := len(s.AllRecords()); n != 0 {
		t.Errorf("AllRecords() after ClearLog = %d records", n)
	}
}

func TestOpen_ConnectFailure(t *testing.T) {
	link := newFakeLink()
	link.connectErr = &transport.ConnectionError{Kind: transport.KindTCP, Target: "robot:9000", Err: io.EOF}

	_, err := Open(context.Background(), testConfig(), "", WithTransport(link))
	var connErr *transport.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("Open() error = %v, want *ConnectionError", err)
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	if _, err := Open(context.Background(), testConfig(), "smoke-signal"); err == nil {
		t.Fatal("Open() with unknown kind succeeded")
	}
}

func TestSendCommandAndBattery(t *testing.T) {
	link := newFakeLink()
	s, err := Open(context.Background(), testConfig(), "", WithTransport(link))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	s.SendCommand("led on")
	s.BatteryVoltage()

	got := link.sentCommands()
	if len(got) != 2 || got[0] != "led on" || got[1] != "battery\x00" {
		t.Errorf("sent = %q", got)
	}
}

func TestSendCommand_FailureIsDiscarded(t *testing.T) {
	link := newFakeLink()
	link.sendErr = errors.New("radio busy")
	s, err := Open(context.Background(), testConfig(), "", WithTransport(link))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	s.BatteryVoltage()
	if s.Err() != nil {
		t.Errorf("Err() = %v after failed send", s.Err())
	}
	if s.State() != poller.Polling {
		t.Errorf("State() = %v, want polling", s.State())
	}
}

func TestSession_FatalReceiveError(t *testing.T) {
	link := newFakeLink()
	s, err := Open(context.Background(), testConfig(), "", WithTransport(link))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	link.chunks <- []byte("1,IMU,INFO,before\n")
	waitFor(t, func() bool { return len(s.AllRecords()) == 1 })
	link.failAfter <- io.ErrUnexpectedEOF

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop after receive failure")
	}

	var terr *poller.TransportError
	if !errors.As(s.Err(), &terr) || !errors.Is(s.Err(), io.ErrUnexpectedEOF) {
		t.Errorf("Err() = %v, want TransportError wrapping ErrUnexpectedEOF", s.Err())
	}
	if n := len(s.AllRecords()); n != 1 {
		t.Errorf("log lost records after failure: %d", n)
	}
}

func TestSession_ErrorSinks(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Webhooks = []config.WebhookConfig{{Name: "alerts", URL: server.URL}}

	var sinkMu sync.Mutex
	var seen []string
	sink := sinkFunc(func(line string) {
		sinkMu.Lock()
		seen = append(seen, line)
		sinkMu.Unlock()
	})

	link := newFakeLink()
	s, err := Open(context.Background(), cfg, "", WithTransport(link), WithErrorSink(sink))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	link.chunks <- []byte("1,IMU,INFO,fine\n2,MOTOR,ERROR,stall\n")
	waitFor(t, func() bool { return len(s.AllRecords()) == 2 })
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	sinkMu.Lock()
	if len(seen) != 1 || seen[0] != "2,MOTOR,ERROR,stall" {
		t.Errorf("sink saw %q", seen)
	}
	sinkMu.Unlock()

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 || !strings.Contains(bodies[0], `"payload":"stall"`) {
		t.Errorf("webhook bodies = %q", bodies)
	}
	if !strings.Contains(bodies[0], s.ID()) {
		t.Errorf("webhook body missing session id: %s", bodies[0])
	}
}

func TestSession_Report(t *testing.T) {
	link := newFakeLink()
	s, err := Open(context.Background(), testConfig(), "", WithTransport(link))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	link.chunks <- []byte("1,IMU,ERROR,a\nbad,line\n")
	waitFor(t, func() bool { return len(s.AllRecords()) == 2 })

	report := s.Report()
	if report.Summary.Records != 2 || report.Summary.Errors != 1 || report.Summary.Partial != 1 {
		t.Errorf("Summary = %+v", report.Summary)
	}
	if len(report.Raw) != 2 {
		t.Errorf("Raw = %v", report.Raw)
	}
	if report.Metadata.Session != s.ID() || report.Metadata.Source != "tcp robot:9000" {
		t.Errorf("Metadata = %+v", report.Metadata)
	}
}

func TestSession_CloseIdempotent(t *testing.T) {
	link := newFakeLink()
	s, err := Open(context.Background(), testConfig(), "", WithTransport(link))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if s.State() != poller.Stopped {
		t.Errorf("State() = %v, want stopped", s.State())
	}
	link.mu.Lock()
	defer link.mu.Unlock()
	if !link.closed {
		t.Error("transport not closed")
	}
}
