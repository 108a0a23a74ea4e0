// Package logstore keeps the session's received lines and their records.
//
// A single owner goroutine holds both sequences and serves every request over a
// channel. Appends for one poll cycle arrive as one request, so a reader or a
// Clear never lands between a raw line and its record, or between two lines of
// the same cycle.
package logstore

import (
	"sync"

	"github.com/ccollicutt/mmconsole/pkg/parser"
)

// Entry pairs a raw line with the record classified from it.
type Entry struct {
	Raw    parser.RawLine
	Record parser.Record
}

type opKind int

const (
	opAppend opKind = iota
	opRecords
	opRawLines
	opTail
	opLen
	opClear
	opSnapshot
)

type request struct {
	kind    opKind
	entries []Entry
	n       int
	reply   chan response
}

type response struct {
	records []parser.Record
	raw     []parser.RawLine
	n       int
}

// Store is an append-only log of entries owned by one goroutine.
type Store struct {
	reqs chan request
	done chan struct{}
	once sync.Once
}

// New creates an empty store and starts its owner goroutine.
// Call Close to stop it.
func New() *Store {
	s := &Store{
		reqs: make(chan request),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Store) run() {
	var (
		raw     []parser.RawLine
		records []parser.Record
	)

	for {
		select {
		case <-s.done:
			return
		case req := <-s.reqs:
			var resp response
			switch req.kind {
			case opAppend:
				for _, e := range req.entries {
					raw = append(raw, e.Raw)
					records = append(records, e.Record)
				}
				resp.n = len(records)
			case opRecords:
				resp.records = append([]parser.Record(nil), records...)
			case opRawLines:
				resp.raw = append([]parser.RawLine(nil), raw...)
			case opTail:
				resp.records = tail(records, req.n)
			case opLen:
				resp.n = len(records)
			case opClear:
				raw, records = nil, nil
			case opSnapshot:
				resp.records = append([]parser.Record(nil), records...)
				resp.raw = append([]parser.RawLine(nil), raw...)
			}
			if req.reply != nil {
				req.reply <- resp
			}
		}
	}
}

func tail(records []parser.Record, n int) []parser.Record {
	if n <= 0 {
		return []parser.Record{}
	}
	if n > len(records) {
		n = len(records)
	}
	return append([]parser.Record{}, records[len(records)-n:]...)
}

// do sends a request to the owner goroutine and waits for the reply.
// After Close it returns a zero response.
func (s *Store) do(req request) response {
	req.reply = make(chan response, 1)
	select {
	case s.reqs <- req:
	case <-s.done:
		return response{}
	}
	return <-req.reply
}

// Append adds entries in order as one atomic step and returns the new length.
func (s *Store) Append(entries ...Entry) int {
	if len(entries) == 0 {
		return s.Len()
	}
	return s.do(request{kind: opAppend, entries: entries}).n
}

// AllRecords returns a copy of every record in arrival order.
func (s *Store) AllRecords() []parser.Record {
	return s.do(request{kind: opRecords}).records
}

// AllRawLines returns a copy of every raw line in arrival order.
func (s *Store) AllRawLines() []parser.RawLine {
	return s.do(request{kind: opRawLines}).raw
}

// Snapshot returns copies of both sequences taken in one step, so they
// always have the same length.
func (s *Store) Snapshot() ([]parser.Record, []parser.RawLine) {
	resp := s.do(request{kind: opSnapshot})
	return resp.records, resp.raw
}

// Tail returns the last n records in arrival order. It returns every record
// when n exceeds the length and an empty slice when n <= 0.
func (s *Store) Tail(n int) []parser.Record {
	records := s.do(request{kind: opTail, n: n}).records
	if records == nil {
		return []parser.Record{}
	}
	return records
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return s.do(request{kind: opLen}).n
}

// Clear empties the store.
func (s *Store) Clear() {
	s.do(request{kind: opClear})
}

// Close stops the owner goroutine. Later calls read as empty and drop writes.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}
