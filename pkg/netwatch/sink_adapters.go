package netwatch

import (
	"errors"
	"fmt"
	"sync"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("netwatch: channel sink closed")

// MergedBatchFunc receives the merged rows appended in one cycle, oldest first.
type MergedBatchFunc func([]MergedRow) error

// NewCallbackSink adapts fn into a Sink so callers can mirror merged rows
// without defining a type.
func NewCallbackSink(name string, fn MergedBatchFunc) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes merged batches on a channel. It returns the sink, the
// receive side and a close function the caller invokes on shutdown.
func NewChannelSink(name string, buffer int) (Sink, <-chan []MergedRow, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []MergedRow, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, s.close
}

type callbackSink struct {
	name string
	fn   MergedBatchFunc
}

func (s *callbackSink) WriteBatch(rows []MergedRow) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if len(rows) == 0 {
		return nil
	}
	return s.fn(copyBatch(rows))
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	mu     sync.RWMutex
	ch     chan []MergedRow
	closed chan struct{}
	once   sync.Once
}

// WriteBatch blocks until the batch is received or the sink is closed; a
// blocked channel therefore stalls the merge cycle, so size the buffer.
func (s *channelSink) WriteBatch(rows []MergedRow) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}
	if len(rows) == 0 {
		return nil
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- copyBatch(rows):
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		// wait for in-flight writers before closing the data channel
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}

func copyBatch(rows []MergedRow) []MergedRow {
	out := make([]MergedRow, len(rows))
	copy(out, rows)
	return out
}
