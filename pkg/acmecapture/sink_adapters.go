package acmecapture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ptitiano/acme-utils/internal/domain"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after
// being closed.
var ErrChannelSinkClosed = errors.New("acmecapture: channel sink closed")

// ResultsFunc receives the reduced results of one capture run.
type ResultsFunc func([]*Reduced) error

// NewCallbackSink adapts a plain function into a ResultSink so callers can
// consume results without defining structs.
func NewCallbackSink(name string, fn ResultsFunc) ResultSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes results via a channel; it returns the sink, the
// read-only channel, and a close function for shutdown.
func NewChannelSink(name string, buffer int) (ResultSink, <-chan []*Reduced, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []*Reduced, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   ResultsFunc
}

func (s *callbackSink) WriteResults(results []*domain.Reduced) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if len(results) == 0 {
		return nil
	}
	return s.fn(results)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan []*Reduced
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) WriteResults(results []*domain.Reduced) error {
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if len(results) == 0 {
		return nil
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- results:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}
