package master

import "sync"

// resultSink serializes the calls to the result consumer. It is the only
// synchronization point for whatever state the consumer accumulates into.
type resultSink[R any] struct {
	mu      sync.Mutex
	consume ResultFunc[R]
}

func newResultSink[R any](consume ResultFunc[R]) *resultSink[R] {
	return &resultSink[R]{consume: consume}
}

func (s *resultSink[R]) submit(result R) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return safely("result consumer", func() error {
		s.consume(result)
		return nil
	})
}
