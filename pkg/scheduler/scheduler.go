package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type queue[T any] []T

func (q *queue[T]) Len() int { return len(*q) }

func (q *queue[T]) Pop() T {
	old := *q
	x := old[0]
	var zero T
	old[0] = zero
	*q = old[1:]
	return x
}

func (q *queue[T]) Push(t T) {
	*q = append(*q, t)
}

type request[T any] struct {
	fn     Work[T]
	c      chan Result[T]
	ctx    context.Context
	cancel context.CancelFunc
}

// Scheduler runs submitted work in the background, at most slots at a time.
// Work beyond that waits in a FIFO queue.
type Scheduler[T any] struct {
	slots      int
	idle       int
	pending    queue[request[T]]
	work       chan request[T]
	finished   chan struct{}
	closing    chan struct{}
	stopped    chan struct{}
	mainCtx    context.Context
	mainCancel context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
	log        *zap.SugaredLogger
}

// NewScheduler starts a scheduler with the given number of slots (at least one).
func NewScheduler[T any](slots int) *Scheduler[T] {
	slots = max(slots, 1)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler[T]{
		slots:      slots,
		idle:       slots,
		work:       make(chan request[T]),
		finished:   make(chan struct{}, slots),
		closing:    make(chan struct{}),
		stopped:    make(chan struct{}),
		mainCtx:    ctx,
		mainCancel: cancel,
		log:        zap.S().Named("scheduler"),
	}
	go s.run()
	return s
}

// AddWork queues w and returns its future. After Close the future carries
// context.Canceled and w never runs.
func (s *Scheduler[T]) AddWork(w Work[T]) *Future[T] {
	c := make(chan Result[T], 1)
	ctx, cancel := context.WithCancel(s.mainCtx)

	select {
	case <-s.mainCtx.Done():
		cancel()
		c <- Result[T]{Err: context.Canceled}
	case s.work <- request[T]{fn: w, c: c, ctx: ctx, cancel: cancel}:
	}

	return newFuture(c, cancel)
}

// Close cancels every work, queued or running, and waits for the running ones.
func (s *Scheduler[T]) Close() {
	s.once.Do(func() {
		s.mainCancel()
		close(s.closing)
		<-s.stopped
	})
}

func (s *Scheduler[T]) run() {
	defer close(s.stopped)
	for {
		select {
		case r := <-s.work:
			s.pending.Push(r)
			s.dispatch()
		case <-s.finished:
			s.idle++
			s.dispatch()
		case <-s.closing:
			for s.pending.Len() > 0 {
				r := s.pending.Pop()
				r.cancel()
				r.c <- Result[T]{Err: context.Canceled}
			}
			s.wg.Wait()
			return
		}
	}
}

// dispatch starts queued work while slots are free. Work stopped while
// queued is answered without running.
func (s *Scheduler[T]) dispatch() {
	for s.idle > 0 && s.pending.Len() > 0 {
		r := s.pending.Pop()
		if err := r.ctx.Err(); err != nil {
			r.c <- Result[T]{Err: err}
			continue
		}
		s.idle--
		s.wg.Add(1)
		go s.execute(r)
	}
	if s.pending.Len() > 0 {
		s.log.Debugw("work queued", "pending", s.pending.Len(), "slots", s.slots)
	}
}

func (s *Scheduler[T]) execute(r request[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Errorw("work panicked", "panic", rec)
			r.c <- Result[T]{Err: fmt.Errorf("work panicked: %v", rec)}
		}
		r.cancel()
		s.finished <- struct{}{}
		s.wg.Done()
	}()

	v, err := r.fn(r.ctx)
	r.c <- Result[T]{Data: v, Err: err}
}
