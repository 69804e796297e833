package workload

import (
	"math/bits"

	"github.com/kubev2v/taskmaster/pkg/master"
)

// MaxSumSize is the largest size whose sum of [0, size) fits in a uint64.
const MaxSumSize uint64 = 6074001000

// Span is the half-open range [From, To).
type Span struct {
	From uint64
	To   uint64
}

// Sum adds up the integers of [0, size) in chunks.
type Sum struct {
	size  uint64
	chunk uint64
	next  uint64
	total uint64
	tasks int
}

// NewSum creates the sum of [0, size) split in chunks of chunk numbers.
// A zero chunk is treated as 1.
func NewSum(size, chunk uint64) *Sum {
	return &Sum{size: size, chunk: max(chunk, 1)}
}

// Job returns the callbacks of the computation.
func (s *Sum) Job() master.Job[Span, uint64, struct{}] {
	return master.Job[Span, uint64, struct{}]{
		ProvideTask:   s.provide,
		Work:          sumWorker,
		ConsumeResult: s.consume,
	}
}

func (s *Sum) provide() (Span, error) {
	if s.next >= s.size {
		return Span{}, master.ErrNoMoreTasks
	}
	span := Span{From: s.next, To: min(s.next+s.chunk, s.size)}
	s.next = span.To
	s.tasks++
	return span, nil
}

func (s *Sum) consume(partial uint64) {
	s.total += partial
}

func sumWorker(span Span, _ struct{}) (uint64, error) {
	var sum uint64
	for i := span.From; i < span.To; i++ {
		sum += i
	}
	return sum, nil
}

// Total returns the sum of the results consumed so far.
func (s *Sum) Total() uint64 {
	return s.total
}

// Tasks returns the number of tasks handed out so far.
func (s *Sum) Tasks() int {
	return s.tasks
}

// SumFits reports whether the sum of [0, size) fits in a uint64. Partial sums
// and the total never wrap when it does.
func SumFits(size uint64) bool {
	if size < 2 {
		return true
	}
	// size*(size-1) is even, its half fits when the product is below 2^65
	hi, _ := bits.Mul64(size, size-1)
	return hi < 2
}

// Expected returns the closed form of the sum. It is only exact when
// SumFits(size) holds.
func (s *Sum) Expected() uint64 {
	if s.size == 0 {
		return 0
	}
	// one of size and size-1 is even
	if s.size%2 == 0 {
		return s.size / 2 * (s.size - 1)
	}
	return (s.size - 1) / 2 * s.size
}
