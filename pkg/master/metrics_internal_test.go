package master

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = Describe("Metrics", func() {
	var (
		reg     *prometheus.Registry
		metrics *Metrics
	)

	BeforeEach(func() {
		reg = prometheus.NewRegistry()

		var err error
		metrics, err = NewMetrics("test", reg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reuse collectors already registered", func() {
		again, err := NewMetrics("test", reg)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.tasks).To(BeIdenticalTo(metrics.tasks))
	})

	It("should be safe to use when nil", func() {
		var m *Metrics
		Expect(func() {
			m.workerStarted("x")
			m.taskDone("x", 0, nil)
			m.runFinished("x", nil)
		}).NotTo(Panic())
	})

	It("should count tasks, workers and outcomes", func() {
		next := 0
		m := New[int, int, struct{}](WithName("counted"), WithMetrics(metrics))
		Expect(m.SetJob(Job[int, int, struct{}]{
			ProvideTask: func() (int, error) {
				if next == 40 {
					return 0, ErrNoMoreTasks
				}
				next++
				return next, nil
			},
			Work: func(i int, _ struct{}) (int, error) {
				if i == 40 {
					return 0, errors.New("last one fails")
				}
				return i, nil
			},
			ConsumeResult: func(int) {},
		})).To(Succeed())
		Expect(m.CreateWorkers(1)).To(Succeed())
		Expect(testutil.ToFloat64(metrics.liveWorkers.WithLabelValues("counted"))).To(Equal(1.0))

		Expect(m.ManageTasks(context.Background())).To(HaveOccurred())
		m.Close()

		Expect(testutil.ToFloat64(metrics.tasks.WithLabelValues("counted", "success"))).To(Equal(39.0))
		Expect(testutil.ToFloat64(metrics.tasks.WithLabelValues("counted", "error"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.runs.WithLabelValues("counted", "failed"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.failures.WithLabelValues("counted"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.liveWorkers.WithLabelValues("counted"))).To(Equal(0.0))
	})
})

var _ = Describe("taskQueue", func() {
	It("should stop calling the provider once it is exhausted", func() {
		calls := 0
		q := newTaskQueue(func() (int, error) {
			calls++
			return 0, ErrNoMoreTasks
		})

		_, state, err := q.next()
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(Equal(pollEnd))

		_, state, _ = q.next()
		Expect(state).To(Equal(pollEnd))
		Expect(calls).To(Equal(1))
	})

	It("should classify try-again according to the tasks in flight", func() {
		tasks := []error{nil, ErrTryAgain, ErrTryAgain}
		q := newTaskQueue(func() (int, error) {
			err := tasks[0]
			tasks = tasks[1:]
			return 7, err
		})

		task, state, _ := q.next()
		Expect(state).To(Equal(pollTask))
		Expect(task).To(Equal(7))

		_, state, _ = q.next()
		Expect(state).To(Equal(pollTryAgain))

		q.done()
		_, state, err := q.next()
		Expect(state).To(Equal(pollFailed))
		Expect(err).To(MatchError(ErrStalled))
	})

	It("should recover from a panicking provider", func() {
		q := newTaskQueue(func() (int, error) {
			panic("boom")
		})

		_, state, err := q.next()
		Expect(state).To(Equal(pollFailed))
		Expect(err).To(MatchError(ContainSubstring("task provider panicked")))
	})
})
