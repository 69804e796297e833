package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/taskmaster/internal/models"
	"github.com/kubev2v/taskmaster/internal/store"
	"github.com/kubev2v/taskmaster/internal/store/migrations"
	srvErrors "github.com/kubev2v/taskmaster/pkg/errors"
)

func newRun(workload models.Workload, status models.RunStatus, startedAt time.Time) *models.Run {
	return &models.Run{
		ID:         uuid.New(),
		Workload:   workload,
		Workers:    4,
		ChunkSize:  100,
		Size:       1000,
		Parameters: "size=1000 chunk=100",
		Status:     status,
		StartedAt:  startedAt,
	}
}

var _ = Describe("RunStore", func() {
	var (
		ctx context.Context
		s   *store.Store
		db  *sql.DB
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())

		err = migrations.Run(ctx, db)
		Expect(err).NotTo(HaveOccurred())

		s = store.NewStore(db)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Context("Get", func() {
		// Given an empty ledger
		// When we get an unknown run
		// Then it should return a not found error
		It("should return RunNotFoundError when the run does not exist", func() {
			// Act
			_, err := s.Runs().Get(ctx, uuid.New())

			// Assert
			Expect(err).To(HaveOccurred())
			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})

		// Given a created run
		// When we retrieve it
		// Then every field should round trip
		It("should return a created run", func() {
			// Arrange
			started := time.Now().UTC().Truncate(time.Microsecond)
			run := newRun(models.WorkloadSum, models.RunStatusRunning, started)
			Expect(s.Runs().Create(ctx, run)).To(Succeed())

			// Act
			got, err := s.Runs().Get(ctx, run.ID)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(run.ID))
			Expect(got.Workload).To(Equal(models.WorkloadSum))
			Expect(got.Workers).To(Equal(4))
			Expect(got.ChunkSize).To(Equal(100))
			Expect(got.Size).To(BeEquivalentTo(1000))
			Expect(got.Parameters).To(Equal("size=1000 chunk=100"))
			Expect(got.Status).To(Equal(models.RunStatusRunning))
			Expect(got.StartedAt).To(BeTemporally("~", started, time.Millisecond))
			Expect(got.FinishedAt).To(BeNil())
		})
	})

	Context("Update", func() {
		// Given a running run
		// When it is finalized
		// Then status, result and finish time should be stored
		It("should store the final state", func() {
			// Arrange
			run := newRun(models.WorkloadSum, models.RunStatusRunning, time.Now())
			Expect(s.Runs().Create(ctx, run)).To(Succeed())

			// Act
			finished := time.Now().UTC()
			run.Status = models.RunStatusCompleted
			run.Result = "499500"
			run.Workers = 8
			run.FinishedAt = &finished
			err := s.Runs().Update(ctx, run)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			got, err := s.Runs().Get(ctx, run.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(models.RunStatusCompleted))
			Expect(got.Result).To(Equal("499500"))
			Expect(got.Workers).To(Equal(8))
			Expect(got.FinishedAt).NotTo(BeNil())
			Expect(*got.FinishedAt).To(BeTemporally("~", finished, time.Millisecond))
		})

		It("should return RunNotFoundError for an unknown run", func() {
			run := newRun(models.WorkloadSum, models.RunStatusFailed, time.Now())

			err := s.Runs().Update(ctx, run)

			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})
	})

	Context("List", func() {
		var base time.Time

		BeforeEach(func() {
			base = time.Now().UTC().Add(-time.Hour)
			fixtures := []struct {
				workload models.Workload
				status   models.RunStatus
			}{
				{models.WorkloadSum, models.RunStatusCompleted},
				{models.WorkloadSum, models.RunStatusFailed},
				{models.WorkloadRowMedian, models.RunStatusCompleted},
				{models.WorkloadRowMedian, models.RunStatusCancelled},
				{models.WorkloadSum, models.RunStatusRunning},
			}
			for i, f := range fixtures {
				run := newRun(f.workload, f.status, base.Add(time.Duration(i)*time.Minute))
				Expect(s.Runs().Create(ctx, run)).To(Succeed())
			}
		})

		It("should list the most recent runs first", func() {
			runs, err := s.Runs().List(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(5))
			for i := 1; i < len(runs); i++ {
				Expect(runs[i-1].StartedAt).To(BeTemporally(">", runs[i].StartedAt))
			}
			Expect(runs[0].Status).To(Equal(models.RunStatusRunning))
		})

		DescribeTable("should filter",
			func(opts []store.ListOption, expected int) {
				runs, err := s.Runs().List(ctx, opts...)
				Expect(err).NotTo(HaveOccurred())
				Expect(runs).To(HaveLen(expected))

				count, err := s.Runs().Count(ctx, opts...)
				Expect(err).NotTo(HaveOccurred())
				Expect(count).To(Equal(expected))
			},
			Entry("by status", []store.ListOption{store.ByStatus(models.RunStatusCompleted)}, 2),
			Entry("by several statuses", []store.ListOption{store.ByStatus(models.RunStatusFailed, models.RunStatusCancelled)}, 2),
			Entry("by workload", []store.ListOption{store.ByWorkload(models.WorkloadRowMedian)}, 2),
			Entry("by workload and status", []store.ListOption{
				store.ByWorkload(models.WorkloadSum),
				store.ByStatus(models.RunStatusCompleted, models.RunStatusRunning),
			}, 2),
			Entry("empty filters keep everything", []store.ListOption{store.ByStatus(), store.ByWorkload()}, 5),
		)

		It("should filter by start time", func() {
			runs, err := s.Runs().List(ctx, store.StartedAfter(base.Add(150*time.Second)))

			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
		})

		It("should paginate", func() {
			// Act
			page1, err := s.Runs().List(ctx, store.WithLimit(2), store.WithOffset(0))
			Expect(err).NotTo(HaveOccurred())
			page3, err := s.Runs().List(ctx, store.WithLimit(2), store.WithOffset(4))
			Expect(err).NotTo(HaveOccurred())

			// Assert
			Expect(page1).To(HaveLen(2))
			Expect(page3).To(HaveLen(1))
			Expect(page3[0].ID).NotTo(Equal(page1[0].ID))
		})
	})

	Context("FailRunning", func() {
		// Given runs left as running by a previous process
		// When the ledger is recovered at startup
		// Then they should be marked failed and finished
		It("should fail runs left running", func() {
			// Arrange
			stale := newRun(models.WorkloadSum, models.RunStatusRunning, time.Now())
			done := newRun(models.WorkloadSum, models.RunStatusCompleted, time.Now())
			Expect(s.Runs().Create(ctx, stale)).To(Succeed())
			Expect(s.Runs().Create(ctx, done)).To(Succeed())

			// Act
			n, err := s.Runs().FailRunning(ctx, "interrupted")

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(1))
			got, err := s.Runs().Get(ctx, stale.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(models.RunStatusFailed))
			Expect(got.Error).To(Equal("interrupted"))
			Expect(got.FinishedAt).NotTo(BeNil())
			got, err = s.Runs().Get(ctx, done.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(models.RunStatusCompleted))
		})
	})

	Context("Concurrent writes", func() {
		// Given multiple goroutines finalizing different runs
		// When all of them update at the same time
		// Then every update should be stored
		It("should handle concurrent updates from multiple goroutines", func() {
			const numGoroutines = 20
			runs := make([]*models.Run, numGoroutines)
			for i := range runs {
				runs[i] = newRun(models.WorkloadSum, models.RunStatusRunning, time.Now())
				Expect(s.Runs().Create(ctx, runs[i])).To(Succeed())
			}

			var wg sync.WaitGroup
			errs := make(chan error, numGoroutines)
			for i, run := range runs {
				wg.Add(1)
				go func() {
					defer wg.Done()
					now := time.Now()
					run.Status = models.RunStatusCompleted
					run.Result = fmt.Sprint(i)
					run.FinishedAt = &now
					if err := s.Runs().Update(ctx, run); err != nil {
						errs <- fmt.Errorf("goroutine %d: %w", i, err)
					}
				}()
			}
			wg.Wait()
			close(errs)

			var all []error
			for err := range errs {
				all = append(all, err)
			}
			Expect(all).To(BeEmpty())

			count, err := s.Runs().Count(ctx, store.ByStatus(models.RunStatusCompleted))
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(numGoroutines))
		})
	})
})
