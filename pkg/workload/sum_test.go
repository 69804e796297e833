package workload_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/taskmaster/pkg/master"
	"github.com/kubev2v/taskmaster/pkg/workload"
)

var _ = Describe("Sum", func() {
	DescribeTable("adds up the range on any number of workers",
		func(size, chunk uint64, workers int) {
			// Arrange
			sum := workload.NewSum(size, chunk)

			// Act
			err := master.Run(context.Background(), workers, sum.Job())

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.Total()).To(Equal(sum.Expected()))
			Expect(sum.Total()).To(Equal(size * (size - min(size, 1)) / 2))
		},
		Entry("empty range", uint64(0), uint64(10), 4),
		Entry("single number", uint64(1), uint64(10), 4),
		Entry("chunk larger than the range", uint64(100), uint64(1000), 3),
		Entry("uneven chunks", uint64(123457), uint64(1000), 8),
		Entry("one number per task", uint64(5000), uint64(1), 2),
		Entry("zero chunk is one number per task", uint64(300), uint64(0), 2),
		Entry("serial", uint64(99999), uint64(77), 1),
	)

	It("splits the range in ceil(size/chunk) tasks", func() {
		sum := workload.NewSum(10001, 100)

		Expect(master.Run(context.Background(), 4, sum.Job())).To(Succeed())

		Expect(sum.Tasks()).To(Equal(101))
	})

	It("gives the same result on a serial master", func() {
		sum := workload.NewSum(54321, 321)
		m := master.NewSerial[workload.Span, uint64, struct{}]()
		defer m.Close()
		Expect(m.SetJob(sum.Job())).To(Succeed())
		Expect(m.CreateWorkers(0)).To(Succeed())

		Expect(m.ManageTasks(context.Background())).To(Succeed())

		Expect(sum.Total()).To(Equal(sum.Expected()))
	})

	DescribeTable("knows when the sum fits in 64 bits",
		func(size uint64, fits bool) {
			Expect(workload.SumFits(size)).To(Equal(fits))
		},
		Entry("empty range", uint64(0), true),
		Entry("single number", uint64(1), true),
		Entry("largest size", workload.MaxSumSize, true),
		Entry("one past the largest size", workload.MaxSumSize+1, false),
		Entry("2^33 numbers", uint64(1)<<33, false),
		Entry("largest uint64", uint64(math.MaxUint64), false),
	)

	It("computes the closed form exactly up to the largest size", func() {
		sum := workload.NewSum(workload.MaxSumSize, 1)

		// n(n-1)/2 for n = 6074001000
		Expect(sum.Expected()).To(Equal(uint64(18446744070963499500)))
	})
})
