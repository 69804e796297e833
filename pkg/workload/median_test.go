package workload_test

import (
	"context"
	"math"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/taskmaster/pkg/master"
	"github.com/kubev2v/taskmaster/pkg/workload"
)

var _ = Describe("RowMedian", func() {
	It("filters a small row by hand", func() {
		field := workload.Field{Rows: 1, Cols: 5, Data: []float64{5, 1, 4, 2, 3}}
		m, err := workload.NewRowMedian(field, 1, 1)
		Expect(err).NotTo(HaveOccurred())

		Expect(master.Run(context.Background(), 2, m.Job())).To(Succeed())

		// windows: {5,1} {5,1,4} {1,4,2} {4,2,3} {2,3}
		Expect(m.Output().Data).To(Equal([]float64{3, 4, 2, 3, 2.5}))
	})

	DescribeTable("matches the serial filter",
		func(rows, cols, radius, band, workers int) {
			// Arrange
			field := workload.RandomField(rows, cols, uint64(GinkgoRandomSeed()))
			m, err := workload.NewRowMedian(field, radius, band)
			Expect(err).NotTo(HaveOccurred())

			// Act
			err = master.Run(context.Background(), workers, m.Job())

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Output()).To(Equal(workload.RowMedianSerial(field, radius)))
		},
		Entry("one row per task", 64, 33, 2, 1, 4),
		Entry("uneven bands", 101, 50, 3, 7, 3),
		Entry("zero radius copies the field", 20, 20, 0, 4, 2),
		Entry("radius wider than a row", 10, 5, 10, 3, 8),
		Entry("single worker", 40, 40, 4, 5, 1),
	)

	It("leaves the source untouched", func() {
		field := workload.RandomField(30, 30, 7)
		before := append([]float64(nil), field.Data...)
		m, err := workload.NewRowMedian(field, 2, 4)
		Expect(err).NotTo(HaveOccurred())

		Expect(master.Run(context.Background(), 4, m.Job())).To(Succeed())

		Expect(field.Data).To(Equal(before))
	})

	It("creates one scratch buffer per worker", func() {
		field := workload.RandomField(50, 10, 3)
		m, err := workload.NewRowMedian(field, 1, 2)
		Expect(err).NotTo(HaveOccurred())
		job := m.Job()
		var created atomic.Int32
		create := job.CreateData
		job.CreateData = func() (*workload.Scratch, error) {
			created.Add(1)
			return create()
		}

		Expect(master.Run(context.Background(), 3, job)).To(Succeed())

		Expect(created.Load()).To(BeEquivalentTo(3))
	})

	DescribeTable("rejects invalid input",
		func(field workload.Field, radius int) {
			_, err := workload.NewRowMedian(field, radius, 1)
			Expect(err).To(HaveOccurred())
		},
		Entry("empty field", workload.Field{}, 1),
		Entry("short data", workload.Field{Rows: 2, Cols: 2, Data: []float64{1}}, 1),
		Entry("negative radius", workload.NewField(2, 2), -1),
		Entry("dimensions overflowing an int", workload.Field{Rows: math.MaxInt/2 + 1, Cols: 2}, 1),
	)

	It("treats a huge radius like a window covering the whole row", func() {
		field := workload.RandomField(6, 9, 3)
		m, err := workload.NewRowMedian(field, math.MaxInt, 2)
		Expect(err).NotTo(HaveOccurred())

		Expect(master.Run(context.Background(), 2, m.Job())).To(Succeed())

		Expect(m.Output().Data).To(Equal(workload.RowMedianSerial(field, 9).Data))
		Expect(workload.RowMedianSerial(field, math.MaxInt).Data).To(Equal(m.Output().Data))
	})

	DescribeTable("counts field cells",
		func(rows, cols, cells int, ok bool) {
			n, fits := workload.FieldCells(rows, cols)

			Expect(fits).To(Equal(ok))
			Expect(n).To(Equal(cells))
		},
		Entry("regular field", 1024, 768, 1024*768, true),
		Entry("zero rows", 0, 10, 0, false),
		Entry("negative columns", 10, -1, 0, false),
		Entry("largest product", math.MaxInt/2, 2, math.MaxInt/2*2, true),
		Entry("overflowing product", math.MaxInt/2+1, 2, 0, false),
	)
})
