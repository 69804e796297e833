package workload

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/kubev2v/taskmaster/pkg/master"
)

// Field is a row-major two-dimensional data field.
type Field struct {
	Rows int
	Cols int
	Data []float64
}

// NewField allocates a zero field.
func NewField(rows, cols int) Field {
	return Field{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// FieldCells returns rows*cols. ok is false when either dimension is not
// positive or the product overflows an int.
func FieldCells(rows, cols int) (cells int, ok bool) {
	if rows <= 0 || cols <= 0 || cols > math.MaxInt/rows {
		return 0, false
	}
	return rows * cols, true
}

// RandomField fills a new field with uniform noise in [0, 1).
func RandomField(rows, cols int, seed uint64) Field {
	f := NewField(rows, cols)
	rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range f.Data {
		f.Data[i] = rnd.Float64()
	}
	return f
}

// Row returns row i.
func (f Field) Row(i int) []float64 {
	return f.Data[i*f.Cols : (i+1)*f.Cols]
}

func (f Field) validate() error {
	cells, ok := FieldCells(f.Rows, f.Cols)
	if !ok {
		return fmt.Errorf("invalid field size %dx%d", f.Rows, f.Cols)
	}
	if len(f.Data) != cells {
		return fmt.Errorf("field data has %d values, expected %d", len(f.Data), cells)
	}
	return nil
}

// Band is a block of consecutive rows, [From, To). Values holds the filtered
// rows once the band went through a worker.
type Band struct {
	From   int
	To     int
	Values []float64
}

// Scratch is the private buffer of one worker.
type Scratch struct {
	window []float64
}

// RowMedian applies a horizontal median filter of the given radius to every
// row of a field. Rows are distributed in bands.
type RowMedian struct {
	src    Field
	dst    Field
	radius int
	band   int
	next   int
}

// NewRowMedian prepares the filtering of field. band is the number of rows
// per task.
func NewRowMedian(field Field, radius, band int) (*RowMedian, error) {
	if err := field.validate(); err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, fmt.Errorf("invalid median radius %d", radius)
	}
	// a window never extends past its row
	return &RowMedian{
		src:    field,
		dst:    NewField(field.Rows, field.Cols),
		radius: min(radius, field.Cols),
		band:   max(band, 1),
	}, nil
}

// Job returns the callbacks of the computation.
func (m *RowMedian) Job() master.Job[Band, Band, *Scratch] {
	return master.Job[Band, Band, *Scratch]{
		ProvideTask:   m.provide,
		Work:          m.work,
		ConsumeResult: m.consume,
		CreateData:    m.newScratch,
		DestroyData:   func(*Scratch) {},
	}
}

// Output returns the filtered field.
func (m *RowMedian) Output() Field {
	return m.dst
}

func (m *RowMedian) newScratch() (*Scratch, error) {
	return &Scratch{window: make([]float64, 0, 2*m.radius+1)}, nil
}

func (m *RowMedian) provide() (Band, error) {
	if m.next >= m.src.Rows {
		return Band{}, master.ErrNoMoreTasks
	}
	b := Band{From: m.next, To: min(m.next+m.band, m.src.Rows)}
	m.next = b.To
	return b, nil
}

func (m *RowMedian) work(b Band, s *Scratch) (Band, error) {
	cols := m.src.Cols
	b.Values = make([]float64, (b.To-b.From)*cols)
	for i := b.From; i < b.To; i++ {
		out := b.Values[(i-b.From)*cols : (i-b.From+1)*cols]
		medianRow(m.src.Row(i), out, m.radius, s)
	}
	return b, nil
}

func (m *RowMedian) consume(b Band) {
	copy(m.dst.Data[b.From*m.dst.Cols:b.To*m.dst.Cols], b.Values)
}

func medianRow(row, out []float64, radius int, s *Scratch) {
	n := len(row)
	for j := range row {
		lo, hi := max(j-radius, 0), min(j+radius+1, n)
		s.window = append(s.window[:0], row[lo:hi]...)
		out[j] = median(s.window)
	}
}

// median sorts values in place.
func median(values []float64) float64 {
	slices.Sort(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// RowMedianSerial filters field without any parallelism. It is the reference
// the parallel computation is checked against.
func RowMedianSerial(field Field, radius int) Field {
	dst := NewField(field.Rows, field.Cols)
	radius = min(radius, field.Cols)
	s := &Scratch{}
	for i := range field.Rows {
		medianRow(field.Row(i), dst.Row(i), radius, s)
	}
	return dst
}
