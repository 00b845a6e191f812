// Package market holds the time-indexed price tables that strategies read and
// the backtester replays.
package market

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Standard column names.
const (
	Open   = "open"
	High   = "high"
	Low    = "low"
	Close  = "close"
	Volume = "volume"

	// Signal is the column strategies write: +1 enter long, -1 exit,
	// 0 do nothing.
	Signal = "signal"
)

// OHLCV lists the price columns a complete bar table carries.
var OHLCV = []string{Open, High, Low, Close, Volume}

var (
	ErrMissingColumn    = errors.New("market: missing column")
	ErrEmptyFrame       = errors.New("market: empty frame")
	ErrNotChronological = errors.New("market: index not in chronological order")
	ErrLengthMismatch   = errors.New("market: column length mismatch")
)

// Frame is a table of float64 columns sharing a time index. Column slices
// returned by Column belong to the frame and must not be modified; use
// WithColumn to derive a new frame.
type Frame struct {
	index []time.Time
	names []string
	cols  map[string][]float64
}

// NewFrame returns an empty frame over index.
func NewFrame(index []time.Time) *Frame {
	ix := make([]time.Time, len(index))
	copy(ix, index)
	return &Frame{index: ix, cols: make(map[string][]float64)}
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.index)
}

// Time returns the index entry of row i.
func (f *Frame) Time(i int) time.Time { return f.index[i] }

// Index returns a copy of the time index.
func (f *Frame) Index() []time.Time {
	out := make([]time.Time, len(f.index))
	copy(out, f.index)
	return out
}

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns the values of name.
func (f *Frame) Column(name string) ([]float64, error) {
	v, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return v, nil
}

// Set adds or replaces a column in place.
func (f *Frame) Set(name string, values []float64) error {
	if len(values) != len(f.index) {
		return fmt.Errorf("%w: column %q has %d rows, index has %d",
			ErrLengthMismatch, name, len(values), len(f.index))
	}
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = values
	return nil
}

// WithColumn returns a copy of f with name set to values. f is unchanged.
func (f *Frame) WithColumn(name string, values []float64) (*Frame, error) {
	out := f.Copy()
	v := make([]float64, len(values))
	copy(v, values)
	if err := out.Set(name, v); err != nil {
		return nil, err
	}
	return out, nil
}

// Copy returns a deep copy of f.
func (f *Frame) Copy() *Frame {
	out := NewFrame(f.index)
	for _, name := range f.names {
		v := make([]float64, len(f.cols[name]))
		copy(v, f.cols[name])
		out.names = append(out.names, name)
		out.cols[name] = v
	}
	return out
}

// take builds a new frame from the given row positions of f.
func (f *Frame) take(rows []int) *Frame {
	ix := make([]time.Time, len(rows))
	for i, r := range rows {
		ix[i] = f.index[r]
	}
	out := NewFrame(ix)
	for _, name := range f.names {
		src := f.cols[name]
		v := make([]float64, len(rows))
		for i, r := range rows {
			v[i] = src[r]
		}
		out.names = append(out.names, name)
		out.cols[name] = v
	}
	return out
}

// Slice returns rows [from, to) as a new frame.
func (f *Frame) Slice(from, to int) *Frame {
	if from < 0 {
		from = 0
	}
	if to > f.Len() {
		to = f.Len()
	}
	if from > to {
		from = to
	}
	rows := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		rows = append(rows, i)
	}
	return f.take(rows)
}

// Between returns the rows with from <= time < to. A zero bound is open.
func (f *Frame) Between(from, to time.Time) *Frame {
	var rows []int
	for i, ts := range f.index {
		if !from.IsZero() && ts.Before(from) {
			continue
		}
		if !to.IsZero() && !ts.Before(to) {
			continue
		}
		rows = append(rows, i)
	}
	return f.take(rows)
}

// CheckChronological returns ErrNotChronological at the first index entry that
// is earlier than the one before it. Repeated timestamps are allowed.
func (f *Frame) CheckChronological() error {
	for i := 1; i < len(f.index); i++ {
		if f.index[i].Before(f.index[i-1]) {
			return fmt.Errorf("%w: row %d (%s) follows %s", ErrNotChronological,
				i, f.index[i].Format(time.RFC3339), f.index[i-1].Format(time.RFC3339))
		}
	}
	return nil
}

// Bar is one row of OHLCV values. Missing columns read as NaN.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Bar returns row i as a Bar.
func (f *Frame) Bar(i int) Bar {
	get := func(name string) float64 {
		if v, ok := f.cols[name]; ok {
			return v[i]
		}
		return math.NaN()
	}
	return Bar{
		Time:   f.index[i],
		Open:   get(Open),
		High:   get(High),
		Low:    get(Low),
		Close:  get(Close),
		Volume: get(Volume),
	}
}

// FromBars builds an OHLCV frame from bars.
func FromBars(bars []Bar) *Frame {
	ix := make([]time.Time, len(bars))
	o := make([]float64, len(bars))
	h := make([]float64, len(bars))
	l := make([]float64, len(bars))
	c := make([]float64, len(bars))
	v := make([]float64, len(bars))
	for i, b := range bars {
		ix[i], o[i], h[i], l[i], c[i], v[i] = b.Time, b.Open, b.High, b.Low, b.Close, b.Volume
	}
	f := NewFrame(ix)
	_ = f.Set(Open, o)
	_ = f.Set(High, h)
	_ = f.Set(Low, l)
	_ = f.Set(Close, c)
	_ = f.Set(Volume, v)
	return f
}

// FromCloses builds a frame with only a close column over a daily index
// starting at start.
func FromCloses(start time.Time, closes []float64) *Frame {
	ix := make([]time.Time, len(closes))
	for i := range closes {
		ix[i] = start.AddDate(0, 0, i)
	}
	f := NewFrame(ix)
	v := make([]float64, len(closes))
	copy(v, closes)
	_ = f.Set(Close, v)
	return f
}

// sortedRows returns row positions ordered by time, keeping the original
// order of equal timestamps.
func (f *Frame) sortedRows(rows []int) []int {
	out := make([]int, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return f.index[out[i]].Before(f.index[out[j]])
	})
	return out
}
