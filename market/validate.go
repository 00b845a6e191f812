package market

import (
	"fmt"
	"math"
	"time"
)

// Issue is a data quality problem found by Validate.
type Issue struct {
	Column string
	Rows   int
	Msg    string
}

func (i Issue) String() string {
	if i.Column == "" {
		return i.Msg
	}
	return fmt.Sprintf("%s: %s", i.Column, i.Msg)
}

// Validate reports quality problems in an OHLCV frame. A frame is usable when
// the returned slice is empty. Missing OHLCV columns are reported as issues.
func (f *Frame) Validate() []Issue {
	var issues []Issue

	if f.Len() == 0 {
		return []Issue{{Msg: "frame has no rows"}}
	}

	for _, name := range OHLCV {
		if !f.Has(name) {
			issues = append(issues, Issue{Column: name, Msg: "missing required column"})
		}
	}

	for _, name := range f.names {
		var nan, neg int
		for _, v := range f.cols[name] {
			switch {
			case math.IsNaN(v):
				nan++
			case v < 0:
				neg++
			}
		}
		if nan > 0 {
			issues = append(issues, Issue{Column: name, Rows: nan, Msg: fmt.Sprintf("%d missing values", nan)})
		}
		if neg > 0 && isPriceOrVolume(name) {
			issues = append(issues, Issue{Column: name, Rows: neg, Msg: fmt.Sprintf("%d negative values", neg)})
		}
	}

	if f.Has(High) && f.Has(Low) {
		h, l := f.cols[High], f.cols[Low]
		var bad int
		for i := range h {
			if h[i] < l[i] {
				bad++
			}
		}
		if bad > 0 {
			issues = append(issues, Issue{Rows: bad, Msg: fmt.Sprintf("%d rows with high < low", bad)})
		}

		if f.Has(Close) {
			c := f.cols[Close]
			var out int
			for i := range c {
				if c[i] > h[i] || c[i] < l[i] {
					out++
				}
			}
			if out > 0 {
				issues = append(issues, Issue{Column: Close, Rows: out, Msg: fmt.Sprintf("%d rows outside the high/low range", out)})
			}
		}
	}

	var unordered, dups int
	seen := make(map[time.Time]bool, len(f.index))
	for i, ts := range f.index {
		if i > 0 && ts.Before(f.index[i-1]) {
			unordered++
		}
		if seen[ts] {
			dups++
		}
		seen[ts] = true
	}
	if unordered > 0 {
		issues = append(issues, Issue{Rows: unordered, Msg: "index is not in chronological order"})
	}
	if dups > 0 {
		issues = append(issues, Issue{Rows: dups, Msg: fmt.Sprintf("%d duplicate timestamps", dups)})
	}

	return issues
}

func isPriceOrVolume(name string) bool {
	for _, n := range OHLCV {
		if n == name {
			return true
		}
	}
	return false
}

// Clean returns a repaired copy of f: duplicate timestamps dropped (first
// wins), rows sorted by time, gaps forward then backward filled, rows with
// negative prices dropped, and high/low swapped where inverted.
func (f *Frame) Clean() *Frame {
	seen := make(map[time.Time]bool, len(f.index))
	rows := make([]int, 0, len(f.index))
	for i, ts := range f.index {
		if seen[ts] {
			continue
		}
		seen[ts] = true
		rows = append(rows, i)
	}
	out := f.take(f.sortedRows(rows))

	for _, name := range out.names {
		fill(out.cols[name])
	}

	keep := make([]int, 0, out.Len())
	for i := 0; i < out.Len(); i++ {
		bad := false
		for _, name := range []string{Open, High, Low, Close} {
			if v, ok := out.cols[name]; ok && v[i] < 0 {
				bad = true
				break
			}
		}
		if !bad {
			keep = append(keep, i)
		}
	}
	if len(keep) != out.Len() {
		out = out.take(keep)
	}

	if out.Has(High) && out.Has(Low) {
		h, l := out.cols[High], out.cols[Low]
		for i := range h {
			if h[i] < l[i] {
				h[i], l[i] = l[i], h[i]
			}
		}
	}
	return out
}

// fill replaces NaNs with the previous value, then fills any leading NaNs
// with the first value.
func fill(v []float64) {
	first := -1
	for i := range v {
		if math.IsNaN(v[i]) {
			if i > 0 {
				v[i] = v[i-1]
			}
			continue
		}
		if first < 0 {
			first = i
		}
	}
	if first <= 0 {
		return
	}
	for i := 0; i < first; i++ {
		v[i] = v[first]
	}
}
