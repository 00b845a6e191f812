package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// TimeColumns are the header names accepted for the time index, in order of
// preference.
var TimeColumns = []string{"timestamp", "date", "datetime", "time"}

// SyntheticStart is the first date of the daily index given to files without
// a time column.
var SyntheticStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102 150405",
	"20060102",
	"01/02/2006",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	// Unix seconds or milliseconds.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// ReadCSV parses a headered CSV table. Header names are lower-cased. The
// first column named in TimeColumns becomes the index; without one the rows
// get a daily index starting at SyntheticStart. Empty cells read as NaN.
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header", ErrEmptyFrame)
	}
	if err != nil {
		return nil, err
	}

	timeCol := -1
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, want := range TimeColumns {
		for i, name := range names {
			if name == want {
				timeCol = i
				break
			}
		}
		if timeCol >= 0 {
			break
		}
	}

	var (
		index []time.Time
		data  = make([][]float64, len(names))
		line  = 1
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) != len(names) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(names), len(row))
		}

		if timeCol >= 0 {
			ts, err := parseTime(strings.TrimSpace(row[timeCol]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			index = append(index, ts)
		} else {
			index = append(index, SyntheticStart.AddDate(0, 0, len(index)))
		}

		for i, cell := range row {
			if i == timeCol {
				continue
			}
			v, err := parseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %q: bad number %q", line, names[i], cell)
			}
			data[i] = append(data[i], v)
		}
	}

	if len(index) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrEmptyFrame)
	}

	f := NewFrame(index)
	for i, name := range names {
		if i == timeCol || name == "" {
			continue
		}
		if err := f.Set(name, data[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// LoadCSV reads a CSV file. Files ending in .xz or .lzma are decompressed on
// the fly.
func LoadCSV(path string) (*Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var r io.Reader = fh
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		xr, err := xz.NewReader(fh)
		if err != nil {
			return nil, fmt.Errorf("xz %s: %w", path, err)
		}
		r = xr
	case ".lzma":
		lr, err := lzma.NewReader(fh)
		if err != nil {
			return nil, fmt.Errorf("lzma %s: %w", path, err)
		}
		r = lr
	}

	f, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// WriteCSV writes f with a leading timestamp column in RFC3339.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"timestamp"}, f.names...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i := range f.index {
		row[0] = f.index[i].Format(time.RFC3339)
		for j, name := range f.names {
			row[j+1] = formatFloat(f.cols[name][i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes f to path.
func SaveCSV(path string, f *Frame) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.WriteCSV(fh); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
