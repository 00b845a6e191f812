package cmd

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
)

// loadFrame reads a price file and applies the data section of the config.
func loadFrame(path string, dc config.DataConfig, from, to time.Time, log *zap.Logger) (*market.Frame, error) {
	if path == "" {
		return nil, fmt.Errorf("no data file: set --data or data.path")
	}

	f, err := market.LoadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if dc.Validate {
		for _, issue := range f.Validate() {
			log.Warn("data quality", zap.String("file", path), zap.String("issue", issue.String()))
		}
	}
	if dc.Clean {
		before := f.Len()
		f = f.Clean()
		log.Info("cleaned data", zap.String("file", path), zap.Int("rows_before", before), zap.Int("rows_after", f.Len()))
	}

	if !from.IsZero() || !to.IsZero() {
		f = f.Between(from, to)
	}
	return f, nil
}

// openJournal opens the configured journal. It returns nil for type "none".
func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "", "none":
		return nil, nil
	case "sqlite":
		path := jc.DBPath
		if path == "" {
			path = config.Default().Journal.DBPath
		}
		j, err := journal.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	case "csv":
		dir := jc.Dir
		if dir == "" {
			dir = "./journal"
		}
		j, err := journal.NewCSV(dir)
		if err != nil {
			return nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}

// parseWhen accepts RFC3339 timestamps and plain dates.
func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q (want RFC3339 or YYYY-MM-DD)", s)
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := parseWhen(fromStr)
	if err != nil {
		return from, from, fmt.Errorf("--from: %w", err)
	}
	to, err := parseWhen(toStr)
	if err != nil {
		return from, to, fmt.Errorf("--to: %w", err)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return from, to, fmt.Errorf("--from must be before --to")
	}
	return from, to, nil
}

func configBytes(cfg *config.Config) []byte {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil
	}
	return data
}
