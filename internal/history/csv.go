package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/flightdash/internal/model"
)

// CSV column names. Files written before the switch to local time use
// date_utc; both are read.
const (
	ColumnDate       = "date_ist"
	ColumnLegacyDate = "date_utc"
	ColumnMinPrice   = "min_price"
)

// TimeLayout is the timestamp layout of the date column, e.g. 2026-10-18T12:00:03+0530.
const TimeLayout = "2006-01-02T15:04:05-0700"

// readLayouts are tried in order when reading dates back.
var readLayouts = []string{
	TimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVStore keeps the history in a two-column CSV file.
type CSVStore struct {
	path string
	loc  *time.Location
}

var _ Store = (*CSVStore)(nil)

// NewCSVStore returns a store backed by path. Timestamps are written in
// loc; a nil loc means UTC.
func NewCSVStore(path string, loc *time.Location) *CSVStore {
	if loc == nil {
		loc = time.UTC
	}
	return &CSVStore{path: path, loc: loc}
}

// Path returns the CSV file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Append adds a row, writing the header first when the file is new.
func (s *CSVStore) Append(ctx context.Context, p model.PricePoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	writeHeader := true
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		writeHeader = false
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write([]string{ColumnDate, ColumnMinPrice}); err != nil {
			return fmt.Errorf("failed to write history header: %w", err)
		}
	}
	row := []string{
		p.RecordedAt.In(s.loc).Format(TimeLayout),
		strconv.FormatInt(p.MinPrice, 10),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write history row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write history row: %w", err)
	}
	return f.Close()
}

// List reads every row. A missing file is an empty history.
// Rows without a date, or whose date or price cannot be parsed, are skipped.
func (s *CSVStore) List(ctx context.Context) ([]model.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.PricePoint{}, nil
		}
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses history rows from r.
func ReadCSV(r io.Reader) ([]model.PricePoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.PricePoint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history header: %w", err)
	}

	dateIdx, legacyIdx, priceIdx := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case ColumnDate:
			dateIdx = i
		case ColumnLegacyDate:
			legacyIdx = i
		case ColumnMinPrice:
			priceIdx = i
		}
	}
	if priceIdx < 0 || (dateIdx < 0 && legacyIdx < 0) {
		return nil, fmt.Errorf("history header %v lacks %s and a date column", header, ColumnMinPrice)
	}

	points := []model.PricePoint{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}

		date := field(rec, dateIdx)
		if date == "" {
			date = field(rec, legacyIdx)
		}
		if date == "" {
			continue
		}
		at, ok := parseTime(date)
		if !ok {
			continue
		}
		price, err := parsePrice(field(rec, priceIdx))
		if err != nil {
			continue
		}
		points = append(points, model.PricePoint{RecordedAt: at, MinPrice: price})
	}
	return points, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parsePrice accepts integers and integral floats such as "4519.0".
func parsePrice(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
