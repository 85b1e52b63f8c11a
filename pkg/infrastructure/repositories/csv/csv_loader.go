package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/dough/pkg/domain/entities"
)

var batchHeader = []string{"id", "quantity", "stage", "stage_entered_at"}

// Loader reads seed batches from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadBatches loads seed batches from a CSV file.
// Relative timestamps such as "-60h" are resolved against now.
func (l *Loader) LoadBatches(filename string, now time.Time) ([]*entities.Batch, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open batches file %s: %w", filename, err)
	}
	defer file.Close()

	return l.ReadBatches(file, now)
}

// ReadBatches parses seed batches from r
func (l *Loader) ReadBatches(r io.Reader, now time.Time) ([]*entities.Batch, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read batches CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("batches CSV must have header and at least one data row")
	}

	header := records[0]
	if !validateHeader(header, batchHeader) {
		return nil, fmt.Errorf("batches CSV header mismatch. Expected: %v, Got: %v", batchHeader, header)
	}

	batches := make([]*entities.Batch, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(batchHeader) {
			return nil, fmt.Errorf("batches CSV row %d: expected %d columns, got %d", i+2, len(batchHeader), len(record))
		}

		batch, err := parseBatch(record, now)
		if err != nil {
			return nil, fmt.Errorf("batches CSV row %d: %w", i+2, err)
		}
		batches = append(batches, batch)
	}

	return batches, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseBatch(record []string, now time.Time) (*entities.Batch, error) {
	quantity, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", record[1], err)
	}

	stage, err := entities.ParseStage(record[2])
	if err != nil {
		return nil, err
	}

	enteredAt, err := parseTimestamp(record[3], now)
	if err != nil {
		return nil, err
	}

	return entities.NewBatch(entities.BatchID(strings.TrimSpace(record[0])), entities.Quantity(quantity), stage, enteredAt)
}

// parseTimestamp accepts an empty cell, an RFC3339 time, or a duration offset from now
func parseTimestamp(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	offset, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stage_entered_at %q: expected RFC3339 or an offset like -60h", s)
	}
	return now.Add(offset), nil
}
