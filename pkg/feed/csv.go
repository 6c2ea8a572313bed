package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/erain9/tickbook/pkg/core"
	"github.com/nikolaydubina/fpdecimal"
)

// CSVOptions controls how an order log is read
type CSVOptions struct {
	// Header skips the first line
	Header bool
	// TickSize is the decimal price increment; "1" when empty
	TickSize string
}

// ReadRecords parses trader,side,price,quantity lines
func ReadRecords(r io.Reader, header bool) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var records []Record
	for line := 1; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		if header && line == 1 {
			continue
		}

		rec, err := parseFields(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
}

func parseFields(fields []string) (Record, error) {
	trader, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 32)
	if err != nil {
		return Record{}, fmt.Errorf("%w: trader %q", ErrMalformedRecord, fields[0])
	}
	side, err := core.ParseSide(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	price, err := fpdecimal.FromString(strings.TrimSpace(fields[2]))
	if err != nil {
		return Record{}, fmt.Errorf("%w: price %q", ErrMalformedRecord, fields[2])
	}
	quantity, err := strconv.ParseUint(strings.TrimSpace(fields[3]), 10, 32)
	if err != nil {
		return Record{}, fmt.Errorf("%w: quantity %q", ErrMalformedRecord, fields[3])
	}

	return Record{
		Trader:   uint32(trader),
		Side:     side,
		Price:    price,
		Quantity: uint32(quantity),
	}, nil
}

// ReadCSV parses an order log and translates it into actions
func ReadCSV(r io.Reader, opts CSVOptions) ([]Action, error) {
	tick := opts.TickSize
	if tick == "" {
		tick = "1"
	}
	translator, err := NewTranslator(tick)
	if err != nil {
		return nil, err
	}
	records, err := ReadRecords(r, opts.Header)
	if err != nil {
		return nil, err
	}
	return translator.TranslateAll(records)
}

// LoadFile reads the order log at path
func LoadFile(path string, opts CSVOptions) ([]Action, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open order log: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// LoadRecords reads the raw records of the order log at path
func LoadRecords(path string, header bool) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open order log: %w", err)
	}
	defer f.Close()
	return ReadRecords(f, header)
}
