package core

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/carbonlens/emforecast/schema"
)

// RecordFormat is the encoding of an input file.
type RecordFormat string

// Supported input encodings.
const (
	CSVRecords  RecordFormat = "csv"
	JSONRecords RecordFormat = "json"
)

// DetectRecordFormat picks the encoding from the file extension. Anything but .json is CSV.
func DetectRecordFormat(path string) RecordFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSONRecords
	}
	return CSVRecords
}

// LoadRecords reads dated emission records from a CSV or JSON file. "-" reads CSV from stdin.
func LoadRecords(path, dateField, valueField string) ([]schema.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no input file given", schema.ErrData)
	}
	if path == "-" {
		return ReadRecords(os.Stdin, CSVRecords, dateField, valueField)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrData, err)
	}
	defer func() { _ = f.Close() }()
	return ReadRecords(f, DetectRecordFormat(path), dateField, valueField)
}

// ReadRecords decodes records from r. Columns other than the date and value fields are ignored.
func ReadRecords(r io.Reader, format RecordFormat, dateField, valueField string) ([]schema.Record, error) {
	switch format {
	case JSONRecords:
		return readJSONRecords(r, dateField, valueField)
	default:
		return readCSVRecords(r, dateField, valueField)
	}
}

func readCSVRecords(r io.Reader, dateField, valueField string) ([]schema.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: input is empty", schema.ErrData)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", schema.ErrData, err)
	}
	dateIdx, valueIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case dateField:
			dateIdx = i
		case valueField:
			valueIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("%w: missing date field %q", schema.ErrData, dateField)
	}
	if valueIdx < 0 {
		return nil, fmt.Errorf("%w: missing value field %q", schema.ErrData, valueField)
	}

	var records []schema.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", schema.ErrData, line, err)
		}
		rec := schema.Record{}
		if dateIdx < len(row) {
			rec.Date = row[dateIdx]
		}
		if valueIdx < len(row) {
			v, err := parseValue(row[valueIdx])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", schema.ErrData, line, err)
			}
			rec.Value = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func readJSONRecords(r io.Reader, dateField, valueField string) ([]schema.Record, error) {
	var rows []map[string]any
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: decoding JSON records: %w", schema.ErrData, err)
	}
	records := make([]schema.Record, 0, len(rows))
	for i, row := range rows {
		rawDate, ok := row[dateField]
		if !ok {
			return nil, fmt.Errorf("%w: record %d is missing date field %q", schema.ErrData, i, dateField)
		}
		date, ok := rawDate.(string)
		if !ok {
			return nil, fmt.Errorf("%w: record %d date is not a string", schema.ErrData, i)
		}
		rec := schema.Record{Date: date}
		switch v := row[valueField].(type) {
		case nil:
		case float64:
			rec.Value = &v
		case string:
			parsed, err := parseValue(v)
			if err != nil {
				return nil, fmt.Errorf("%w: record %d: %w", schema.ErrData, i, err)
			}
			rec.Value = parsed
		default:
			return nil, fmt.Errorf("%w: record %d value has type %T", schema.ErrData, i, v)
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseValue returns nil for empty cells.
func parseValue(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q", s)
	}
	return &v, nil
}
