package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{name: "precision 2", precision: 2, value: 3.14159, expected: "3.14"},
		{name: "precision 0", precision: 0, value: 3.14159, expected: "3"},
		{name: "precision 4", precision: 4, value: 3.14159, expected: "3.1416"},
		{name: "negative value", precision: 2, value: -42.567, expected: "-42.57"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
		})
	}
}

func TestFmtOptional(t *testing.T) {
	fmtFloat := createFormatters(1)
	assert.Equal(t, "-", fmtOptional(nil, fmtFloat, "-"))
	assert.Equal(t, "", fmtOptional(nil, fmtFloat, ""))
	assert.Equal(t, "2.5", fmtOptional(ptr(2.5), fmtFloat, "-"))
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "best", colorize(contract.BestColor, "best", false))
	assert.Contains(t, colorize(contract.BestColor, "best", true), "best")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"a", "b"}, func(w *csv.Writer) error {
		return w.Write([]string{"1", "2"})
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", buf.String())
}

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := writeWithFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	}, "Wrote test")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWriteWithFileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.txt")
	err := writeWithFile(path, func(io.Writer) error { return nil }, "Wrote test")
	assert.Error(t, err)
}
