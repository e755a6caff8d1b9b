// Package staging writes normalized records to local CSV files ahead of upload.
package staging

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/i474232898/weather-etl/internal/weather"
)

const (
	filePrefix      = "current_weather_data_"
	timestampLayout = "20060102150405"
)

// File is a staged CSV on local disk.
type File struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Writer stages records under a fixed directory, one file per call.
type Writer struct {
	dir  string
	city string
	now  func() time.Time
}

// NewWriter creates a Writer for the configured city. The city is only used
// to build file names.
func NewWriter(dir, city string) *Writer {
	return &Writer{
		dir:  dir,
		city: city,
		now:  time.Now,
	}
}

// FileName returns the staged file name for city at the given instant, using
// a second-granularity UTC timestamp.
func FileName(city string, at time.Time) string {
	slug := strings.ToLower(strings.Join(strings.Fields(city), "_"))
	return filePrefix + slug + "_" + at.UTC().Format(timestampLayout) + ".csv"
}

// Write serializes rec as a header row plus one data row. An existing file
// with the same name (two runs within one second) is overwritten.
func (w *Writer) Write(rec weather.NormalizedRecord) (File, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return File{}, fmt.Errorf("ensure staging directory: %w", err)
	}

	name := FileName(w.city, w.now())
	path := filepath.Join(w.dir, name)

	if _, err := os.Stat(path); err == nil {
		log.Printf("WARN: staged file %s already exists; overwriting", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return File{}, fmt.Errorf("create staged file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(weather.CSVHeader); err != nil {
		return File{}, fmt.Errorf("write header: %w", err)
	}
	if err := cw.Write(rec.CSVRow()); err != nil {
		return File{}, fmt.Errorf("write row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return File{}, fmt.Errorf("flush staged file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return File{}, fmt.Errorf("stat staged file: %w", err)
	}

	return File{Path: path, Name: name, Size: info.Size()}, nil
}
