package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"seloger-notifier/models"
)

var csvHeader = []string{"id", "url", "location", "description", "additional_info", "image"}

// CSVWriter exports the record map to a CSV file, one row per listing in id
// order. Every export truncates the previous file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	path string
}

var _ RecordExporter = (*CSVWriter)(nil)

// NewCSVWriter returns a writer for path. Intermediate directories are
// created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{path: path}, nil
}

// Export writes records to the CSV file.
func (c *CSVWriter) Export(records models.RecordMap) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, id := range records.IDs() {
		r := records[id]
		if r == nil {
			continue
		}
		row := []string{r.ID, r.URL, r.LocationText, r.DescriptionText, r.AdditionalInfo, r.ImagePath}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}
