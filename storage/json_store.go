package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"seloger-notifier/models"
	"seloger-notifier/utils"
)

// FileStore keeps both collections as JSON documents on disk: the processed
// set as an array of ids, the records as an object keyed by id.
type FileStore struct {
	processedPath string
	recordsPath   string
	logger        *utils.Logger
}

var _ RecordStore = (*FileStore)(nil)

// NewFileStore returns a FileStore. Parent directories are created on the
// first save.
func NewFileStore(processedPath, recordsPath string, logger *utils.Logger) *FileStore {
	return &FileStore{
		processedPath: processedPath,
		recordsPath:   recordsPath,
		logger:        logger,
	}
}

func (s *FileStore) LoadProcessedSet(_ context.Context) models.ProcessedSet {
	set := models.NewProcessedSet()
	if !s.readJSON(s.processedPath, &set) {
		return models.NewProcessedSet()
	}
	return set
}

func (s *FileStore) SaveProcessedSet(_ context.Context, set models.ProcessedSet) error {
	if set == nil {
		set = models.NewProcessedSet()
	}
	return writeJSONAtomic(s.processedPath, set)
}

func (s *FileStore) LoadRecords(_ context.Context) models.RecordMap {
	records := models.RecordMap{}
	if !s.readJSON(s.recordsPath, &records) {
		return models.RecordMap{}
	}
	for id, r := range records {
		if r == nil {
			delete(records, id)
		}
	}
	return records
}

func (s *FileStore) SaveRecords(_ context.Context, records models.RecordMap) error {
	if records == nil {
		records = models.RecordMap{}
	}
	return writeJSONAtomic(s.recordsPath, records)
}

func (s *FileStore) Close() error { return nil }

// readJSON decodes path into v and reports whether it succeeded. A missing
// file is silent; anything else is logged.
func (s *FileStore) readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("[store] Cannot read %s, starting empty: %v", path, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("[store] Corrupt %s, starting empty: %v", path, err)
		return false
	}
	return true
}

// writeJSONAtomic replaces path with the JSON encoding of v. Readers see
// either the old or the new document, never a partial one.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: replace %s: %w", path, err)
	}
	return nil
}
