package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"premium-estimator/internal/errors"
	"premium-estimator/internal/logging"
)

// FileStore keeps one JSON file per quote under a directory per domain
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "failed to create storage directory %s", basePath)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) Save(ctx context.Context, quote *StoredQuote) error {
	if err := prepare(quote); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	domainDir := filepath.Join(s.basePath, quote.Domain.String())
	if err := os.MkdirAll(domainDir, 0755); err != nil {
		return errors.Internal("failed to create domain directory", err)
	}

	data, err := json.MarshalIndent(quote, "", "  ")
	if err != nil {
		return errors.Internal("failed to marshal quote", err)
	}
	if err := os.WriteFile(filepath.Join(domainDir, quote.ID+".json"), data, 0644); err != nil {
		return errors.Internal("failed to write quote", err)
	}
	return nil
}

// find returns the path of a quote file, searching every domain directory
func (s *FileStore) find(id string) (string, error) {
	// ids become file names, so anything but a UUID cannot name a quote
	if _, err := uuid.Parse(id); err != nil {
		return "", notFound(id)
	}
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return "", errors.Internal("failed to read storage", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.basePath, entry.Name(), id+".json")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", notFound(id)
}

func readQuote(path string) (*StoredQuote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var quote StoredQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, errors.Parsing("failed to unmarshal quote "+path, err)
	}
	return &quote, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*StoredQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return readQuote(path)
}

func (s *FileStore) List(ctx context.Context, filter *ListFilter) ([]*StoredQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var quotes []*StoredQuote
	err := filepath.WalkDir(s.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		quote, err := readQuote(path)
		if err != nil {
			logging.Warn("skipping unreadable quote file", zap.String("path", path), zap.Error(err))
			return nil
		}
		if filter.Match(quote) {
			quotes = append(quotes, quote)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filter.page(quotes), nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.find(id)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (s *FileStore) Close() error {
	return nil
}
