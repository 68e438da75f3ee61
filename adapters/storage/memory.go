package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory storage backend
type MemoryStore struct {
	quotes map[string]*StoredQuote
	mu     sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotes: make(map[string]*StoredQuote),
	}
}

func (s *MemoryStore) Save(ctx context.Context, quote *StoredQuote) error {
	if err := prepare(quote); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *quote
	s.quotes[quote.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*StoredQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quote, ok := s.quotes[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *quote
	return &cp, nil
}

func (s *MemoryStore) List(ctx context.Context, filter *ListFilter) ([]*StoredQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var quotes []*StoredQuote
	for _, quote := range s.quotes {
		if filter.Match(quote) {
			cp := *quote
			quotes = append(quotes, &cp)
		}
	}
	return filter.page(quotes), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotes[id]; !ok {
		return notFound(id)
	}
	delete(s.quotes, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
