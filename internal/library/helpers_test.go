package library

import (
	"context"
	"errors"
	"sync"

	"github.com/ogero/mediacatalog/internal/store"
	"github.com/ogero/mediacatalog/pkg/catalog"
	"github.com/ogero/mediacatalog/pkg/manifest"
)

func ptr[T any](v T) *T {
	return &v
}

// memStore is an ordered in-memory store that can reject puts for chosen ids.
type memStore struct {
	mu       sync.Mutex
	order    []string
	items    map[string]catalog.Item
	failIDs  map[string]bool
	failAll  bool
	puts     int
	getAlls  int
	getAllFn func() error
}

func newMemStore() *memStore {
	return &memStore{items: map[string]catalog.Item{}, failIDs: map[string]bool{}}
}

func (m *memStore) Put(_ context.Context, item catalog.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failAll || m.failIDs[item.ID] {
		return &store.StorageError{Op: "put", Err: errors.New("quota exceeded")}
	}
	if _, ok := m.items[item.ID]; !ok {
		m.order = append(m.order, item.ID)
	}
	m.items[item.ID] = item
	return nil
}

func (m *memStore) GetAll(_ context.Context) ([]catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getAlls++
	if m.getAllFn != nil {
		if err := m.getAllFn(); err != nil {
			return nil, &store.StorageError{Op: "get_all", Err: err}
		}
	}
	items := make([]catalog.Item, 0, len(m.order))
	for _, id := range m.order {
		items = append(items, m.items[id])
	}
	return items, nil
}

func (m *memStore) Close() error {
	return nil
}

// stubFetcher returns fixed records or a fixed error and counts its calls.
type stubFetcher struct {
	records []catalog.RawItem
	err     error
	calls   int
}

func (f *stubFetcher) Fetch(context.Context) ([]catalog.RawItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func fetchErr(err error) *stubFetcher {
	return &stubFetcher{err: &manifest.ManifestFetchError{URL: "http://manifest.test/catalog.json", Err: err}}
}
