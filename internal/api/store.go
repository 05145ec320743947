package api

import "sync"

const defaultStoreCapacity = 256

// TranslationStore keeps the most recent translations so clients can fetch a
// result again by id. Once full, the oldest entry is evicted.
type TranslationStore struct {
	mu       sync.Mutex
	capacity int
	order    []string
	records  map[string]TranslateResponse
}

func NewTranslationStore(capacity int) *TranslationStore {
	if capacity <= 0 {
		capacity = defaultStoreCapacity
	}
	return &TranslationStore{
		capacity: capacity,
		records:  make(map[string]TranslateResponse, capacity),
	}
}

func (s *TranslationStore) Save(resp TranslateResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[resp.ID]; !ok {
		if len(s.order) == s.capacity {
			delete(s.records, s.order[0])
			s.order = s.order[1:]
		}
		s.order = append(s.order, resp.ID)
	}
	s.records[resp.ID] = resp
}

func (s *TranslationStore) Get(id string) (TranslateResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.records[id]
	return resp, ok
}

func (s *TranslationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
