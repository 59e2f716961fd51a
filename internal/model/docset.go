package model

// DocumentSet is an insertion-ordered collection of documents keyed by URL.
// Both raw and curated category data use it: search results are appended in
// encounter order, and curated sets are rebuilt in descending-score order,
// so iteration order is always rank order. Put keeps the first document seen
// under a key and drops later ones, which makes "first-seen wins"
// deduplication deterministic.
type DocumentSet struct {
	keys []string
	docs map[string]*Document
}

// NewDocumentSet returns an empty document set.
func NewDocumentSet() *DocumentSet {
	return &DocumentSet{docs: make(map[string]*Document)}
}

// Put inserts doc under key. The first document under a given key wins;
// returns false if the key was already present.
func (s *DocumentSet) Put(key string, doc *Document) bool {
	if _, exists := s.docs[key]; exists {
		return false
	}
	s.keys = append(s.keys, key)
	s.docs[key] = doc
	return true
}

// Get returns the document stored under key.
func (s *DocumentSet) Get(key string) (*Document, bool) {
	d, ok := s.docs[key]
	return d, ok
}

// Len returns the number of documents in the set.
func (s *DocumentSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keys in insertion order.
func (s *DocumentSet) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Each calls fn for every (key, document) pair in insertion order.
func (s *DocumentSet) Each(fn func(key string, doc *Document)) {
	if s == nil {
		return
	}
	for _, k := range s.keys {
		fn(k, s.docs[k])
	}
}
