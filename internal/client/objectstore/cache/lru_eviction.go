package cache

import (
	"container/list"
	"sync"
)

var _ EvictionPolicy = (*LRUEvictionPolicy)(nil)

type lruEntry struct {
	key  string
	size int64
}

// LRUEvictionPolicy tracks cached object bodies by recency and evicts the
// least recently used ones once their total size exceeds the limit.
type LRUEvictionPolicy struct {
	mu      sync.Mutex
	limit   int64
	size    int64
	entries map[string]*list.Element
	// recency holds *lruEntry values, most recently used at the front.
	recency *list.List
}

// NewLRUEvictionPolicy creates an LRU policy holding at most limit bytes.
// A limit of zero or less never evicts.
func NewLRUEvictionPolicy(limit int64) *LRUEvictionPolicy {
	return &LRUEvictionPolicy{
		limit:   limit,
		entries: make(map[string]*list.Element),
		recency: list.New(),
	}
}

// Access marks key as the most recently used entry.
func (p *LRUEvictionPolicy) Access(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elem, ok := p.entries[key]; ok {
		p.recency.MoveToFront(elem)
	}
}

// Add records key with its body size and returns the keys whose bodies must
// be dropped from cache storage, oldest first. The returned keys may include
// key itself when it alone exceeds the limit.
func (p *LRUEvictionPolicy) Add(key string, size int64) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elem, ok := p.entries[key]; ok {
		entry := elem.Value.(*lruEntry)
		p.size += size - entry.size
		entry.size = size
		p.recency.MoveToFront(elem)
	} else {
		p.entries[key] = p.recency.PushFront(&lruEntry{key: key, size: size})
		p.size += size
	}
	return p.trim()
}

// Remove forgets key. Unknown keys are ignored.
func (p *LRUEvictionPolicy) Remove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elem, ok := p.entries[key]; ok {
		p.drop(elem)
	}
}

// Size returns the tracked total size.
func (p *LRUEvictionPolicy) Size() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Len returns the number of tracked entries.
func (p *LRUEvictionPolicy) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recency.Len()
}

func (p *LRUEvictionPolicy) trim() []string {
	if p.limit <= 0 {
		return nil
	}

	var evicted []string
	for p.size > p.limit {
		oldest := p.recency.Back()
		if oldest == nil {
			break
		}
		evicted = append(evicted, p.drop(oldest))
	}
	return evicted
}

func (p *LRUEvictionPolicy) drop(elem *list.Element) string {
	entry := p.recency.Remove(elem).(*lruEntry)
	delete(p.entries, entry.key)
	p.size -= entry.size
	return entry.key
}
