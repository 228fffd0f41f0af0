package stoj

import (
	"sync"
	"time"
)

// pendingTTL bounds how long the content type of an unfinished session is
// kept. Sessions left orphaned on the store are never committed here, so
// their entries are swept rather than held for the life of the process.
const pendingTTL = 24 * time.Hour

type pendingType struct {
	contentType string
	added       time.Time
}

// pendingTypes holds the content type of each open session until commit or
// abort. Expired entries are dropped whenever a new one is remembered.
type pendingTypes struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]pendingType
}

func newPendingTypes(ttl time.Duration) *pendingTypes {
	return &pendingTypes{ttl: ttl, now: time.Now, entries: make(map[string]pendingType)}
}

func (p *pendingTypes) remember(uploadID, contentType string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for id, e := range p.entries {
		if now.Sub(e.added) > p.ttl {
			delete(p.entries, id)
		}
	}
	p.entries[uploadID] = pendingType{contentType: contentType, added: now}
}

func (p *pendingTypes) lookup(uploadID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[uploadID]
	return e.contentType, ok
}

func (p *pendingTypes) forget(uploadID string) {
	p.mu.Lock()
	delete(p.entries, uploadID)
	p.mu.Unlock()
}

func (p *pendingTypes) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
