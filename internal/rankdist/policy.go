package rankdist

import (
	"container/list"
)

// EvictionPolicy decides which cached tables to drop. The cache calls every
// method while holding its own lock, so implementations need no locking.
type EvictionPolicy interface {
	// Admit records a newly published key and returns the keys to evict.
	Admit(key Key) []Key
	// Touch records a cache hit.
	Touch(key Key)
	// Remove forgets a key dropped by the cache.
	Remove(key Key)
}

// NoEviction keeps every table for the lifetime of the cache.
type NoEviction struct{}

func (NoEviction) Admit(Key) []Key { return nil }
func (NoEviction) Touch(Key)       {}
func (NoEviction) Remove(Key)      {}

// LRUPolicy evicts the least recently used tables beyond a fixed capacity.
type LRUPolicy struct {
	capacity int
	lru      *list.List
	elements map[Key]*list.Element
}

// NewLRUPolicy creates an LRU policy holding at most capacity tables
// (minimum 1).
func NewLRUPolicy(capacity int) *LRUPolicy {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUPolicy{
		capacity: capacity,
		lru:      list.New(),
		elements: make(map[Key]*list.Element),
	}
}

func (p *LRUPolicy) Admit(key Key) []Key {
	if e, ok := p.elements[key]; ok {
		p.lru.MoveToFront(e)
		return nil
	}
	p.elements[key] = p.lru.PushFront(key)

	var evicted []Key
	for p.lru.Len() > p.capacity {
		back := p.lru.Back()
		k := back.Value.(Key)
		p.lru.Remove(back)
		delete(p.elements, k)
		evicted = append(evicted, k)
	}
	return evicted
}

func (p *LRUPolicy) Touch(key Key) {
	if e, ok := p.elements[key]; ok {
		p.lru.MoveToFront(e)
	}
}

func (p *LRUPolicy) Remove(key Key) {
	if e, ok := p.elements[key]; ok {
		p.lru.Remove(e)
		delete(p.elements, key)
	}
}

// Capacity returns the maximum number of tables kept.
func (p *LRUPolicy) Capacity() int { return p.capacity }
