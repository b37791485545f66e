package cas

import (
	"container/list"
	"io"
	"sync"
)

// LRUCache is a CAS wrapper that caches serialized entries with LRU eviction
type LRUCache struct {
	underlying CAS
	mu         sync.Mutex
	cache      map[Hash]*list.Element
	evictList  *list.List
	maxSize    int
	hits       int
	misses     int
}

type cacheEntry struct {
	hash  Hash
	value []byte
}

// NewLRUCache creates a new LRU-cached CAS wrapper
// maxSize is the maximum number of entries to cache (0 or negative means the default)
func NewLRUCache(underlying CAS, maxSize int) *LRUCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &LRUCache{
		underlying: underlying,
		cache:      make(map[Hash]*list.Element),
		evictList:  list.New(),
		maxSize:    maxSize,
	}
}

func (l *LRUCache) Put(item Hashable) (Hash, error) {
	return l.underlying.Put(item)
}

func (l *LRUCache) Has(hash Hash) bool {
	return l.underlying.Has(hash)
}

func (l *LRUCache) getReader(hash Hash) (bool, io.Reader, error) {
	return l.underlying.getReader(hash)
}

// getValue implements directStore; this is where caching happens
func (l *LRUCache) getValue(h Hash) (bool, []byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elem, ok := l.cache[h]; ok {
		l.evictList.MoveToFront(elem)
		l.hits++
		return true, elem.Value.(*cacheEntry).value, nil
	}
	l.misses++

	underlying, ok := l.underlying.(directStore)
	if !ok {
		return false, nil, nil
	}
	has, data, err := underlying.getValue(h)
	if err != nil || !has {
		return false, nil, err
	}
	l.addToCache(h, data)
	return true, data, nil
}

func (l *LRUCache) addToCache(hash Hash, value []byte) {
	if elem, ok := l.cache[hash]; ok {
		l.evictList.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := l.evictList.PushFront(&cacheEntry{hash: hash, value: value})
	l.cache[hash] = elem

	if l.evictList.Len() > l.maxSize {
		l.evictOldest()
	}
}

func (l *LRUCache) evictOldest() {
	elem := l.evictList.Back()
	if elem != nil {
		l.evictList.Remove(elem)
		delete(l.cache, elem.Value.(*cacheEntry).hash)
	}
}

// CacheStats returns cache statistics for monitoring
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    int
	Misses  int
}

func (l *LRUCache) Stats() CacheStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CacheStats{
		Size:    len(l.cache),
		MaxSize: l.maxSize,
		Hits:    l.hits,
		Misses:  l.misses,
	}
}

func (l *LRUCache) RecordVisit(hash Hash, round int) {
	l.underlying.RecordVisit(hash, round)
}

func (l *LRUCache) Visits(hash Hash) []int {
	return l.underlying.Visits(hash)
}
