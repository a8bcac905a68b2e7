package utils

import "sync"

type ConcurrentMap[K comparable, V any] struct {
	internalMap map[K]V
	mu          sync.RWMutex
}

func NewConcurrentMap[K comparable, V any]() *ConcurrentMap[K, V] {
	return &ConcurrentMap[K, V]{
		internalMap: make(map[K]V),
	}
}

func (c *ConcurrentMap[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.internalMap[key] = value
}

func (c *ConcurrentMap[K, V]) Get(key K) (value V, exists bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, exists := c.internalMap[key]
	return val, exists
}

func (c *ConcurrentMap[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.internalMap, key)
}

func (c *ConcurrentMap[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, 0, len(c.internalMap))
	for key := range c.internalMap {
		keys = append(keys, key)
	}
	return keys
}

func (c *ConcurrentMap[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.internalMap)
}
