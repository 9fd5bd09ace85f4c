package resolver

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// shardCount follows the design note to replace a single-lock hash table
// with a sharded concurrent map; 32 shards keeps contention low without
// wasting memory on the typically small number of directories a build
// touches.
const shardCount = 32

type cacheEntry[V any] struct {
	once  sync.Once
	value V
	err   error
}

type shard[V any] struct {
	mutex sync.Mutex
	data  map[string]*cacheEntry[V]
}

// shardedCache is a concurrent key -> value cache where each key's compute
// function runs at most once even when many goroutines race to resolve the
// same directory or manifest at the same time.
type shardedCache[V any] struct {
	shards [shardCount]*shard[V]
}

func newShardedCache[V any]() *shardedCache[V] {
	c := &shardedCache[V]{}
	for i := range c.shards {
		c.shards[i] = &shard[V]{data: make(map[string]*cacheEntry[V])}
	}
	return c
}

func (c *shardedCache[V]) shardFor(key string) *shard[V] {
	return c.shards[xxhash.Sum64String(key)%shardCount]
}

// GetOrCompute returns the cached value for key, computing it via compute on
// the first request and memoizing the result (including errors) for every
// later request with the same key.
func (c *shardedCache[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	s := c.shardFor(key)

	s.mutex.Lock()
	e, ok := s.data[key]
	if !ok {
		e = &cacheEntry[V]{}
		s.data[key] = e
	}
	s.mutex.Unlock()

	e.once.Do(func() {
		e.value, e.err = compute()
	})
	return e.value, e.err
}
