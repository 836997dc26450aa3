package embedding

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// EmbeddingCache is an LRU cache for embeddings.
type EmbeddingCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value []float32
}

// NewEmbeddingCache creates a new cache with the given capacity.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &EmbeddingCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached embedding for key if present. A hit refreshes the entry, so
// Get takes the write lock.
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// Set stores the embedding for key, evicting the oldest entry if at capacity.
func (c *EmbeddingCache) Set(key string, value []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	entry := &cacheEntry{key: key, value: value}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// CachedEmbedder wraps an Embedder with an LRU cache keyed by modality and content.
// Returned slices are shared between callers and must not be modified.
type CachedEmbedder struct {
	Embedder
	cache *EmbeddingCache
}

// NewCachedEmbedder decorates e with a cache of the given capacity.
func NewCachedEmbedder(e Embedder, capacity int) *CachedEmbedder {
	return &CachedEmbedder{Embedder: e, cache: NewEmbeddingCache(capacity)}
}

// EmbedText returns the cached text embedding or computes and stores it.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := "text:" + text
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.Embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, v)
	return v, nil
}

// EmbedImage returns the cached image embedding or computes and stores it.
func (c *CachedEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	sum := sha256.Sum256(image)
	key := "image:" + hex.EncodeToString(sum[:])
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.Embedder.EmbedImage(ctx, image)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, v)
	return v, nil
}
