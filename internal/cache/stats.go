package cache

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size        int     `json:"size"`
	MaxSize     int     `json:"max_size"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`
	HitRate     float64 `json:"hit_rate"`
	ApproxBytes int     `json:"approx_bytes"`
}

// Stats returns current cache statistics. Size counts only live entries;
// expired entries awaiting a sweep are excluded.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := 0
	approx := 0
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*entry[K, V])
		if c.expiredLocked(e) {
			continue
		}
		live++
		if c.cost != nil {
			approx += c.cost(e.key, e.value)
		} else {
			approx += perEntryOverhead + estimateCost(e.key) + estimateCost(e.value)
		}
	}

	s := Stats{
		Size:        live,
		MaxSize:     c.maxSize,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		ApproxBytes: approx,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// estimateCost gives a rough byte cost for common value shapes. Anything
// unrecognized falls back to a flat word-size guess.
func estimateCost(v any) int {
	switch x := v.(type) {
	case string:
		return len(x)
	case []byte:
		return len(x)
	case []string:
		n := 0
		for _, s := range x {
			n += len(s) + 16
		}
		return n
	default:
		return 8
	}
}
