package ps

// RecordCache caches decoded data records. Persistence fills it while
// holding its read lock and invalidates it while holding its write lock, so
// a cached value is never older than the last committed write.
type RecordCache interface {
	Get(key string) (any, bool)
	Add(key string, value any)
	Remove(key string)
	Clear()
}

// SetCache attaches a record cache. Passing nil detaches it.
func (p *Persistence) SetCache(c RecordCache) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = c
}

func (p *Persistence) invalidate(bucket, key string) {
	if p.cache != nil && bucket == dataBucket {
		p.cache.Remove(key)
	}
}
