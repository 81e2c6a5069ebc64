package membench

// DefaultFlushBytes is large enough to evict most L3 caches.
const DefaultFlushBytes = 64 * 1024 * 1024

// CacheFlusher evicts the CPU caches by writing one byte per cache line of a
// buffer larger than the last-level cache.
type CacheFlusher struct {
	buf []byte
}

// NewCacheFlusher allocates the eviction buffer once. A non-positive size
// means DefaultFlushBytes.
func NewCacheFlusher(size int) *CacheFlusher {
	if size <= 0 {
		size = DefaultFlushBytes
	}
	return &CacheFlusher{buf: make([]byte, size)}
}

// Flush touches every cache line twice with different patterns so the lines
// are dirtied and replaced rather than just read.
func (f *CacheFlusher) Flush() {
	for i := 0; i < len(f.buf); i += CacheLineSize {
		f.buf[i] = byte(i % 256)
	}
	for i := 0; i < len(f.buf); i += CacheLineSize {
		f.buf[i] = byte((i * 7) % 256)
	}
}

// Size returns the eviction buffer size in bytes.
func (f *CacheFlusher) Size() int {
	return len(f.buf)
}
