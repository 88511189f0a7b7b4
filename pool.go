package focuspeak

import "sync"

// bitmapPool reuses per-frame host bitmaps, grouped by dimensions.
//
// Every per-frame object (edge map, composite canvas) is created and
// released within a single frame, so consecutive frames of the same size
// hit the pool instead of the allocator.
//
// Thread safety: all methods are safe for concurrent use.
type bitmapPool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*Bitmap
	maxSize int // max bitmaps retained per bucket
}

type poolKey struct {
	width  int
	height int
}

func newBitmapPool(maxPerBucket int) *bitmapPool {
	return &bitmapPool{
		buckets: make(map[poolKey][]*Bitmap),
		maxSize: maxPerBucket,
	}
}

// get retrieves a bitmap from the pool or allocates a new one.
// Reused bitmaps are returned zeroed.
func (p *bitmapPool) get(width, height int) *Bitmap {
	key := poolKey{width: width, height: height}

	p.mu.Lock()
	bucket := p.buckets[key]
	if len(bucket) > 0 {
		b := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		b.Clear(0, 0, 0, 0)
		return b
	}
	p.mu.Unlock()

	return NewBitmap(width, height)
}

// put returns a bitmap to the pool. Full buckets discard the bitmap.
func (p *bitmapPool) put(b *Bitmap) {
	if b == nil {
		return
	}

	key := poolKey{width: b.width, height: b.height}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, b)
}

// defaultPool backs ReleaseBitmap and the engines' per-frame allocations.
var defaultPool = newBitmapPool(8)

// GetBitmap retrieves a zeroed bitmap from the shared per-frame pool.
func GetBitmap(width, height int) *Bitmap {
	return defaultPool.get(width, height)
}

// ReleaseBitmap returns a bitmap to the shared pool for reuse.
// Callers must not touch the bitmap after releasing it.
func ReleaseBitmap(b *Bitmap) {
	defaultPool.put(b)
}
