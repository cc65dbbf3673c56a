// Package texpool manages the pool of intermediate image buffers each stage
// dispatch reads from and writes to. Allocation is expensive relative to a
// render (a 24 MP RGBA32F buffer is ~400MB), so buffers are keyed by the
// stage that produced them plus dimensions and reused across renders when
// the key matches, following the same refcount-plus-LRU-sweep shape as
// gogpu/gg's internal/gpu memory manager and internal/parallel tile pool.
package texpool

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/marcinz606/NegPy/negpyerr"
)

// Allocator creates and destroys the Backing storage behind a Texture. The
// default Pool uses a CPU allocator (plain []float32 slices); a GPU backend
// registers its own Allocator that wraps hal.Texture creation/destruction.
type Allocator interface {
	Alloc(key Key) (Backing, error)
	Free(key Key, backing Backing)
}

// cpuAllocator is the software-mode default: a flat float32 slice sized for
// 3 channels per pixel (tightly packed RGB, stride == width*3), matching
// imgbuf.Buffer's layout exactly so a Texture's Backing can be wrapped as an
// imgbuf.Buffer view with no copy.
type cpuAllocator struct{}

func (cpuAllocator) Alloc(key Key) (Backing, error) {
	return make([]float32, key.Width*key.Height*3), nil
}

func (cpuAllocator) Free(Key, Backing) {}

// freeEntry is the value stored in the LRU for a currently-unreferenced
// texture awaiting reuse or sweep.
type freeEntry struct {
	tex *Texture
}

// Pool hands out Texture allocations keyed by Key, reusing a freed texture
// of matching shape before allocating a new one, and reclaiming backing
// storage only after a texture has both zero references and a signaled
// fence.
type Pool struct {
	mu        sync.Mutex
	alloc     Allocator
	free      *lru.Cache // texture id -> freeEntry (LRU tracks overall recency of release)
	freeByKey map[Key][]*Texture
	live      map[uint64]*Texture
	nextID    uint64
	renderID  uint64
}

// sweepAge is how many renders a zero-ref, fence-signaled texture survives
// in the free list before Sweep reclaims its backing storage.
const sweepAge = 2

// New constructs a Pool. capacity bounds the LRU's recency-tracking list
// (not a hard allocation cap — Sweep, not eviction, frees backing memory).
func New(alloc Allocator, capacity int) *Pool {
	if alloc == nil {
		alloc = cpuAllocator{}
	}
	if capacity <= 0 {
		capacity = 256
	}
	c, _ := lru.New(capacity)
	return &Pool{
		alloc:     alloc,
		free:      c,
		freeByKey: make(map[Key][]*Texture),
		live:      make(map[uint64]*Texture),
	}
}

// BeginRender advances the render counter. Callers invoke this once per
// render_preview/render_export/compute_metrics dispatch so Sweep can judge
// how stale a free texture is.
func (p *Pool) BeginRender() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderID++
	return p.renderID
}

// Acquire returns a Texture for key, reusing the most recently released
// matching texture if one is free, or allocating a new one otherwise. The
// returned texture has refcount 1.
func (p *Pool) Acquire(key Key) (*Texture, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stack := p.freeByKey[key]; len(stack) > 0 {
		tex := stack[len(stack)-1]
		p.freeByKey[key] = stack[:len(stack)-1]
		p.free.Remove(tex.id)
		tex.refcount = 1
		tex.fenceSignaled = false
		tex.lastUsedRender = p.renderID
		return tex, nil
	}

	backing, err := p.alloc.Alloc(key)
	if err != nil {
		return nil, negpyerr.Wrap(negpyerr.GpuOutOfMemory, "texture allocation failed: "+key.String(), err)
	}
	p.nextID++
	tex := &Texture{
		Key:            key,
		Backing:        backing,
		id:             p.nextID,
		refcount:       1,
		fenceSignaled:  false,
		lastUsedRender: p.renderID,
	}
	p.live[tex.id] = tex
	return tex, nil
}

// Retain increments a texture's reference count. Call when a second stage
// keeps a handle to an already-acquired texture (e.g. the histogram readback
// holding the Normalization output after Transform has also taken it).
func (p *Pool) Retain(tex *Texture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tex.refcount++
}

// Release drops a texture's reference count. When it reaches zero the
// texture becomes eligible for reuse by a later Acquire with a matching key,
// or for reclamation by Sweep once it ages out and its fence is signaled.
func (p *Pool) Release(tex *Texture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tex.refcount == 0 {
		return
	}
	tex.refcount--
	if tex.refcount > 0 {
		return
	}
	tex.lastUsedRender = p.renderID
	p.freeByKey[tex.Key] = append(p.freeByKey[tex.Key], tex)
	p.free.Add(tex.id, freeEntry{tex: tex})
}

// SignalFence marks a texture's last writing command buffer complete. The
// engine calls it synchronously once the stage that wrote the texture has
// returned, just before releasing it, since the CPU path has no async
// command buffer to wait on. Acquire clears the flag again.
func (p *Pool) SignalFence(tex *Texture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tex.fenceSignaled = true
}

// Sweep reclaims backing storage for free textures that are both
// fence-signaled and older than sweepAge renders. It never touches a
// texture with a nonzero refcount or an unsignaled fence, satisfying the
// invariant that in-flight buffers are never freed out from under a
// dispatch.
func (p *Pool) Sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, stack := range p.freeByKey {
		kept := stack[:0]
		for _, tex := range stack {
			stale := tex.fenceSignaled && p.renderID-tex.lastUsedRender >= sweepAge
			if stale {
				p.free.Remove(tex.id)
				delete(p.live, tex.id)
				p.alloc.Free(tex.Key, tex.Backing)
				continue
			}
			kept = append(kept, tex)
		}
		if len(kept) == 0 {
			delete(p.freeByKey, key)
		} else {
			p.freeByKey[key] = kept
		}
	}
}

// Stats reports the pool's current live and free counts, for diagnostics
// and tests.
func (p *Pool) Stats() (live, free int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live), p.free.Len()
}
