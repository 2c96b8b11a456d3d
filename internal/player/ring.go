package player

import (
	"sync/atomic"
	"time"
)

// block is a fixed-size chunk of decoded audio at the controller rate.
type block struct {
	frames [][2]float64
	n      int           // valid frames
	off    int           // consumed frames; render side only
	gen    uint64        // seek generation that produced the block
	start  time.Duration // source position of frames[0]
}

// ring is a single-producer single-consumer queue of blocks. The loader
// owns blocks between reserve and commit; the render side owns them
// between peek and release. All storage is allocated up front.
type ring struct {
	blocks []block
	head   atomic.Uint64 // next block to read; advanced by the consumer
	tail   atomic.Uint64 // next block to write; advanced by the producer
}

func newRing(nblocks, frames int) *ring {
	r := &ring{blocks: make([]block, nblocks)}
	for i := range r.blocks {
		r.blocks[i].frames = make([][2]float64, frames)
	}
	return r
}

// reserve returns the next free block, reset, or nil when the ring is full.
func (r *ring) reserve() *block {
	t := r.tail.Load()
	if t-r.head.Load() >= uint64(len(r.blocks)) {
		return nil
	}
	b := &r.blocks[t%uint64(len(r.blocks))]
	b.n, b.off = 0, 0
	return b
}

// commit publishes the reserved block.
func (r *ring) commit() { r.tail.Add(1) }

// peek returns the oldest published block, or nil when empty.
func (r *ring) peek() *block {
	h := r.head.Load()
	if h == r.tail.Load() {
		return nil
	}
	return &r.blocks[h%uint64(len(r.blocks))]
}

// release hands the oldest block back to the producer.
func (r *ring) release() { r.head.Add(1) }

// len returns the number of published blocks.
func (r *ring) len() int { return int(r.tail.Load() - r.head.Load()) }

// blockFrames returns the capacity of one block.
func (r *ring) blockFrames() int { return len(r.blocks[0].frames) }
