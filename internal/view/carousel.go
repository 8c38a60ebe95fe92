package view

import (
	"errors"
	"sync"
)

var ErrIndexOutOfRange = errors.New("view: carousel index out of range")

// Carousel is the one-card-at-a-time navigation over the daily entries.
// It is local presentation state and resets to the first card whenever a
// new forecast (a new store generation) is synced in.
type Carousel struct {
	mu         sync.Mutex
	loop       bool
	size       int
	current    int
	generation uint64
}

func NewCarousel(loop bool) *Carousel {
	return &Carousel{loop: loop}
}

// Sync points the carousel at the result of generation with size cards.
func (c *Carousel) Sync(generation uint64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked(generation, size)
}

func (c *Carousel) syncLocked(generation uint64, size int) {
	if size < 0 {
		size = 0
	}
	if generation != c.generation || size != c.size {
		c.generation = generation
		c.size = size
		c.current = 0
	}
}

// Snapshot syncs to generation and size and returns the position together with
// the indicators, all under one lock.
func (c *Carousel) Snapshot(generation uint64, size int) (int, []bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked(generation, size)
	return c.current, c.indicatorsLocked()
}

func (c *Carousel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = 0
	c.current = 0
	c.generation = 0
}

func (c *Carousel) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.size == 0 {
		return 0
	}
	switch {
	case c.current < c.size-1:
		c.current++
	case c.loop:
		c.current = 0
	}
	return c.current
}

func (c *Carousel) Prev() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.size == 0 {
		return 0
	}
	switch {
	case c.current > 0:
		c.current--
	case c.loop:
		c.current = c.size - 1
	}
	return c.current
}

// MoveToIdx jumps to idx. Out-of-range indices are rejected and the
// position is left unchanged.
func (c *Carousel) MoveToIdx(idx int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx < 0 || idx >= c.size {
		return ErrIndexOutOfRange
	}
	c.current = idx
	return nil
}

func (c *Carousel) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Carousel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Indicators has one entry per card, true for the card on display.
func (c *Carousel) Indicators() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indicatorsLocked()
}

func (c *Carousel) indicatorsLocked() []bool {
	out := make([]bool, c.size)
	if c.size > 0 {
		out[c.current] = true
	}
	return out
}
