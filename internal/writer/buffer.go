package writer

import (
	"sync"
)

// Buffer is a thread-safe ring buffer that doubles its capacity when
// full, so producers never block on a slow consumer.
type Buffer[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	head   int
	tail   int
	count  int
	closed bool
	grows  int
}

// NewBuffer creates a buffer with the given initial capacity.
func NewBuffer[T any](initialCapacity int) *Buffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	b := &Buffer[T]{items: make([]T, initialCapacity)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send adds an item, growing the buffer if needed. Returns false once
// the buffer is closed.
func (b *Buffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	if b.count == len(b.items) {
		b.grow()
	}

	b.items[b.tail] = item
	b.tail = (b.tail + 1) % len(b.items)
	b.count++

	b.cond.Signal()
	return true
}

// Receive blocks until an item is available or the buffer is closed and
// drained. The second return value is false only in the latter case.
func (b *Buffer[T]) Receive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.take(), true
}

// TryReceive returns the next item without blocking, or false when the
// buffer is empty.
func (b *Buffer[T]) TryReceive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.take(), true
}

// Close stops accepting new items. Receivers drain what remains.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the current capacity.
func (b *Buffer[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// take removes the head item. Caller holds the lock.
func (b *Buffer[T]) take() T {
	item := b.items[b.head]
	var zero T
	b.items[b.head] = zero
	b.head = (b.head + 1) % len(b.items)
	b.count--
	return item
}

// grow doubles capacity, unwrapping the ring. Caller holds the lock.
func (b *Buffer[T]) grow() {
	next := make([]T, len(b.items)*2)
	if b.count > 0 {
		if b.head < b.tail {
			copy(next, b.items[b.head:b.tail])
		} else {
			n := copy(next, b.items[b.head:])
			copy(next[n:], b.items[:b.tail])
		}
	}
	b.items = next
	b.head = 0
	b.tail = b.count
	b.grows++
}
