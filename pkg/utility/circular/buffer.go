package circular

type Buffer[T any] struct {
	capacity uint

	head  uint
	size  uint
	total uint64
	data  []T
}

func NewBuffer[T any](capacity uint) *Buffer[T] {
	if capacity == 0 {
		panic("capacity must > 0")
	}
	return &Buffer[T]{
		capacity: capacity,
		data:     make([]T, capacity),
	}
}

func (b *Buffer[T]) Capacity() uint {
	return b.capacity
}

func (b *Buffer[T]) Size() uint {
	return b.size
}

func (b *Buffer[T]) IsFull() bool {
	return b.size == b.capacity
}

// Push appends a value, overwriting the oldest entry once the buffer is full.
// Overwrite is the defined behavior, not an error.
func (b *Buffer[T]) Push(value T) {
	b.data[b.head] = value
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
	b.total++
}

// Get returns the idx-th most recent value, Get(0) being the newest.
func (b *Buffer[T]) Get(idx uint) T {
	if idx >= b.size {
		panic("index out of range")
	}
	return b.data[(b.head+b.capacity-1-idx)%b.capacity]
}

// First returns the newest value.
func (b *Buffer[T]) First() T {
	return b.Get(0)
}

// Last returns the oldest retained value.
func (b *Buffer[T]) Last() T {
	return b.Get(b.size - 1)
}

// Data returns the retained values oldest-first.
func (b *Buffer[T]) Data() []T {
	return b.LastN(b.size)
}

// LastN returns up to n most recent values, oldest-first.
func (b *Buffer[T]) LastN(n uint) []T {
	if n > b.size {
		n = b.size
	}
	out := make([]T, n)
	for i := uint(0); i < n; i++ {
		out[i] = b.Get(n - 1 - i)
	}
	return out
}

// Cursor captures the current append position. The cursor is monotonic and
// survives overwrites, which makes it usable for incremental drains.
func (b *Buffer[T]) Cursor() uint64 {
	return b.total
}

// DrainSince returns all values appended after the given cursor, oldest-first.
// If more values were appended than the buffer retains, the overwritten ones
// are silently skipped.
func (b *Buffer[T]) DrainSince(cursor uint64) []T {
	if cursor >= b.total {
		return nil
	}
	pending := b.total - cursor
	if pending > uint64(b.size) {
		pending = uint64(b.size)
	}
	return b.LastN(uint(pending))
}

func (b *Buffer[T]) Clear() {
	b.head = 0
	b.size = 0
}
