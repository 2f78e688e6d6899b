package pipeline

// Batcher groups items into fixed-size batches. It is fed by a single
// reader goroutine and is not safe for concurrent use.
type Batcher[T any] struct {
	size int
	buf  []T
}

// NewBatcher returns a batcher emitting batches of exactly size items,
// except for the final Flush which may be shorter.
func NewBatcher[T any](size int) *Batcher[T] {
	if size <= 0 {
		size = 1
	}
	return &Batcher[T]{size: size, buf: make([]T, 0, size)}
}

// Add appends one item. It returns a full batch exactly when the size
// threshold is reached; the caller dispatches it immediately.
func (b *Batcher[T]) Add(item T) ([]T, bool) {
	b.buf = append(b.buf, item)
	if len(b.buf) < b.size {
		return nil, false
	}
	full := b.buf
	b.buf = make([]T, 0, b.size)
	return full, true
}

// Flush drains the remaining short batch at end of input, if any.
func (b *Batcher[T]) Flush() ([]T, bool) {
	if len(b.buf) == 0 {
		return nil, false
	}
	rest := b.buf
	b.buf = make([]T, 0, b.size)
	return rest, true
}

// Pending reports how many items are buffered awaiting a full batch.
func (b *Batcher[T]) Pending() int {
	return len(b.buf)
}
