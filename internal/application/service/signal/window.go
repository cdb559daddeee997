// Package signal maintains rolling feature statistics over the quote stream
// and classifies each quote against them.
package signal

// DefaultWindowSize is the number of recent samples kept per feature.
const DefaultWindowSize = 50

// Number is the set of sample types a Window can hold.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Window is a fixed-capacity FIFO buffer that keeps the sum of its contents.
// Pushing into a full window evicts the oldest sample.
type Window[T Number] struct {
	buf  []T
	head int
	size int
	sum  float64
}

// NewWindow allocates a window holding at most capacity samples.
func NewWindow[T Number](capacity int) *Window[T] {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Push appends a sample, evicting the oldest one when the window is full.
func (w *Window[T]) Push(value T) {
	if w.size < len(w.buf) {
		w.buf[(w.head+w.size)%len(w.buf)] = value
		w.size++
		w.sum += float64(value)
		return
	}
	w.buf[w.head] = value
	w.head = (w.head + 1) % len(w.buf)
	// The sum is rebuilt rather than adjusted so it always matches the contents.
	w.resum()
}

// Mean returns the arithmetic mean of the current contents, or zero for an
// empty window.
func (w *Window[T]) Mean() float64 {
	if w.size == 0 {
		return 0
	}
	return w.sum / float64(w.size)
}

// Len reports the number of samples currently held.
func (w *Window[T]) Len() int { return w.size }

// Cap reports the window capacity.
func (w *Window[T]) Cap() int { return len(w.buf) }

// Values returns a copy of the contents, oldest first.
func (w *Window[T]) Values() []T {
	out := make([]T, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

func (w *Window[T]) resum() {
	var sum float64
	for i := 0; i < w.size; i++ {
		sum += float64(w.buf[(w.head+i)%len(w.buf)])
	}
	w.sum = sum
}
