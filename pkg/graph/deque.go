package graph

// deque is the FIFO frontier used by breadth-first traversal: push at the
// back, pop at the front, amortized O(1) both ways via a ring buffer.
//
// It exists as its own type, distinct from the LIFO stack used by
// depth-first traversal, so the two frontier disciplines cannot be mixed
// up. Breadth-first order is only correct under strict FIFO dequeuing.
type deque struct {
	buf   []string
	head  int
	count int
}

func newDeque() *deque {
	return &deque{buf: make([]string, 8)}
}

func (d *deque) len() int {
	return d.count
}

// pushBack appends id at the back of the queue.
func (d *deque) pushBack(id string) {
	if d.count == len(d.buf) {
		d.grow()
	}
	d.buf[(d.head+d.count)%len(d.buf)] = id
	d.count++
}

// popFront removes and returns the front of the queue.
// Panics when the queue is empty; callers check len first.
func (d *deque) popFront() string {
	if d.count == 0 {
		panic("popFront on empty deque")
	}
	id := d.buf[d.head]
	// Nil out the slot so the backing array does not retain the string.
	d.buf[d.head] = ""
	d.head = (d.head + 1) % len(d.buf)
	d.count--
	return id
}

func (d *deque) grow() {
	next := make([]string, 2*len(d.buf))
	for i := 0; i < d.count; i++ {
		next[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	d.buf = next
	d.head = 0
}
