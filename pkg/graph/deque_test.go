package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeque_FIFO(t *testing.T) {
	d := newDeque()
	d.pushBack("a")
	d.pushBack("b")
	d.pushBack("c")

	assert.Equal(t, 3, d.len())
	assert.Equal(t, "a", d.popFront())
	assert.Equal(t, "b", d.popFront())
	assert.Equal(t, "c", d.popFront())
	assert.Equal(t, 0, d.len())
}

// Interleaved pushes and pops force the ring to wrap and then grow; the
// FIFO order must survive both.
func TestDeque_WrapAndGrow(t *testing.T) {
	d := newDeque()

	for i := 0; i < 6; i++ {
		d.pushBack(fmt.Sprintf("x%d", i))
	}
	for i := 0; i < 4; i++ {
		require.Equal(t, fmt.Sprintf("x%d", i), d.popFront())
	}
	// head is now mid-buffer; these pushes wrap, then exceed capacity.
	for i := 6; i < 20; i++ {
		d.pushBack(fmt.Sprintf("x%d", i))
	}

	var got []string
	for d.len() > 0 {
		got = append(got, d.popFront())
	}

	var want []string
	for i := 4; i < 20; i++ {
		want = append(want, fmt.Sprintf("x%d", i))
	}
	assert.Equal(t, want, got)
}

func TestDeque_PopEmptyPanics(t *testing.T) {
	d := newDeque()
	assert.Panics(t, func() { d.popFront() })
}
