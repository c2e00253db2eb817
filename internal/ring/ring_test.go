package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_AppendWithinCapacity(t *testing.T) {
	b := New[int](5, 3)
	for i := 1; i <= 5; i++ {
		assert.Equal(t, 0, b.Append(i))
	}
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, b.Last(10))
}

func TestBuffer_BatchCompaction(t *testing.T) {
	b := New[int](5, 3)
	for i := 1; i <= 5; i++ {
		b.Append(i)
	}

	dropped := b.Append(6)
	assert.Equal(t, 3, dropped)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []int{4, 5, 6}, b.Last(3))

	// Next appends do not compact until capacity is exceeded again.
	assert.Equal(t, 0, b.Append(7))
	assert.Equal(t, 0, b.Append(8))
	assert.Equal(t, 5, b.Len())
}

func TestBuffer_RetainEqualsCapacity(t *testing.T) {
	b := New[int](3, 3)
	for i := 1; i <= 10; i++ {
		b.Append(i)
		assert.LessOrEqual(t, b.Len(), 3)
	}
	assert.Equal(t, []int{8, 9, 10}, b.Last(3))
}

func TestBuffer_NeverBelowRetainAndKeepsOrder(t *testing.T) {
	b := New[int](300, 200)
	for i := 0; i < 1000; i++ {
		b.Append(i)
		assert.GreaterOrEqual(t, b.Len(), min(i+1, 200))
	}
	prev := -1
	b.Each(func(v int) bool {
		assert.Greater(t, v, prev)
		prev = v
		return true
	})
}

func TestBuffer_LastIsACopy(t *testing.T) {
	b := New[int](4, 2)
	b.Append(1)
	b.Append(2)
	out := b.Last(2)
	out[0] = 99
	assert.Equal(t, 1, b.At(0))

	held := b.Last(2)
	b.Append(3)
	b.Append(4)
	b.Append(5)
	assert.Equal(t, []int{1, 2}, held)
}

func TestBuffer_LastBounds(t *testing.T) {
	b := New[string](3, 3)
	assert.Empty(t, b.Last(2))
	assert.NotNil(t, b.Last(0))
	b.Append("a")
	assert.Equal(t, []string{"a"}, b.Last(5))
	assert.Empty(t, b.Last(-1))
}

func TestNew_ClampsArguments(t *testing.T) {
	b := New[int](0, 0)
	assert.Equal(t, 1, b.Capacity())
	b.Append(1)
	b.Append(2)
	assert.Equal(t, []int{2}, b.Last(1))

	b = New[int](4, 9)
	for i := 0; i < 5; i++ {
		b.Append(i)
	}
	assert.Equal(t, 4, b.Len())
}

func TestBuffer_WrapsAroundInOrder(t *testing.T) {
	b := New[int](4, 4)
	for i := 1; i <= 7; i++ {
		b.Append(i)
	}
	assert.Equal(t, []int{4, 5, 6, 7}, b.Last(4))
	assert.Equal(t, []int{6, 7}, b.Last(2))
	assert.Equal(t, 4, b.At(0))
	assert.Equal(t, 7, b.At(3))

	var seen []int
	b.Each(func(v int) bool {
		seen = append(seen, v)
		return true
	})
	assert.Equal(t, []int{4, 5, 6, 7}, seen)
	assert.Panics(t, func() { b.At(4) })
}

func TestBuffer_AppendAtCapacityDoesNotAllocate(t *testing.T) {
	type post struct {
		id   int
		text string
	}
	for _, retain := range []int{2000, 1500} {
		b := New[post](2000, retain)
		for i := 0; i < 2000; i++ {
			b.Append(post{id: i})
		}
		n := 2000
		allocs := testing.AllocsPerRun(1000, func() {
			n++
			b.Append(post{id: n, text: "note"})
		})
		assert.Zero(t, allocs, "retain %d", retain)
		assert.LessOrEqual(t, b.Len(), 2000)
		assert.Equal(t, n, b.Last(1)[0].id)
	}
}
