package ecs_test

import (
	"slices"
	"testing"

	"github.com/plus3/klayecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntBag(t *testing.T) {
	t.Run("remove by value swaps in the last element", func(t *testing.T) {
		bag := ecs.NewIntBag(4)
		for _, v := range []int{10, 20, 30, 40} {
			bag.Add(v)
		}

		idx := bag.Remove(20)
		assert.Equal(t, 1, idx)
		assert.Equal(t, 3, bag.Len())
		assert.ElementsMatch(t, []int{10, 30, 40}, slices.Collect(bag.Values()))
		assert.Equal(t, 40, bag.Get(1))
	})

	t.Run("removing an absent value is a no-op", func(t *testing.T) {
		bag := ecs.NewIntBag(4)
		bag.Add(1)
		bag.Add(2)
		assert.Equal(t, ecs.NotFound, bag.Remove(3))
		assert.Equal(t, 2, bag.Len())
	})

	t.Run("add grows from the zero value", func(t *testing.T) {
		var bag ecs.IntBag
		for i := range 100 {
			assert.Equal(t, i+1, bag.Add(i))
		}
		require.Equal(t, 100, bag.Len())
		for i := range 100 {
			assert.Equal(t, i, bag.Get(i))
		}
	})

	t.Run("remove at and remove last", func(t *testing.T) {
		bag := ecs.NewIntBag(0)
		bag.Add(1)
		bag.Add(2)
		bag.Add(3)

		assert.Equal(t, 1, bag.RemoveAt(0))
		assert.Equal(t, []int{3, 2}, slices.Collect(bag.Values()))
		assert.Equal(t, 2, bag.RemoveLast())
		assert.Equal(t, []int{3}, slices.Collect(bag.Values()))
	})

	t.Run("contains and clear", func(t *testing.T) {
		bag := ecs.NewIntBag(2)
		bag.Add(5)
		assert.True(t, bag.Contains(5))
		assert.False(t, bag.Contains(6))

		bag.Clear()
		assert.True(t, bag.IsEmpty())
		assert.False(t, bag.Contains(5))
	})

	t.Run("get past the size panics", func(t *testing.T) {
		bag := ecs.NewIntBag(8)
		bag.Add(1)
		assert.Panics(t, func() { bag.Get(1) })
	})

	t.Run("string", func(t *testing.T) {
		bag := ecs.NewIntBag(2)
		bag.Add(1)
		bag.Add(2)
		assert.Equal(t, "{1,2}", bag.String())
	})
}
