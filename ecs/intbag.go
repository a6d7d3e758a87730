package ecs

import (
	"iter"
	"strconv"
	"strings"
)

// NotFound is returned by IntBag.Remove when the value is absent.
const NotFound = -1

// Entities is a read-only view over a set of entity ids. Order is arbitrary.
type Entities interface {
	Len() int
	Get(index int) int
}

// IntBag is an unordered collection of ints with amortized O(1) add
// and swap-with-last removal.
type IntBag struct {
	elems []int
	size  int
}

// NewIntBag creates a bag with the given initial capacity.
func NewIntBag(capacity int) *IntBag {
	return &IntBag{elems: make([]int, capacity)}
}

// Len returns the number of elements in the bag.
func (b *IntBag) Len() int { return b.size }

// IsEmpty reports whether the bag holds no elements.
func (b *IntBag) IsEmpty() bool { return b.size == 0 }

// Get returns the element at index.
func (b *IntBag) Get(index int) int {
	return b.elems[:b.size][index]
}

// Contains reports whether elem is in the bag.
func (b *IntBag) Contains(elem int) bool {
	for _, e := range b.elems[:b.size] {
		if e == elem {
			return true
		}
	}
	return false
}

// Add appends elem and returns the new size.
func (b *IntBag) Add(elem int) int {
	if b.size == len(b.elems) {
		b.expand(len(b.elems)*3/2 + 1)
	}
	b.elems[b.size] = elem
	b.size++
	return b.size
}

// RemoveAt removes and returns the element at index, moving the last element into its slot.
func (b *IntBag) RemoveAt(index int) int {
	elem := b.elems[:b.size][index]
	b.size--
	b.elems[index] = b.elems[b.size]
	return elem
}

// Remove removes the first occurrence of elem and returns the index it
// occupied, or NotFound if elem is absent.
func (b *IntBag) Remove(elem int) int {
	for i, e := range b.elems[:b.size] {
		if e == elem {
			b.size--
			b.elems[i] = b.elems[b.size]
			return i
		}
	}
	return NotFound
}

// RemoveLast removes and returns the last element.
func (b *IntBag) RemoveLast() int {
	b.size--
	return b.elems[b.size]
}

// Clear empties the bag, keeping its capacity.
func (b *IntBag) Clear() {
	b.size = 0
}

// Values iterates the elements in storage order.
func (b *IntBag) Values() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, e := range b.elems[:b.size] {
			if !yield(e) {
				return
			}
		}
	}
}

func (b *IntBag) expand(capacity int) {
	grown := make([]int, capacity)
	copy(grown, b.elems[:b.size])
	b.elems = grown
}

func (b *IntBag) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range b.elems[:b.size] {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(e))
	}
	sb.WriteByte('}')
	return sb.String()
}
