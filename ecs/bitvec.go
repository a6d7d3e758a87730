package ecs

import (
	"iter"
	"math/bits"
	"strconv"
	"strings"
)

const wordBits = 64

// BitVec is a growable bit set indexed by non-negative integers.
// Reads past the end report false; writes grow the backing words as needed.
type BitVec struct {
	words []uint64
}

// NewBitVec creates a bit vector with room for the given number of 64-bit words.
func NewBitVec(words int) *BitVec {
	return &BitVec{words: make([]uint64, words)}
}

// IsSet reports whether bit i is set.
func (b *BitVec) IsSet(i int) bool {
	word := i / wordBits
	return word < len(b.words) && b.words[word]&(1<<(uint(i)%wordBits)) != 0
}

// Set sets bit i, growing the vector if needed.
func (b *BitVec) Set(i int) {
	word := i / wordBits
	if word >= len(b.words) {
		b.grow(word + 1)
	}
	b.words[word] |= 1 << (uint(i) % wordBits)
}

// Clear clears bit i. Clearing a bit past the end is a no-op.
func (b *BitVec) Clear(i int) {
	word := i / wordBits
	if word < len(b.words) {
		b.words[word] &^= 1 << (uint(i) % wordBits)
	}
}

// Union ORs every bit of other into b.
func (b *BitVec) Union(other *BitVec) {
	if len(other.words) > len(b.words) {
		b.grow(len(other.words))
	}
	for i, w := range other.words {
		b.words[i] |= w
	}
}

// CopyFrom replaces the contents of b with the contents of other.
func (b *BitVec) CopyFrom(other *BitVec) {
	if len(other.words) > len(b.words) {
		b.grow(len(other.words))
	}
	n := copy(b.words, other.words)
	clear(b.words[n:])
}

// Reset clears all bits, keeping the allocated words.
func (b *BitVec) Reset() {
	clear(b.words)
}

// Count returns the number of set bits.
func (b *BitVec) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// IsEmpty reports whether no bit is set.
func (b *BitVec) IsEmpty() bool {
	for _, w := range b.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Bits iterates the indices of set bits in ascending order.
func (b *BitVec) Bits() iter.Seq[int] {
	return func(yield func(int) bool) {
		for wi, w := range b.words {
			for w != 0 {
				tz := bits.TrailingZeros64(w)
				if !yield(wi*wordBits + tz) {
					return
				}
				w &= w - 1
			}
		}
	}
}

func (b *BitVec) grow(words int) {
	n := len(b.words) * 2
	if n < words {
		n = words
	}
	grown := make([]uint64, n)
	copy(grown, b.words)
	b.words = grown
}

func (b *BitVec) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	first := true
	for i := range b.Bits() {
		if !first {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(i))
		first = false
	}
	sb.WriteByte(']')
	return sb.String()
}
