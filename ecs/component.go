package ecs

import "strconv"

// Kind identifies the storage shape of a component store.
type Kind uint8

const (
	KindGeneric Kind = iota
	KindInt
	KindFloat
	KindIntPair
	KindFloatPair
	KindMask
)

func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindIntPair:
		return "int-pair"
	case KindFloatPair:
		return "float-pair"
	case KindMask:
		return "mask"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Component is a store holding one kind of data for every entity that
// possesses it. The set of implementations is closed: Generic, IntScalar,
// FloatScalar, IntPair, FloatPair and Mask.
//
// Stores index their data by entity id without checking membership; callers
// must gate reads and writes with Entity.Has.
type Component interface {
	// ID is the component's registration index and its bit in every entity's component set.
	ID() int
	// Name is the stable key used to persist the component across builds.
	Name() string
	World() *World
	Kind() Kind

	init(entityID int)
	clear(entityID int)
	allocatedBlocks() int
}

// component holds the registration state shared by every store.
type component struct {
	world *World
	id    int
	name  string
}

func (c *component) ID() int        { return c.id }
func (c *component) Name() string   { return c.name }
func (c *component) World() *World  { return c.world }
func (c *component) String() string { return c.name + "#" + strconv.Itoa(c.id) }

func (c *component) register(w *World, name string, self Component) {
	c.world = w
	c.name = name
	c.id = w.registerComponent(self)
}

// BlockSize is the number of entities covered by a single storage block.
const BlockSize = 1 << blockShift

const (
	blockShift  = 8
	blockMask   = BlockSize - 1
	indexBlocks = 32
)

// blocks is a sparse array of fixed-size chunks indexed by entity id.
// Growing the index never moves an allocated chunk, so pointers into a
// chunk stay valid for the life of the store.
type blocks[T any] struct {
	index  [][]T
	stride int
}

func newBlocks[T any](stride int) blocks[T] {
	return blocks[T]{
		index:  make([][]T, indexBlocks),
		stride: stride,
	}
}

// ensure allocates the chunk covering entityID if it does not exist yet.
func (b *blocks[T]) ensure(entityID int) {
	blockIdx := entityID >> blockShift
	if blockIdx >= len(b.index) {
		n := max(len(b.index)*2, 1)
		for n <= blockIdx {
			n *= 2
		}
		grown := make([][]T, n)
		copy(grown, b.index)
		b.index = grown
	}
	if b.index[blockIdx] == nil {
		b.index[blockIdx] = make([]T, BlockSize*b.stride)
	}
}

// slot returns the chunk for entityID and the offset of its first value.
func (b *blocks[T]) slot(entityID int) ([]T, int) {
	return b.index[entityID>>blockShift], (entityID & blockMask) * b.stride
}

func (b *blocks[T]) zero(entityID int) {
	block, off := b.slot(entityID)
	clear(block[off : off+b.stride])
}

// allocated returns the number of chunks currently allocated.
func (b *blocks[T]) allocated() int {
	n := 0
	for _, block := range b.index {
		if block != nil {
			n++
		}
	}
	return n
}
