package ecs

import "reflect"

// Generic stores an arbitrary value per entity.
type Generic[T any] struct {
	component
	data    blocks[T]
	release func(T)
}

// NewGeneric creates a store for values of type T and registers it with w.
func NewGeneric[T any](w *World, name string) *Generic[T] {
	c := &Generic[T]{data: newBlocks[T](1)}
	c.register(w, name, c)
	return c
}

func (c *Generic[T]) Kind() Kind { return KindGeneric }

// ValueType returns the reflected type of the stored values.
func (c *Generic[T]) ValueType() reflect.Type { return reflect.TypeFor[T]() }

// Get returns the value for entityID.
func (c *Generic[T]) Get(entityID int) T {
	block, off := c.data.slot(entityID)
	return block[off]
}

// Ptr returns a pointer to the value for entityID. The pointer stays valid
// until the component is removed from the entity.
func (c *Generic[T]) Ptr(entityID int) *T {
	block, off := c.data.slot(entityID)
	return &block[off]
}

// Set updates the value for entityID.
func (c *Generic[T]) Set(entityID int, value T) {
	block, off := c.data.slot(entityID)
	block[off] = value
}

// Any returns a pointer to the value for entityID as an untyped value.
func (c *Generic[T]) Any(entityID int) any {
	return c.Ptr(entityID)
}

// OnRelease installs a hook that receives the previous value whenever the
// component is removed from an entity, for returning pooled objects.
func (c *Generic[T]) OnRelease(fn func(T)) {
	c.release = fn
}

func (c *Generic[T]) init(entityID int) { c.data.ensure(entityID) }

func (c *Generic[T]) clear(entityID int) {
	block, off := c.data.slot(entityID)
	prev := block[off]
	var zero T
	block[off] = zero
	if c.release != nil {
		c.release(prev)
	}
}

func (c *Generic[T]) allocatedBlocks() int { return c.data.allocated() }

// IntScalar stores a single int32 per entity.
type IntScalar struct {
	component
	data blocks[int32]
}

// NewIntScalar creates an int32 store and registers it with w.
func NewIntScalar(w *World, name string) *IntScalar {
	c := &IntScalar{data: newBlocks[int32](1)}
	c.register(w, name, c)
	return c
}

func (c *IntScalar) Kind() Kind { return KindInt }

// Get returns the value for entityID.
func (c *IntScalar) Get(entityID int) int32 {
	block, off := c.data.slot(entityID)
	return block[off]
}

// Set updates the value for entityID.
func (c *IntScalar) Set(entityID int, value int32) {
	block, off := c.data.slot(entityID)
	block[off] = value
}

// Add adds dv to the value for entityID.
func (c *IntScalar) Add(entityID int, dv int32) {
	block, off := c.data.slot(entityID)
	block[off] += dv
}

func (c *IntScalar) init(entityID int)    { c.data.ensure(entityID) }
func (c *IntScalar) clear(entityID int)   { c.data.zero(entityID) }
func (c *IntScalar) allocatedBlocks() int { return c.data.allocated() }

// FloatScalar stores a single float32 per entity.
type FloatScalar struct {
	component
	data blocks[float32]
}

// NewFloatScalar creates a float32 store and registers it with w.
func NewFloatScalar(w *World, name string) *FloatScalar {
	c := &FloatScalar{data: newBlocks[float32](1)}
	c.register(w, name, c)
	return c
}

func (c *FloatScalar) Kind() Kind { return KindFloat }

// Get returns the value for entityID.
func (c *FloatScalar) Get(entityID int) float32 {
	block, off := c.data.slot(entityID)
	return block[off]
}

// Set updates the value for entityID.
func (c *FloatScalar) Set(entityID int, value float32) {
	block, off := c.data.slot(entityID)
	block[off] = value
}

// Add adds dv to the value for entityID.
func (c *FloatScalar) Add(entityID int, dv float32) {
	block, off := c.data.slot(entityID)
	block[off] += dv
}

func (c *FloatScalar) init(entityID int)    { c.data.ensure(entityID) }
func (c *FloatScalar) clear(entityID int)   { c.data.zero(entityID) }
func (c *FloatScalar) allocatedBlocks() int { return c.data.allocated() }

// IntPair stores two adjacent int32 values (x, y) per entity.
type IntPair struct {
	component
	data blocks[int32]
}

// NewIntPair creates an int32 pair store and registers it with w.
func NewIntPair(w *World, name string) *IntPair {
	c := &IntPair{data: newBlocks[int32](2)}
	c.register(w, name, c)
	return c
}

func (c *IntPair) Kind() Kind { return KindIntPair }

// X returns the x value for entityID.
func (c *IntPair) X(entityID int) int32 {
	block, off := c.data.slot(entityID)
	return block[off]
}

// Y returns the y value for entityID.
func (c *IntPair) Y(entityID int) int32 {
	block, off := c.data.slot(entityID)
	return block[off+1]
}

// Get returns both values for entityID.
func (c *IntPair) Get(entityID int) (x, y int32) {
	block, off := c.data.slot(entityID)
	return block[off], block[off+1]
}

// SetX updates the x value for entityID.
func (c *IntPair) SetX(entityID int, x int32) {
	block, off := c.data.slot(entityID)
	block[off] = x
}

// SetY updates the y value for entityID.
func (c *IntPair) SetY(entityID int, y int32) {
	block, off := c.data.slot(entityID)
	block[off+1] = y
}

// Set updates both values for entityID.
func (c *IntPair) Set(entityID int, x, y int32) {
	block, off := c.data.slot(entityID)
	block[off] = x
	block[off+1] = y
}

// Add adds dx and dy to the values for entityID.
func (c *IntPair) Add(entityID int, dx, dy int32) {
	block, off := c.data.slot(entityID)
	block[off] += dx
	block[off+1] += dy
}

// CopyFrom copies the values other holds for entityID into c.
func (c *IntPair) CopyFrom(entityID int, other *IntPair) {
	block, off := c.data.slot(entityID)
	oblock, _ := other.data.slot(entityID)
	block[off] = oblock[off]
	block[off+1] = oblock[off+1]
}

func (c *IntPair) init(entityID int)    { c.data.ensure(entityID) }
func (c *IntPair) clear(entityID int)   { c.data.zero(entityID) }
func (c *IntPair) allocatedBlocks() int { return c.data.allocated() }

// FloatPair stores two adjacent float32 values (x, y) per entity.
type FloatPair struct {
	component
	data blocks[float32]
}

// NewFloatPair creates a float32 pair store and registers it with w.
func NewFloatPair(w *World, name string) *FloatPair {
	c := &FloatPair{data: newBlocks[float32](2)}
	c.register(w, name, c)
	return c
}

func (c *FloatPair) Kind() Kind { return KindFloatPair }

// X returns the x value for entityID.
func (c *FloatPair) X(entityID int) float32 {
	block, off := c.data.slot(entityID)
	return block[off]
}

// Y returns the y value for entityID.
func (c *FloatPair) Y(entityID int) float32 {
	block, off := c.data.slot(entityID)
	return block[off+1]
}

// Get returns both values for entityID.
func (c *FloatPair) Get(entityID int) (x, y float32) {
	block, off := c.data.slot(entityID)
	return block[off], block[off+1]
}

// SetX updates the x value for entityID.
func (c *FloatPair) SetX(entityID int, x float32) {
	block, off := c.data.slot(entityID)
	block[off] = x
}

// SetY updates the y value for entityID.
func (c *FloatPair) SetY(entityID int, y float32) {
	block, off := c.data.slot(entityID)
	block[off+1] = y
}

// Set updates both values for entityID.
func (c *FloatPair) Set(entityID int, x, y float32) {
	block, off := c.data.slot(entityID)
	block[off] = x
	block[off+1] = y
}

// Add adds dx and dy to the values for entityID.
func (c *FloatPair) Add(entityID int, dx, dy float32) {
	block, off := c.data.slot(entityID)
	block[off] += dx
	block[off+1] += dy
}

// CopyFrom copies the values other holds for entityID into c.
func (c *FloatPair) CopyFrom(entityID int, other *FloatPair) {
	block, off := c.data.slot(entityID)
	oblock, _ := other.data.slot(entityID)
	block[off] = oblock[off]
	block[off+1] = oblock[off+1]
}

// Lerp returns the values interpolated from prev toward c by alpha.
func (c *FloatPair) Lerp(entityID int, prev *FloatPair, alpha float32) (x, y float32) {
	block, off := c.data.slot(entityID)
	pblock, _ := prev.data.slot(entityID)
	x = pblock[off] + (block[off]-pblock[off])*alpha
	y = pblock[off+1] + (block[off+1]-pblock[off+1])*alpha
	return x, y
}

func (c *FloatPair) init(entityID int)    { c.data.ensure(entityID) }
func (c *FloatPair) clear(entityID int)   { c.data.zero(entityID) }
func (c *FloatPair) allocatedBlocks() int { return c.data.allocated() }

// Mask stores a uint32 bit mask per entity.
type Mask struct {
	component
	data blocks[uint32]
}

// NewMask creates a bit mask store and registers it with w.
func NewMask(w *World, name string) *Mask {
	c := &Mask{data: newBlocks[uint32](1)}
	c.register(w, name, c)
	return c
}

func (c *Mask) Kind() Kind { return KindMask }

// Get returns the mask for entityID.
func (c *Mask) Get(entityID int) uint32 {
	block, off := c.data.slot(entityID)
	return block[off]
}

// Set replaces the mask for entityID.
func (c *Mask) Set(entityID int, value uint32) {
	block, off := c.data.slot(entityID)
	block[off] = value
}

// And sets the mask for entityID to current & mask.
func (c *Mask) And(entityID int, mask uint32) {
	block, off := c.data.slot(entityID)
	block[off] &= mask
}

// Or sets the mask for entityID to current | mask.
func (c *Mask) Or(entityID int, mask uint32) {
	block, off := c.data.slot(entityID)
	block[off] |= mask
}

// IsSet reports whether any bit of flag is set in the mask for entityID.
func (c *Mask) IsSet(entityID int, flag uint32) bool {
	return c.Get(entityID)&flag != 0
}

// SetFlag sets flag in the mask for entityID.
func (c *Mask) SetFlag(entityID int, flag uint32) {
	c.Or(entityID, flag)
}

// ClearFlag clears flag from the mask for entityID.
func (c *Mask) ClearFlag(entityID int, flag uint32) {
	c.And(entityID, ^flag)
}

func (c *Mask) init(entityID int)    { c.data.ensure(entityID) }
func (c *Mask) clear(entityID int)   { c.data.zero(entityID) }
func (c *Mask) allocatedBlocks() int { return c.data.allocated() }
