package persist

import (
	"fmt"

	"github.com/plus3/klayecs/ecs"
	"gopkg.in/yaml.v3"
)

// Codec converts one component's per-entity value to and from YAML.
type Codec interface {
	// Encode returns a value yaml.v3 can marshal.
	Encode(entityID int) (any, error)
	// Decode parses node without touching the store. The returned func
	// stores the parsed value for an entity.
	Decode(node *yaml.Node) (func(entityID int), error)
}

// Codecs maps component names to codecs. Components without an entry use the
// built-in codec for their store kind; Generic stores without an entry are
// saved as bare presence. A nil *Codecs uses built-ins only.
type Codecs struct {
	byName map[string]Codec
}

func NewCodecs() *Codecs {
	return &Codecs{byName: make(map[string]Codec)}
}

// Register installs codec for the component registered under name,
// replacing any built-in codec.
func (c *Codecs) Register(name string, codec Codec) {
	c.byName[name] = codec
}

// RegisterGeneric installs a codec marshalling store's values with yaml.v3.
func RegisterGeneric[T any](c *Codecs, store *ecs.Generic[T]) {
	c.Register(store.Name(), genericCodec[T]{store})
}

func (c *Codecs) lookup(comp ecs.Component) Codec {
	if c != nil {
		if codec, ok := c.byName[comp.Name()]; ok {
			return codec
		}
	}
	switch store := comp.(type) {
	case *ecs.IntScalar:
		return intCodec{store}
	case *ecs.FloatScalar:
		return floatCodec{store}
	case *ecs.IntPair:
		return intPairCodec{store}
	case *ecs.FloatPair:
		return floatPairCodec{store}
	case *ecs.Mask:
		return maskCodec{store}
	}
	return nil
}

type intCodec struct{ store *ecs.IntScalar }

func (c intCodec) Encode(id int) (any, error) { return c.store.Get(id), nil }

func (c intCodec) Decode(node *yaml.Node) (func(int), error) {
	var v int32
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return func(id int) { c.store.Set(id, v) }, nil
}

type floatCodec struct{ store *ecs.FloatScalar }

func (c floatCodec) Encode(id int) (any, error) { return c.store.Get(id), nil }

func (c floatCodec) Decode(node *yaml.Node) (func(int), error) {
	var v float32
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return func(id int) { c.store.Set(id, v) }, nil
}

type intPairCodec struct{ store *ecs.IntPair }

func (c intPairCodec) Encode(id int) (any, error) {
	x, y := c.store.Get(id)
	return []int32{x, y}, nil
}

func (c intPairCodec) Decode(node *yaml.Node) (func(int), error) {
	x, y, err := decodePair[int32](node)
	if err != nil {
		return nil, err
	}
	return func(id int) { c.store.Set(id, x, y) }, nil
}

type floatPairCodec struct{ store *ecs.FloatPair }

func (c floatPairCodec) Encode(id int) (any, error) {
	x, y := c.store.Get(id)
	return []float32{x, y}, nil
}

func (c floatPairCodec) Decode(node *yaml.Node) (func(int), error) {
	x, y, err := decodePair[float32](node)
	if err != nil {
		return nil, err
	}
	return func(id int) { c.store.Set(id, x, y) }, nil
}

func decodePair[T int32 | float32](node *yaml.Node) (x, y T, err error) {
	var v []T
	if err := node.Decode(&v); err != nil {
		return x, y, err
	}
	if len(v) != 2 {
		return x, y, fmt.Errorf("want [x, y], got %d values", len(v))
	}
	return v[0], v[1], nil
}

type maskCodec struct{ store *ecs.Mask }

func (c maskCodec) Encode(id int) (any, error) { return c.store.Get(id), nil }

func (c maskCodec) Decode(node *yaml.Node) (func(int), error) {
	var v uint32
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return func(id int) { c.store.Set(id, v) }, nil
}

type genericCodec[T any] struct{ store *ecs.Generic[T] }

func (c genericCodec[T]) Encode(id int) (any, error) { return c.store.Get(id), nil }

func (c genericCodec[T]) Decode(node *yaml.Node) (func(int), error) {
	var v T
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return func(id int) { c.store.Set(id, v) }, nil
}
