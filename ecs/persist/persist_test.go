package persist_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plus3/klayecs/ecs"
	"github.com/plus3/klayecs/ecs/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type cargo struct {
	Kind  string `yaml:"kind"`
	Units int    `yaml:"units"`
}

type schema struct {
	w     *ecs.World
	hp    *ecs.IntScalar
	speed *ecs.FloatScalar
	cell  *ecs.IntPair
	pos   *ecs.FloatPair
	flags *ecs.Mask
	cargo *ecs.Generic[cargo]
	cache *ecs.Generic[[]byte]
	codec *persist.Codecs
}

// newSchema registers the same components as every other schema, in an order
// chosen by reversed, so bit indices differ between the two layouts.
func newSchema(reversed bool) *schema {
	w := ecs.NewWorld()
	s := &schema{w: w}
	regs := []func(){
		func() { s.hp = ecs.NewIntScalar(w, "hp") },
		func() { s.speed = ecs.NewFloatScalar(w, "speed") },
		func() { s.cell = ecs.NewIntPair(w, "cell") },
		func() { s.pos = ecs.NewFloatPair(w, "pos") },
		func() { s.flags = ecs.NewMask(w, "flags") },
		func() { s.cargo = ecs.NewGeneric[cargo](w, "cargo") },
		func() { s.cache = ecs.NewGeneric[[]byte](w, "cache") },
	}
	if reversed {
		for i := len(regs) - 1; i >= 0; i-- {
			regs[i]()
		}
	} else {
		for _, reg := range regs {
			reg()
		}
	}
	s.codec = persist.NewCodecs()
	persist.RegisterGeneric(s.codec, s.cargo)
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := newSchema(false)
	ship := src.w.Create(true)
	require.NoError(t, ship.Add(src.hp, src.speed, src.pos, src.flags, src.cargo, src.cache))
	src.hp.Set(ship.ID(), 75)
	src.speed.Set(ship.ID(), 2.5)
	src.pos.Set(ship.ID(), 10.5, -4)
	src.flags.Set(ship.ID(), 0b101)
	src.cargo.Set(ship.ID(), cargo{Kind: "ore", Units: 12})
	src.cache.Set(ship.ID(), []byte("scratch"))

	dormant := src.w.Create(false)
	require.NoError(t, dormant.Add(src.cell))
	src.cell.Set(dormant.ID(), 3, 9)

	gone := src.w.Create(true)
	gone.Dispose()

	var buf bytes.Buffer
	require.NoError(t, persist.Save(src.w, &buf, src.codec))
	assert.Contains(t, buf.String(), "version: 1")
	assert.Contains(t, buf.String(), "pos: [10.5, -4]")

	dst := newSchema(true)
	require.NotEqual(t, src.hp.ID(), dst.hp.ID())
	probe := &ecs.SystemFuncs{
		Label:        "cargo",
		InterestedFn: func(e *ecs.Entity) bool { return e.Has(dst.cargo) },
	}
	reg := dst.w.Register(probe, 0)

	loaded, err := persist.Load(dst.w, &buf, dst.codec)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	got := loaded[0]
	assert.Equal(t, ship.ID(), got.ID())
	assert.True(t, got.IsEnabled())
	assert.True(t, got.Has(dst.cache), "presence survives without a codec")
	assert.Nil(t, dst.cache.Get(got.ID()))
	assert.Equal(t, int32(75), dst.hp.Get(got.ID()))
	assert.Equal(t, float32(2.5), dst.speed.Get(got.ID()))
	x, y := dst.pos.Get(got.ID())
	assert.Equal(t, float32(10.5), x)
	assert.Equal(t, float32(-4), y)
	assert.Equal(t, uint32(0b101), dst.flags.Get(got.ID()))
	assert.Equal(t, cargo{Kind: "ore", Units: 12}, dst.cargo.Get(got.ID()))

	assert.False(t, loaded[1].IsEnabled())
	cx, cy := dst.cell.Get(loaded[1].ID())
	assert.Equal(t, int32(3), cx)
	assert.Equal(t, int32(9), cy)

	assert.False(t, reg.Has(got))
	dst.w.Update(ecs.Clock{Tick: 1})
	assert.True(t, reg.Has(got))

	fresh := dst.w.Create(false)
	assert.NotContains(t, []int{ship.ID(), dormant.ID()}, fresh.ID())
}

func TestLoadRejectsBadSnapshots(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "version",
			doc:  "version: 2\nentities: []\n",
			want: persist.ErrVersion,
		},
		{
			name: "empty",
			doc:  "",
			want: persist.ErrVersion,
		},
		{
			name: "unknown component",
			doc:  "version: 1\nentities:\n  - id: 1\n    components:\n      shield: 3\n",
			want: persist.ErrUnknownComponent,
		},
		{
			name: "duplicate id",
			doc:  "version: 1\nentities:\n  - id: 2\n  - id: 2\n",
			want: persist.ErrIDTaken,
		},
		{
			name: "invalid id",
			doc:  "version: 1\nentities:\n  - id: 0\n",
			want: persist.ErrIDTaken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSchema(false)
			_, err := persist.Load(s.w, strings.NewReader(tt.doc), s.codec)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, s.w.Stats().Entities, "world untouched")
		})
	}
}

func TestLoadRejectsOccupiedID(t *testing.T) {
	s := newSchema(false)
	live := s.w.Create(true)

	doc := "version: 1\nentities:\n  - id: 1\n"
	_, err := persist.Load(s.w, strings.NewReader(doc), nil)
	assert.ErrorIs(t, err, persist.ErrIDTaken)
	assert.Contains(t, err.Error(), "entity 1")
	assert.False(t, live.IsDisposed())
}

func TestLoadHandWrittenSnapshot(t *testing.T) {
	s := newSchema(false)
	doc := `version: 1
entities:
  - id: 3
    enabled: true
    components:
      hp: 7
      pos: [1.5, 2]
      cargo:
        kind: ice
        units: 4
      cache:
`
	loaded, err := persist.Load(s.w, strings.NewReader(doc), s.codec)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	e := loaded[0]
	assert.Equal(t, 3, e.ID())
	assert.Equal(t, int32(7), s.hp.Get(e.ID()))
	x, y := s.pos.Get(e.ID())
	assert.Equal(t, float32(1.5), x)
	assert.Equal(t, float32(2), y)
	assert.Equal(t, cargo{Kind: "ice", Units: 4}, s.cargo.Get(e.ID()))
	assert.True(t, e.Has(s.cache))
}

func TestLoadDecodeFailureLeavesWorldUntouched(t *testing.T) {
	s := newSchema(false)
	bad := "version: 1\nentities:\n  - id: 3\n    components:\n      hp: 4\n  - id: 7\n    components:\n      pos: [1]\n"

	_, err := persist.Load(s.w, strings.NewReader(bad), s.codec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `entity 7: component "pos"`)
	assert.Contains(t, err.Error(), "want [x, y], got 1 values")

	stats := s.w.Stats()
	assert.Zero(t, stats.Entities)
	assert.Zero(t, stats.FreeIDs)
	assert.True(t, s.w.Available(3))
	assert.True(t, s.w.Available(7))

	good := "version: 1\nentities:\n  - id: 3\n    components:\n      hp: 4\n"
	loaded, err := persist.Load(s.w, strings.NewReader(good), s.codec)
	require.NoError(t, err, "retry after a failed load")
	require.Len(t, loaded, 1)
	assert.Equal(t, int32(4), s.hp.Get(3))
	assert.Equal(t, 2, s.w.Stats().FreeIDs)
	assert.Contains(t, []int{1, 2}, s.w.Create(false).ID())
}

func TestLoadDecodeFailureSkipsStoreWrites(t *testing.T) {
	s := newSchema(false)
	s.codec.Register("hp", failing{errors.New("boom")})
	doc := "version: 1\nentities:\n  - id: 1\n    components:\n      cargo: {kind: gas, units: 2}\n      hp: 4\n"

	_, err := persist.Load(s.w, strings.NewReader(doc), s.codec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `component "hp"`)
	assert.True(t, s.w.Available(1))
	assert.Zero(t, s.w.Stats().Entities)
}

func TestCustomCodec(t *testing.T) {
	s := newSchema(false)
	e := s.w.Create(true)
	require.NoError(t, e.Add(s.cache))
	s.cache.Set(e.ID(), []byte("hi"))
	s.codec.Register("cache", stringBytes{s.cache})

	var buf bytes.Buffer
	require.NoError(t, persist.Save(s.w, &buf, s.codec))
	assert.Contains(t, buf.String(), "cache: hi")

	dst := newSchema(false)
	dst.codec.Register("cache", stringBytes{dst.cache})
	loaded, err := persist.Load(dst.w, &buf, dst.codec)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), dst.cache.Get(loaded[0].ID()))
}

func TestEncodeErrorIsWrapped(t *testing.T) {
	s := newSchema(false)
	e := s.w.Create(true)
	require.NoError(t, e.Add(s.hp))
	boom := errors.New("boom")
	s.codec.Register("hp", failing{boom})

	err := persist.Save(s.w, &bytes.Buffer{}, s.codec)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `component "hp"`)
}

func TestFileRoundTrip(t *testing.T) {
	s := newSchema(false)
	e := s.w.Create(true)
	require.NoError(t, e.Add(s.hp))
	s.hp.Set(e.ID(), 9)

	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, persist.SaveFile(s.w, path, nil))

	dst := newSchema(false)
	loaded, err := persist.LoadFile(dst.w, path, nil)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, int32(9), dst.hp.Get(loaded[0].ID()))

	_, err = persist.LoadFile(dst.w, filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

type stringBytes struct{ store *ecs.Generic[[]byte] }

func (c stringBytes) Encode(id int) (any, error) { return string(c.store.Get(id)), nil }

func (c stringBytes) Decode(node *yaml.Node) (func(int), error) {
	var s string
	if err := node.Decode(&s); err != nil {
		return nil, err
	}
	return func(id int) { c.store.Set(id, []byte(s)) }, nil
}

type failing struct{ err error }

func (f failing) Encode(int) (any, error) { return nil, f.err }

func (f failing) Decode(*yaml.Node) (func(int), error) { return nil, f.err }
