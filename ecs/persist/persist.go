// Package persist saves and restores world entities as YAML snapshots.
//
// Components are recorded by their registered name rather than their bit
// index, so a snapshot loads into any build that registers the same names.
// Systems are not persisted; restored entities reach them through the normal
// addition path on the next update.
package persist

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/plus3/klayecs/ecs"
	"gopkg.in/yaml.v3"
)

// Version is the snapshot format written by Save.
const Version = 1

var (
	ErrVersion          = errors.New("unsupported snapshot version")
	ErrUnknownComponent = errors.New("unknown component")
	ErrIDTaken          = errors.New("entity id not available")
)

type snapshot struct {
	Version  int            `yaml:"version"`
	Entities []entityRecord `yaml:"entities"`
}

type entityRecord struct {
	ID         int                   `yaml:"id"`
	Enabled    bool                  `yaml:"enabled"`
	Components map[string]yaml.Node `yaml:"components,omitempty"`
}

// Save writes every live entity of w to out.
func Save(w *ecs.World, out io.Writer, codecs *Codecs) error {
	snap := snapshot{Version: Version}
	for e := range w.Entities() {
		rec := entityRecord{ID: e.ID(), Enabled: e.IsEnabled()}
		for idx := range e.Components() {
			comp, _ := w.Component(idx)
			node, err := encodeValue(codecs.lookup(comp), e.ID())
			if err != nil {
				return fmt.Errorf("persist: entity %d: component %q: %w", e.ID(), comp.Name(), err)
			}
			if rec.Components == nil {
				rec.Components = make(map[string]yaml.Node)
			}
			rec.Components[comp.Name()] = *node
		}
		snap.Entities = append(snap.Entities, rec)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&snap); err != nil {
		return fmt.Errorf("persist: encode snapshot: %w", err)
	}
	return enc.Close()
}

func encodeValue(codec Codec, id int) (*yaml.Node, error) {
	node := &yaml.Node{}
	if codec == nil {
		return node, node.Encode(nil)
	}
	v, err := codec.Encode(id)
	if err != nil {
		return nil, err
	}
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	if node.Kind == yaml.SequenceNode {
		node.Style = yaml.FlowStyle
	}
	return node, nil
}

// Load restores the entities recorded in in. Every id, component name and
// value is checked before w is modified, so a failed Load leaves w untouched.
// Entities recorded as enabled are enabled, so systems see them after the
// next update.
func Load(w *ecs.World, in io.Reader, codecs *Codecs) ([]*ecs.Entity, error) {
	var snap snapshot
	if err := yaml.NewDecoder(in).Decode(&snap); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("persist: decode snapshot: %w", err)
	}
	if snap.Version != Version {
		return nil, fmt.Errorf("persist: %w %d", ErrVersion, snap.Version)
	}

	bits := make([]*ecs.BitVec, len(snap.Entities))
	apply := make([][]func(int), len(snap.Entities))
	seen := make(map[int]bool, len(snap.Entities))
	for i, rec := range snap.Entities {
		if seen[rec.ID] || !w.Available(rec.ID) {
			return nil, fmt.Errorf("persist: entity %d: %w", rec.ID, ErrIDTaken)
		}
		seen[rec.ID] = true

		bits[i] = ecs.NewBitVec(1)
		for name, node := range rec.Components {
			comp, ok := w.ComponentByName(name)
			if !ok {
				return nil, fmt.Errorf("persist: entity %d: %w %q", rec.ID, ErrUnknownComponent, name)
			}
			bits[i].Set(comp.ID())

			codec := codecs.lookup(comp)
			if codec == nil || isNull(&node) {
				continue
			}
			set, err := codec.Decode(&node)
			if err != nil {
				return nil, fmt.Errorf("persist: entity %d: component %q: %w", rec.ID, name, err)
			}
			apply[i] = append(apply[i], set)
		}
	}

	restored := make([]*ecs.Entity, len(snap.Entities))
	for i, rec := range snap.Entities {
		e := w.Restore(rec.ID, bits[i])
		for _, set := range apply[i] {
			set(e.ID())
		}
		restored[i] = e
	}

	for i, rec := range snap.Entities {
		if rec.Enabled {
			if err := restored[i].SetEnabled(true); err != nil {
				return nil, fmt.Errorf("persist: %w", err)
			}
		}
	}
	return restored, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

// SaveFile writes a snapshot of w to path.
func SaveFile(w *ecs.World, path string, codecs *Codecs) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Save(w, f, codecs)
}

// LoadFile restores the snapshot stored at path into w.
func LoadFile(w *ecs.World, path string, codecs *Codecs) ([]*ecs.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Load(w, f, codecs)
}
