package sim

import (
	"tank-arena/internal/geom"
)

// Wall is a static unit block.
type Wall struct {
	base
}

// NewWall creates a unit wall block centered on pos.
func NewWall(pos geom.Vec3) *Wall {
	w := &Wall{base: newBase(KindWall, pos)}
	w.collider = geom.BoxAround(pos, 1)
	return w
}

func (w *Wall) Load(a AssetProvider) error {
	tex, err := requireTexture(a, w.kind.String(), "wall")
	if err != nil {
		return err
	}
	w.look = tex
	return nil
}

func (w *Wall) Sprite() Sprite {
	s := w.base.Sprite()
	s.Layer = layerWall
	return s
}

// Map is the ground plane. It has no collider.
type Map struct {
	base
	size float64
}

// NewMap creates the ground plane for an arena of the given size.
func NewMap(size float64) *Map {
	return &Map{
		base: newBase(KindMap, geom.Vec3{size / 2, size / 2, 0}),
		size: size,
	}
}

func (m *Map) Load(a AssetProvider) error {
	tex, err := requireTexture(a, m.kind.String(), "ground")
	if err != nil {
		return err
	}
	m.look = tex
	return nil
}

func (m *Map) Sprite() Sprite {
	s := m.base.Sprite()
	s.Size = m.size
	s.Layer = layerGround
	return s
}
