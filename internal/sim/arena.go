package sim

import (
	"fmt"

	"tank-arena/internal/geom"
)

// NewArena populates w with the ground, the border ring of walls, the two
// tanks and any interior walls from the settings.
func NewArena(w *World) error {
	s := w.settings
	if s.ArenaSize < 2 {
		return fmt.Errorf("arena size %d too small", s.ArenaSize)
	}

	entities := []Entity{NewMap(float64(s.ArenaSize))}
	for _, p := range borderRing(s.ArenaSize) {
		entities = append(entities, NewWall(p))
	}
	for _, slot := range Slots {
		entities = append(entities, w.newTank(slot))
	}
	for _, p := range s.InteriorWalls {
		entities = append(entities, NewWall(geom.Vec3{p.X, p.Y, p.Z}))
	}

	if err := w.Populate(entities...); err != nil {
		return fmt.Errorf("build arena: %w", err)
	}
	w.log.Info().Int("size", s.ArenaSize).Int("entities", w.Len()).Msg("arena ready")
	return nil
}

// borderRing lists the unit cells on the edge of a size x size square,
// corners included once.
func borderRing(size int) []geom.Vec3 {
	var ring []geom.Vec3
	for y := 0; y <= size; y++ {
		for x := 0; x <= size; x++ {
			if x == 0 || y == 0 || x == size || y == size {
				ring = append(ring, geom.Vec3{float64(x), float64(y), 0})
			}
		}
	}
	return ring
}
