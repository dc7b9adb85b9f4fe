// Package geom holds the collider primitives and the intersection test used by
// every collision query in the simulation.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a world-space vector. X and Y span the arena floor, Z points up.
type Vec3 = mgl64.Vec3

// Collider is a volume used for intersection tests. Only Sphere and Box
// implement it.
type Collider interface {
	Translate(d Vec3) Collider
	isCollider()
}

// Sphere is a collider with a center and radius.
type Sphere struct {
	Center Vec3
	Radius float64
}

func (Sphere) isCollider() {}

// Translate returns the collider moved by d. The receiver is not modified.
func (s Sphere) Translate(d Vec3) Collider {
	return s.Moved(d)
}

// Moved is Translate without the interface conversion.
func (s Sphere) Moved(d Vec3) Sphere {
	return Sphere{Center: s.Center.Add(d), Radius: s.Radius}
}

// Box is an axis-aligned box given by its min and max corners.
type Box struct {
	Min, Max Vec3
}

func (Box) isCollider() {}

// Translate returns the box moved by d.
func (b Box) Translate(d Vec3) Collider {
	return Box{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// BoxAround returns a cube of edge size centered on c.
func BoxAround(c Vec3, size float64) Box {
	h := size / 2
	half := Vec3{h, h, h}
	return Box{Min: c.Sub(half), Max: c.Add(half)}
}

// Intersects reports whether s touches or overlaps other. A nil collider never
// intersects.
func Intersects(s Sphere, other Collider) bool {
	switch o := other.(type) {
	case Sphere:
		return sphereSphere(s, o)
	case Box:
		return sphereBox(s, o)
	default:
		return false
	}
}

// sphereSphere compares squared distances, touching counts as a hit.
func sphereSphere(a, b Sphere) bool {
	d := b.Center.Sub(a.Center)
	radSum := a.Radius + b.Radius
	return d.Dot(d) <= radSum*radSum
}

// sphereBox clamps the sphere center into the box and measures the gap.
func sphereBox(s Sphere, b Box) bool {
	var dist2 float64
	for i := 0; i < 3; i++ {
		c := s.Center[i]
		closest := math.Max(b.Min[i], math.Min(c, b.Max[i]))
		d := c - closest
		dist2 += d * d
	}
	return dist2 <= s.Radius*s.Radius
}
