package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntersectsSphereSphere(t *testing.T) {
	cases := []struct {
		name string
		a, b Sphere
		want bool
	}{
		{"overlapping", Sphere{Vec3{0, 0, 0}, 10}, Sphere{Vec3{15, 0, 0}, 10}, true},
		{"touching", Sphere{Vec3{0, 0, 0}, 10}, Sphere{Vec3{20, 0, 0}, 10}, true},
		{"apart", Sphere{Vec3{0, 0, 0}, 10}, Sphere{Vec3{25, 0, 0}, 10}, false},
		{"same center", Sphere{Vec3{5, 5, 5}, 1}, Sphere{Vec3{5, 5, 5}, 1}, true},
		{"apart on z", Sphere{Vec3{0, 0, 0}, 1}, Sphere{Vec3{0, 0, 2.5}, 1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Intersects(tc.a, tc.b))
			assert.Equal(t, tc.want, Intersects(tc.b, tc.a))
		})
	}
}

func TestIntersectsSphereBox(t *testing.T) {
	box := BoxAround(Vec3{0, 0, 0}, 1)
	cases := []struct {
		name string
		s    Sphere
		want bool
	}{
		{"center inside", Sphere{Vec3{0.1, 0.1, 0}, 0.05}, true},
		{"touching face", Sphere{Vec3{1, 0, 0}, 0.5}, true},
		{"near face", Sphere{Vec3{1.01, 0, 0}, 0.5}, false},
		{"corner gap", Sphere{Vec3{1, 1, 0}, 0.6}, false},
		{"corner overlap", Sphere{Vec3{0.9, 0.9, 0}, 0.6}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Intersects(tc.s, box))
		})
	}
}

func TestIntersectsNilCollider(t *testing.T) {
	assert.False(t, Intersects(Sphere{Vec3{0, 0, 0}, 100}, nil))
}

func TestTranslateLeavesReceiver(t *testing.T) {
	s := Sphere{Center: Vec3{1, 2, 3}, Radius: 1}
	moved := s.Translate(Vec3{1, 0, 0}).(Sphere)
	assert.Equal(t, Vec3{2, 2, 3}, moved.Center)
	assert.Equal(t, Vec3{1, 2, 3}, s.Center)

	b := BoxAround(Vec3{0, 0, 0}, 2)
	mb := b.Translate(Vec3{0, 1, 0}).(Box)
	assert.Equal(t, Vec3{-1, 0, -1}, mb.Min)
	assert.Equal(t, Vec3{1, 2, 1}, mb.Max)
}
