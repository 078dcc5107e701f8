package soundbox

import "math"

// Vec3 — точка или направление в пространстве (левосторонняя система:
// X вправо, Y вверх, Z вперёд).
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) length() float64 { return math.Sqrt(v.dot(v)) }

func (v Vec3) normalize() Vec3 {
	l := v.length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// listener — единственный слушатель сцены.
type listener struct {
	pos  Vec3
	look Vec3
	up   Vec3
}

func defaultListener() listener {
	return listener{
		look: Vec3{Z: 1},
		up:   Vec3{Y: 1},
	}
}

// minDistance — расстояние, ближе которого звук не затухает.
const minDistance = 1.0

// spatialize возвращает множитель громкости и панораму [-1, 1]
// для источника в точке src.
func (l listener) spatialize(src Vec3) (gain, pan float64) {
	rel := src.sub(l.pos)
	dist := rel.length()
	if dist == 0 {
		return 1, 0
	}

	gain = 1.0
	if dist > minDistance {
		gain = minDistance / dist
	}

	right := l.up.cross(l.look).normalize()
	pan = rel.normalize().dot(right)
	return gain, max(-1, min(1, pan))
}
