package particle

import (
	"math"

	"github.com/san-kum/flipsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultHashGridResolution is the bucket count per axis of the searcher
// built by SystemData.
const DefaultHashGridResolution = 64

// HashGridSearcher buckets points on a periodic hash grid. Bucket size
// should be twice the largest query radius so that the eight buckets
// around a query point cover its whole neighborhood.
type HashGridSearcher struct {
	resolution grid.Size3
	spacing    float64
	points     []r3.Vec
	buckets    [][]int
}

// NewHashGridSearcher returns an empty searcher.
func NewHashGridSearcher(resolution grid.Size3, spacing float64) *HashGridSearcher {
	return &HashGridSearcher{resolution: resolution, spacing: spacing}
}

func (s *HashGridSearcher) Resolution() grid.Size3 { return s.resolution }
func (s *HashGridSearcher) GridSpacing() float64   { return s.spacing }

// Points returns the points of the last Build.
func (s *HashGridSearcher) Points() []r3.Vec { return s.points }

// Build replaces the indexed points.
func (s *HashGridSearcher) Build(points []r3.Vec) {
	n := s.resolution.Len()
	if len(s.buckets) != n {
		s.buckets = make([][]int, n)
	}
	for i := range s.buckets {
		s.buckets[i] = s.buckets[i][:0]
	}
	s.points = append(s.points[:0], points...)
	for i, p := range s.points {
		key := s.hashKey(s.bucketIndex(p))
		s.buckets[key] = append(s.buckets[key], i)
	}
}

// Add indexes one more point.
func (s *HashGridSearcher) Add(p r3.Vec) {
	if len(s.buckets) != s.resolution.Len() {
		s.Build(nil)
	}
	key := s.hashKey(s.bucketIndex(p))
	s.buckets[key] = append(s.buckets[key], len(s.points))
	s.points = append(s.points, p)
}

// ForEachNearbyPoint calls fn for every indexed point within radius of
// origin, in bucket order.
func (s *HashGridSearcher) ForEachNearbyPoint(origin r3.Vec, radius float64, fn func(i int, p r3.Vec)) {
	if len(s.buckets) == 0 {
		return
	}
	r2 := radius * radius
	for _, key := range s.nearbyKeys(origin) {
		for _, i := range s.buckets[key] {
			if r3.Norm2(r3.Sub(s.points[i], origin)) <= r2 {
				fn(i, s.points[i])
			}
		}
	}
}

// HasNearbyPoint reports whether any indexed point lies within radius.
func (s *HashGridSearcher) HasNearbyPoint(origin r3.Vec, radius float64) bool {
	if len(s.buckets) == 0 {
		return false
	}
	r2 := radius * radius
	for _, key := range s.nearbyKeys(origin) {
		for _, i := range s.buckets[key] {
			if r3.Norm2(r3.Sub(s.points[i], origin)) <= r2 {
				return true
			}
		}
	}
	return false
}

type bucketIndex struct{ x, y, z int }

func (s *HashGridSearcher) bucketIndex(p r3.Vec) bucketIndex {
	return bucketIndex{
		x: int(math.Floor(p.X / s.spacing)),
		y: int(math.Floor(p.Y / s.spacing)),
		z: int(math.Floor(p.Z / s.spacing)),
	}
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func (s *HashGridSearcher) hashKey(b bucketIndex) int {
	x := wrap(b.x, s.resolution.X)
	y := wrap(b.y, s.resolution.Y)
	z := wrap(b.z, s.resolution.Z)
	return (z*s.resolution.Y+y)*s.resolution.X + x
}

// nearbyKeys returns the distinct keys of the 2x2x2 buckets closest to p.
func (s *HashGridSearcher) nearbyKeys(p r3.Vec) []int {
	origin := s.bucketIndex(p)
	step := func(o int, coord float64) int {
		if (float64(o)+0.5)*s.spacing <= coord {
			return 1
		}
		return -1
	}
	dx, dy, dz := step(origin.x, p.X), step(origin.y, p.Y), step(origin.z, p.Z)

	keys := make([]int, 0, 8)
	for n := 0; n < 8; n++ {
		b := origin
		if n&4 != 0 {
			b.x += dx
		}
		if n&2 != 0 {
			b.y += dy
		}
		if n&1 != 0 {
			b.z += dz
		}
		key := s.hashKey(b)
		dup := false
		for _, k := range keys {
			if k == key {
				dup = true
				break
			}
		}
		if !dup {
			keys = append(keys, key)
		}
	}
	return keys
}
