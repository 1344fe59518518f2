package nuclei

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// centroidPoint is a nucleus centroid stored in the k-d tree.
type centroidPoint struct {
	Row, Col float64
	ID       int
}

// Compare implements the kdtree.Comparable interface
func (p centroidPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(centroidPoint)
	switch d {
	case 0:
		return p.Row - q.Row
	case 1:
		return p.Col - q.Col
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p centroidPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points
func (p centroidPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(centroidPoint)
	dr := p.Row - q.Row
	dc := p.Col - q.Col
	return dr*dr + dc*dc
}

type centroidPoints []centroidPoint

func (p centroidPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p centroidPoints) Len() int                              { return len(p) }
func (p centroidPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p centroidPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(centroidPlane{centroidPoints: p, Dim: d}, kdtree.MedianOfRandoms(centroidPlane{centroidPoints: p, Dim: d}, 100))
}

// centroidPlane implements sort.Interface and kdtree.SortSlicer
type centroidPlane struct {
	centroidPoints
	kdtree.Dim
}

func (p centroidPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.centroidPoints[i].Row < p.centroidPoints[j].Row
	case 1:
		return p.centroidPoints[i].Col < p.centroidPoints[j].Col
	default:
		panic("illegal dimension")
	}
}

func (p centroidPlane) Slice(start, end int) kdtree.SortSlicer {
	return centroidPlane{centroidPoints: p.centroidPoints[start:end], Dim: p.Dim}
}

func (p centroidPlane) Swap(i, j int) {
	p.centroidPoints[i], p.centroidPoints[j] = p.centroidPoints[j], p.centroidPoints[i]
}

// Index answers nearest-nucleus queries over the centroids of a set.
type Index struct {
	tree      *kdtree.Tree
	size      int
	centroids map[int]centroidPoint
}

// NewIndex builds a k-d tree over the centroids of set.
func NewIndex(set *Set) *Index {
	points := make(centroidPoints, 0, set.Len())
	byID := make(map[int]centroidPoint, set.Len())
	for _, id := range set.IDs() {
		c := set.Nuclei[id].Centroid
		p := centroidPoint{Row: c.Row, Col: c.Col, ID: id}
		points = append(points, p)
		byID[id] = p
	}
	if len(points) == 0 {
		return &Index{}
	}
	return &Index{tree: kdtree.New(points, false), size: len(points), centroids: byID}
}

// Len returns the number of indexed centroids.
func (x *Index) Len() int {
	return x.size
}

// Nearest returns the id of the nucleus whose centroid is closest to
// (row, col) and the Euclidean distance to it. ok is false for an empty
// index.
func (x *Index) Nearest(row, col float64) (id int, dist float64, ok bool) {
	if x.tree == nil {
		return 0, 0, false
	}
	got, d := x.tree.Nearest(centroidPoint{Row: row, Col: col})
	if got == nil {
		return 0, 0, false
	}
	return got.(centroidPoint).ID, math.Sqrt(d), true
}

// Neighbor returns the nucleus closest to nucleus id, other than itself,
// and the distance between their centroids. ok is false when id is not
// indexed or has no other nucleus to compare with.
func (x *Index) Neighbor(id int) (neighbor int, dist float64, ok bool) {
	self, found := x.centroids[id]
	if !found || x.size < 2 {
		return 0, 0, false
	}
	keeper := kdtree.NewNKeeper(2)
	x.tree.NearestSet(keeper, self)

	best := math.Inf(1)
	for _, item := range keeper.Heap {
		if item.Comparable == nil {
			continue
		}
		p := item.Comparable.(centroidPoint)
		if p.ID == id {
			continue
		}
		if item.Dist < best || (item.Dist == best && p.ID < neighbor) {
			best, neighbor = item.Dist, p.ID
		}
	}
	if neighbor == 0 {
		return 0, 0, false
	}
	return neighbor, math.Sqrt(best), true
}

// Within returns the ids of nuclei whose centroid lies within radius of
// (row, col), ordered by id.
func (x *Index) Within(row, col, radius float64) []int {
	if x.tree == nil || radius < 0 {
		return nil
	}
	keeper := kdtree.NewDistKeeper(radius * radius)
	x.tree.NearestSet(keeper, centroidPoint{Row: row, Col: col})

	ids := make([]int, 0, keeper.Len())
	for _, item := range keeper.Heap {
		// Skip the sentinel value
		if item.Comparable == nil {
			continue
		}
		ids = append(ids, item.Comparable.(centroidPoint).ID)
	}
	sort.Ints(ids)
	return ids
}
