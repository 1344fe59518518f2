// Package labeling partitions binary masks into 8-connected components.
package labeling

import (
	"nucleitracker/internal/models"
)

// Labeler assigns component ids to the foreground of a mask.
type Labeler interface {
	Label(mask *models.Mask) (int, *models.LabelMap, error)
	Name() string
}

// Native is the pure Go two-pass labeler.
type Native struct{}

// Name identifies the backend in logs.
func (Native) Name() string {
	return "native"
}

// Label implements Labeler.
func (Native) Label(mask *models.Mask) (int, *models.LabelMap, error) {
	return Label(mask)
}

// Label runs two-pass connected-component labeling with 8-connectivity.
// It returns the number of components and a map where 0 is background and
// components are numbered 1..count in the raster order of their first
// pixel.
func Label(mask *models.Mask) (int, *models.LabelMap, error) {
	if err := mask.Validate(); err != nil {
		return 0, nil, err
	}
	rows, cols := mask.Rows, mask.Cols
	labels := models.NewLabelMap(rows, cols)
	sets := newDisjointSet(mask.Count()/2 + 2)

	// First pass: provisional labels, recording equivalences with the four
	// neighbours already visited (W, NW, N, NE).
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if mask.Pix[r*cols+c] == 0 {
				continue
			}
			current := 0
			for _, off := range [4][2]int{{0, -1}, {-1, -1}, {-1, 0}, {-1, 1}} {
				y, x := r+off[0], c+off[1]
				if y < 0 || x < 0 || x >= cols {
					continue
				}
				n := labels.Labels[y*cols+x]
				if n == 0 {
					continue
				}
				if current == 0 {
					current = n
				} else if n != current {
					sets.union(current, n)
				}
			}
			if current == 0 {
				current = sets.add()
			}
			labels.Labels[r*cols+c] = current
		}
	}

	// Second pass: collapse each equivalence class to a compact id.
	compact := make(map[int]int)
	count := 0
	for i, v := range labels.Labels {
		if v == 0 {
			continue
		}
		root := sets.find(v)
		id, ok := compact[root]
		if !ok {
			count++
			id = count
			compact[root] = id
		}
		labels.Labels[i] = id
	}

	return count, labels, nil
}

// disjointSet is a union-find over provisional labels. Index 0 is unused so
// labels can be used directly.
type disjointSet struct {
	parent []int
}

func newDisjointSet(capacity int) *disjointSet {
	return &disjointSet{parent: make([]int, 1, capacity)}
}

func (d *disjointSet) add() int {
	id := len(d.parent)
	d.parent = append(d.parent, id)
	return id
}

func (d *disjointSet) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		d.parent[rb] = ra
	} else {
		d.parent[ra] = rb
	}
}
