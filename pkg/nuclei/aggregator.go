// Package nuclei turns label maps into per-nucleus geometry.
package nuclei

import (
	"fmt"
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"

	"nucleitracker/internal/models"
)

// Set is the result of aggregating one label map.
type Set struct {
	// Nuclei maps label id to nucleus
	Nuclei map[int]models.Nucleus

	// Degenerate lists ids in 1..count that had no pixels and were skipped
	Degenerate []int

	// Rows and Cols are the dimensions of the source label map
	Rows int
	Cols int
}

// Len returns the number of nuclei.
func (s *Set) Len() int {
	return len(s.Nuclei)
}

// IDs returns the nucleus ids in ascending order.
func (s *Set) IDs() []int {
	ids := make([]int, 0, len(s.Nuclei))
	for id := range s.Nuclei {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Get returns the nucleus with the given id.
func (s *Set) Get(id int) (models.Nucleus, bool) {
	n, ok := s.Nuclei[id]
	return n, ok
}

// Sorted returns the nuclei ordered by id.
func (s *Set) Sorted() []models.Nucleus {
	out := make([]models.Nucleus, 0, len(s.Nuclei))
	for _, id := range s.IDs() {
		out = append(out, s.Nuclei[id])
	}
	return out
}

// Centroids returns the centroid of every nucleus keyed by id.
func (s *Set) Centroids() map[int]models.Centroid {
	out := make(map[int]models.Centroid, len(s.Nuclei))
	for id, n := range s.Nuclei {
		out[id] = n.Centroid
	}
	return out
}

// Aggregate collects the pixels of labels 1..count, in raster order, and
// computes centroid, bounds and area for each. Labels with no pixels are
// skipped and listed in Set.Degenerate. A label value outside [0,count]
// means the map does not match count and is reported as ErrDegenerateLabel,
// as is a count larger than the number of pixels.
func Aggregate(count int, labels *models.LabelMap) (*Set, error) {
	if err := labels.Validate(); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative label count %d", models.ErrInvalidInput, count)
	}
	if count > len(labels.Labels) {
		return nil, fmt.Errorf("%w: label count %d exceeds the %d pixels of the map", models.ErrDegenerateLabel, count, len(labels.Labels))
	}

	coords := make([][]models.Coordinate, count+1)
	for r := 0; r < labels.Rows; r++ {
		for c := 0; c < labels.Cols; c++ {
			id := labels.Labels[r*labels.Cols+c]
			if id == 0 {
				continue
			}
			if id < 0 || id > count {
				return nil, fmt.Errorf("%w: pixel (%d,%d) has label %d, expected [0,%d]", models.ErrDegenerateLabel, r, c, id, count)
			}
			coords[id] = append(coords[id], models.Coordinate{Row: r, Col: c})
		}
	}

	set := &Set{
		Nuclei: make(map[int]models.Nucleus, count),
		Rows:   labels.Rows,
		Cols:   labels.Cols,
	}
	for id := 1; id <= count; id++ {
		if len(coords[id]) == 0 {
			set.Degenerate = append(set.Degenerate, id)
			continue
		}
		set.Nuclei[id] = newNucleus(id, coords[id])
	}

	return set, nil
}

func newNucleus(id int, coords []models.Coordinate) models.Nucleus {
	rows := make([]float64, len(coords))
	cols := make([]float64, len(coords))
	minR, minC := coords[0].Row, coords[0].Col
	maxR, maxC := minR, minC
	for i, p := range coords {
		rows[i] = float64(p.Row)
		cols[i] = float64(p.Col)
		if p.Row < minR {
			minR = p.Row
		}
		if p.Row > maxR {
			maxR = p.Row
		}
		if p.Col < minC {
			minC = p.Col
		}
		if p.Col > maxC {
			maxC = p.Col
		}
	}

	return models.Nucleus{
		ID:          id,
		Coordinates: coords,
		Centroid: models.Centroid{
			Row: stat.Mean(rows, nil),
			Col: stat.Mean(cols, nil),
		},
		Bounds: image.Rect(minC, minR, maxC+1, maxR+1),
		Area:   len(coords),
	}
}
