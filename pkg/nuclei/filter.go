package nuclei

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"nucleitracker/internal/models"
)

// FilterByArea keeps nuclei whose area lies in [minArea, maxArea]. A
// maxArea of 0 means no upper bound. Ids are preserved.
func FilterByArea(set *Set, minArea, maxArea int) (*Set, error) {
	if minArea < 0 || maxArea < 0 {
		return nil, fmt.Errorf("%w: area bounds must be non-negative (min %d, max %d)", models.ErrInvalidInput, minArea, maxArea)
	}
	if maxArea > 0 && maxArea < minArea {
		return nil, fmt.Errorf("%w: max area %d below min area %d", models.ErrInvalidInput, maxArea, minArea)
	}

	out := &Set{
		Nuclei:     make(map[int]models.Nucleus, len(set.Nuclei)),
		Degenerate: append([]int(nil), set.Degenerate...),
		Rows:       set.Rows,
		Cols:       set.Cols,
	}
	for id, n := range set.Nuclei {
		if n.Area < minArea || (maxArea > 0 && n.Area > maxArea) {
			continue
		}
		out.Nuclei[id] = n
	}
	return out, nil
}

// Summary describes the size distribution of a set.
type Summary struct {
	Count            int     `json:"count"`
	ForegroundPixels int     `json:"foreground_pixels"`
	MeanArea         float64 `json:"mean_area"`
	StdDevArea       float64 `json:"stddev_area"`
	MinArea          int     `json:"min_area"`
	MaxArea          int     `json:"max_area"`
}

// Summarize computes area statistics. The standard deviation is the sample
// deviation and is 0 for fewer than two nuclei.
func Summarize(set *Set) Summary {
	s := Summary{Count: set.Len()}
	if s.Count == 0 {
		return s
	}

	areas := make([]float64, 0, s.Count)
	s.MinArea = math.MaxInt
	for _, n := range set.Nuclei {
		areas = append(areas, float64(n.Area))
		s.ForegroundPixels += n.Area
		if n.Area < s.MinArea {
			s.MinArea = n.Area
		}
		if n.Area > s.MaxArea {
			s.MaxArea = n.Area
		}
	}

	if len(areas) < 2 {
		s.MeanArea = areas[0]
		return s
	}
	s.MeanArea, s.StdDevArea = stat.MeanStdDev(areas, nil)
	return s
}
