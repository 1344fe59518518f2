package nuclei

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"nucleitracker/internal/models"
)

func threeNuclei(t *testing.T) *Set {
	t.Helper()
	m := models.NewMask(30, 30)
	paintSquare(m, 1, 1, 2)   // area 4, centroid (1.5, 1.5)
	paintSquare(m, 10, 10, 4) // area 16, centroid (11.5, 11.5)
	paintSquare(m, 20, 2, 6)  // area 36, centroid (22.5, 4.5)
	return aggregateMask(t, m)
}

func TestFilterByArea(t *testing.T) {
	set := threeNuclei(t)

	out, err := FilterByArea(set, 5, 0)
	if err != nil {
		t.Fatalf("FilterByArea failed: %v", err)
	}
	if !reflect.DeepEqual(out.IDs(), []int{2, 3}) {
		t.Errorf("Expected ids [2 3], got %v", out.IDs())
	}

	out, err = FilterByArea(set, 0, 20)
	if err != nil {
		t.Fatalf("FilterByArea failed: %v", err)
	}
	if !reflect.DeepEqual(out.IDs(), []int{1, 2}) {
		t.Errorf("Expected ids [1 2], got %v", out.IDs())
	}

	if set.Len() != 3 {
		t.Errorf("FilterByArea modified its input")
	}

	if _, err := FilterByArea(set, 10, 5); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for inverted bounds, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(threeNuclei(t))
	if s.Count != 3 || s.ForegroundPixels != 56 {
		t.Errorf("Expected 3 nuclei and 56 pixels, got %d and %d", s.Count, s.ForegroundPixels)
	}
	if s.MinArea != 4 || s.MaxArea != 36 {
		t.Errorf("Expected area range [4,36], got [%d,%d]", s.MinArea, s.MaxArea)
	}
	wantMean := 56.0 / 3
	if math.Abs(s.MeanArea-wantMean) > 1e-9 {
		t.Errorf("Expected mean %v, got %v", wantMean, s.MeanArea)
	}
	// sample stddev of {4,16,36}
	wantStd := math.Sqrt(((4-wantMean)*(4-wantMean) + (16-wantMean)*(16-wantMean) + (36-wantMean)*(36-wantMean)) / 2)
	if math.Abs(s.StdDevArea-wantStd) > 1e-9 {
		t.Errorf("Expected stddev %v, got %v", wantStd, s.StdDevArea)
	}

	empty := Summarize(&Set{Nuclei: map[int]models.Nucleus{}})
	if empty.Count != 0 || empty.MeanArea != 0 {
		t.Errorf("Expected zero summary for empty set, got %+v", empty)
	}
}

func TestIndexNearestAndWithin(t *testing.T) {
	idx := NewIndex(threeNuclei(t))
	if idx.Len() != 3 {
		t.Fatalf("Expected 3 indexed centroids, got %d", idx.Len())
	}

	id, dist, ok := idx.Nearest(12, 12)
	if !ok || id != 2 {
		t.Errorf("Expected nearest nucleus 2, got %d (ok=%v)", id, ok)
	}
	if math.Abs(dist-math.Sqrt(0.5)) > 1e-9 {
		t.Errorf("Expected distance %v, got %v", math.Sqrt(0.5), dist)
	}

	if id, _, _ := idx.Nearest(25, 0); id != 3 {
		t.Errorf("Expected nearest nucleus 3, got %d", id)
	}

	got := idx.Within(6, 6, 8)
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Expected ids [1 2] within radius 8, got %v", got)
	}

	if _, _, ok := NewIndex(&Set{Nuclei: map[int]models.Nucleus{}}).Nearest(0, 0); ok {
		t.Errorf("Expected empty index to report no nearest nucleus")
	}
}

func TestIndexNeighbor(t *testing.T) {
	idx := NewIndex(threeNuclei(t))
	cases := []struct {
		id, neighbor int
		dist         float64
	}{
		{1, 2, math.Sqrt(200)},
		{2, 3, math.Sqrt(170)},
		{3, 2, math.Sqrt(170)},
	}
	for _, tc := range cases {
		got, dist, ok := idx.Neighbor(tc.id)
		if !ok || got != tc.neighbor {
			t.Errorf("Nucleus %d: expected neighbor %d, got %d (ok=%v)", tc.id, tc.neighbor, got, ok)
		}
		if math.Abs(dist-tc.dist) > 1e-9 {
			t.Errorf("Nucleus %d: expected distance %v, got %v", tc.id, tc.dist, dist)
		}
	}

	if _, _, ok := idx.Neighbor(9); ok {
		t.Errorf("Expected no neighbor for an unknown id")
	}

	m := models.NewMask(5, 5)
	paintSquare(m, 1, 1, 2)
	if _, _, ok := NewIndex(aggregateMask(t, m)).Neighbor(1); ok {
		t.Errorf("Expected no neighbor for a single nucleus")
	}
}
