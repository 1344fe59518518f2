package nuclei

import (
	"errors"
	"image"
	"math"
	"testing"

	"nucleitracker/internal/models"
	"nucleitracker/pkg/labeling"
)

func paintSquare(m *models.Mask, r0, c0, k int) {
	for r := r0; r < r0+k; r++ {
		for c := c0; c < c0+k; c++ {
			m.Set(r, c, 1)
		}
	}
}

func aggregateMask(t *testing.T, m *models.Mask) *Set {
	t.Helper()
	count, labels, err := labeling.Label(m)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	set, err := Aggregate(count, labels)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	return set
}

// TestAggregateTwoSquares checks two disjoint 3x3 squares give two disjoint
// coordinate sets covering all 18 foreground pixels
func TestAggregateTwoSquares(t *testing.T) {
	m := models.NewMask(10, 12)
	paintSquare(m, 1, 1, 3)
	paintSquare(m, 5, 7, 3)

	set := aggregateMask(t, m)
	if set.Len() != 2 {
		t.Fatalf("Expected 2 nuclei, got %d", set.Len())
	}

	seen := make(map[models.Coordinate]int)
	for _, n := range set.Sorted() {
		for _, p := range n.Coordinates {
			if prev, dup := seen[p]; dup {
				t.Errorf("Pixel %v claimed by nuclei %d and %d", p, prev, n.ID)
			}
			seen[p] = n.ID
			if m.At(p.Row, p.Col) != 1 {
				t.Errorf("Nucleus %d contains background pixel %v", n.ID, p)
			}
		}
	}
	if len(seen) != 18 {
		t.Errorf("Expected union of 18 pixels, got %d", len(seen))
	}
}

// TestCentroidOfSquare checks centroid = (r0+(k-1)/2, c0+(k-1)/2)
func TestCentroidOfSquare(t *testing.T) {
	for _, tc := range []struct{ r0, c0, k int }{{0, 0, 1}, {2, 3, 4}, {7, 1, 5}, {10, 10, 2}} {
		m := models.NewMask(20, 20)
		paintSquare(m, tc.r0, tc.c0, tc.k)

		set := aggregateMask(t, m)
		n, ok := set.Get(1)
		if !ok {
			t.Fatalf("Expected nucleus 1 for square %+v", tc)
		}
		wantR := float64(tc.r0) + float64(tc.k-1)/2
		wantC := float64(tc.c0) + float64(tc.k-1)/2
		if math.Abs(n.Centroid.Row-wantR) > 1e-9 || math.Abs(n.Centroid.Col-wantC) > 1e-9 {
			t.Errorf("Square %+v: expected centroid (%v,%v), got (%v,%v)", tc, wantR, wantC, n.Centroid.Row, n.Centroid.Col)
		}
		if n.Area != tc.k*tc.k {
			t.Errorf("Square %+v: expected area %d, got %d", tc, tc.k*tc.k, n.Area)
		}
		wantBounds := image.Rect(tc.c0, tc.r0, tc.c0+tc.k, tc.r0+tc.k)
		if n.Bounds != wantBounds {
			t.Errorf("Square %+v: expected bounds %v, got %v", tc, wantBounds, n.Bounds)
		}
	}
}

func TestAggregateRasterOrder(t *testing.T) {
	m := models.NewMask(4, 4)
	paintSquare(m, 1, 1, 2)

	set := aggregateMask(t, m)
	n, _ := set.Get(1)
	want := []models.Coordinate{{Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 1}, {Row: 2, Col: 2}}
	for i, p := range want {
		if n.Coordinates[i] != p {
			t.Errorf("Coordinate %d: expected %v, got %v", i, p, n.Coordinates[i])
		}
	}
	if n.Name() != "nucleo_1" {
		t.Errorf("Expected name nucleo_1, got %s", n.Name())
	}
}

// TestAggregateSkipsEmptyLabel makes sure a label with no pixels is skipped
func TestAggregateSkipsEmptyLabel(t *testing.T) {
	labels := models.NewLabelMap(3, 3)
	labels.Set(0, 0, 1)
	labels.Set(2, 2, 3)

	set, err := Aggregate(3, labels)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("Expected 2 nuclei, got %d", set.Len())
	}
	if len(set.Degenerate) != 1 || set.Degenerate[0] != 2 {
		t.Errorf("Expected label 2 reported as degenerate, got %v", set.Degenerate)
	}
	if _, ok := set.Get(2); ok {
		t.Errorf("Expected no nucleus for empty label 2")
	}
}

func TestAggregateRejectsOutOfRangeLabel(t *testing.T) {
	labels := models.NewLabelMap(2, 2)
	labels.Set(1, 1, 5)
	if _, err := Aggregate(2, labels); !errors.Is(err, models.ErrDegenerateLabel) {
		t.Errorf("Expected ErrDegenerateLabel, got %v", err)
	}
	if _, err := Aggregate(-1, labels); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for negative count, got %v", err)
	}
}

func TestAggregateRejectsOversizedCount(t *testing.T) {
	for _, count := range []int{5, 1 << 30, math.MaxInt} {
		if _, err := Aggregate(count, models.NewLabelMap(2, 2)); !errors.Is(err, models.ErrDegenerateLabel) {
			t.Errorf("Count %d on a 2x2 map: expected ErrDegenerateLabel, got %v", count, err)
		}
	}
	if _, err := Aggregate(4, models.NewLabelMap(2, 2)); err != nil {
		t.Errorf("Expected count equal to the pixel count to be accepted, got %v", err)
	}
}

func TestAggregateRejectsMalformedMap(t *testing.T) {
	bad := &models.LabelMap{Rows: 3, Cols: 3, Labels: make([]int, 4)}
	if _, err := Aggregate(1, bad); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for short label slice, got %v", err)
	}
}

func TestAggregateEmpty(t *testing.T) {
	set, err := Aggregate(0, models.NewLabelMap(5, 5))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if set.Len() != 0 || len(set.IDs()) != 0 {
		t.Errorf("Expected empty set, got %d nuclei", set.Len())
	}
}
