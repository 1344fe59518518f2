package morphology

import (
	"fmt"
	"strings"

	"nucleitracker/internal/models"
)

// Kernel is a square structuring element. Cells are row-major; the anchor
// sits at (Size/2, Size/2), which for even sizes is the lower-right of the
// two central cells.
type Kernel struct {
	Size  int
	Cells []bool
}

// Anchor returns the anchor offset inside the kernel.
func (k Kernel) Anchor() int {
	return k.Size / 2
}

// On reports whether cell (row, col) belongs to the element.
func (k Kernel) On(row, col int) bool {
	return k.Cells[row*k.Size+col]
}

func (k Kernel) String() string {
	var b strings.Builder
	for r := 0; r < k.Size; r++ {
		for c := 0; c < k.Size; c++ {
			if k.On(r, c) {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		if r < k.Size-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Rect returns a full size x size element.
func Rect(size int) (Kernel, error) {
	if size < 1 {
		return Kernel{}, fmt.Errorf("%w: %d", models.ErrInvalidKernelSize, size)
	}
	cells := make([]bool, size*size)
	for i := range cells {
		cells[i] = true
	}
	return Kernel{Size: size, Cells: cells}, nil
}

// Ellipse returns the ellipse inscribed in a size x size box: a cell is part
// of the element when its centre lies inside the ellipse. Sizes 1 to 3 give
// a full square; from 5 up the corners are cut. The result is wider than
// OpenCV's MORPH_ELLIPSE at every size.
func Ellipse(size int) (Kernel, error) {
	if size < 1 {
		return Kernel{}, fmt.Errorf("%w: %d", models.ErrInvalidKernelSize, size)
	}
	semi := float64(size) / 2
	cells := make([]bool, size*size)
	for r := 0; r < size; r++ {
		dy := (float64(r) + 0.5 - semi) / semi
		for c := 0; c < size; c++ {
			dx := (float64(c) + 0.5 - semi) / semi
			cells[r*size+c] = dx*dx+dy*dy <= 1
		}
	}
	return Kernel{Size: size, Cells: cells}, nil
}
