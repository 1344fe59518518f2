// Package morphology removes noise from binary nucleus masks.
//
// Cleaning is a closing with a full square element, which bridges small
// gaps inside a nucleus, followed by an opening with an elliptical element,
// which prunes foreground blobs smaller than the element. The order is
// fixed; running the opening first gives a different mask.
//
// Borders follow the OpenCV convention for morphologyEx: pixels outside the
// mask never add foreground during dilation and never remove it during
// erosion.
package morphology

import (
	"fmt"

	"nucleitracker/internal/models"
)

// Cleaner runs the close-then-open cleanup on a mask.
type Cleaner interface {
	Clean(mask *models.Mask, closeSize, openSize int) (*models.Mask, error)
	Name() string
}

// Native is the pure Go Cleaner.
type Native struct{}

// Name identifies the backend in logs.
func (Native) Name() string {
	return "native"
}

// Clean closes with a closeSize square and opens with an openSize ellipse.
// The input mask is not modified.
func (Native) Clean(mask *models.Mask, closeSize, openSize int) (*models.Mask, error) {
	return Clean(mask, closeSize, openSize)
}

// Clean closes with a closeSize square and opens with an openSize ellipse.
func Clean(mask *models.Mask, closeSize, openSize int) (*models.Mask, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	closeKernel, err := Rect(closeSize)
	if err != nil {
		return nil, fmt.Errorf("closing: %w", err)
	}
	openKernel, err := Ellipse(openSize)
	if err != nil {
		return nil, fmt.Errorf("opening: %w", err)
	}

	return Open(Close(mask, closeKernel), openKernel), nil
}

// Close is dilation followed by erosion.
func Close(mask *models.Mask, k Kernel) *models.Mask {
	return Erode(Dilate(mask, k), k)
}

// Open is erosion followed by dilation.
func Open(mask *models.Mask, k Kernel) *models.Mask {
	return Dilate(Erode(mask, k), k)
}

// Dilate sets a pixel when any element cell lands on foreground.
func Dilate(mask *models.Mask, k Kernel) *models.Mask {
	out := models.NewMask(mask.Rows, mask.Cols)
	a := k.Anchor()
	for r := 0; r < mask.Rows; r++ {
		for c := 0; c < mask.Cols; c++ {
			out.Pix[r*mask.Cols+c] = probe(mask, k, a, r, c, 1)
		}
	}
	return out
}

// Erode keeps a pixel only when every element cell inside the mask lands on
// foreground.
func Erode(mask *models.Mask, k Kernel) *models.Mask {
	out := models.NewMask(mask.Rows, mask.Cols)
	a := k.Anchor()
	for r := 0; r < mask.Rows; r++ {
		for c := 0; c < mask.Cols; c++ {
			out.Pix[r*mask.Cols+c] = 1 - probe(mask, k, a, r, c, 0)
		}
	}
	return out
}

// probe returns 1 when some in-bounds cell under the element centred on
// (r, c) has value want.
func probe(mask *models.Mask, k Kernel, a, r, c int, want uint8) uint8 {
	for ky := 0; ky < k.Size; ky++ {
		y := r + ky - a
		if y < 0 || y >= mask.Rows {
			continue
		}
		for kx := 0; kx < k.Size; kx++ {
			x := c + kx - a
			if x < 0 || x >= mask.Cols || !k.On(ky, kx) {
				continue
			}
			if mask.Pix[y*mask.Cols+x] == want {
				return 1
			}
		}
	}
	return 0
}
