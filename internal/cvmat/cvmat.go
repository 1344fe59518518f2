//go:build opencv

// Package cvmat converts between pipeline masks and OpenCV matrices.
package cvmat

import (
	"fmt"

	"gocv.io/x/gocv"

	"nucleitracker/internal/models"
)

// FromMask copies a mask into a CV_8U matrix. The caller must Close it.
func FromMask(m *models.Mask) (gocv.Mat, error) {
	if err := m.Validate(); err != nil {
		return gocv.Mat{}, err
	}
	data := make([]byte, len(m.Pix))
	copy(data, m.Pix)
	mat, err := gocv.NewMatFromBytes(m.Rows, m.Cols, gocv.MatTypeCV8U, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to create Mat from mask: %w", err)
	}
	return mat, nil
}

// ToMask reads a single-channel CV_8U matrix, treating non-zero as
// foreground.
func ToMask(src gocv.Mat) (*models.Mask, error) {
	if src.Empty() {
		return nil, fmt.Errorf("%w: empty Mat", models.ErrInvalidInput)
	}
	if src.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("%w: expected CV_8U Mat, got %v", models.ErrInvalidInput, src.Type())
	}
	out := models.NewMask(src.Rows(), src.Cols())
	for r := 0; r < src.Rows(); r++ {
		for c := 0; c < src.Cols(); c++ {
			if src.GetUCharAt(r, c) != 0 {
				out.Pix[r*out.Cols+c] = 1
			}
		}
	}
	return out, nil
}
