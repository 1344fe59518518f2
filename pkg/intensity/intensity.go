// Package intensity scales raw intensity planes to [0,1] and thresholds them
// into binary masks.
package intensity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"nucleitracker/internal/models"
)

// DefaultThreshold is the cut used when the caller has no better estimate.
const DefaultThreshold = 0.5

// Normalize divides every value by the maximum of the matrix's original
// dtype. The division is done in float64 on a fresh matrix; the input is
// left untouched. Any result outside [0,1] means the values did not come
// from the declared dtype.
func Normalize(m *models.IntensityMatrix) (*mat.Dense, error) {
	if m == nil || m.Data == nil {
		return nil, fmt.Errorf("%w: nil intensity matrix", models.ErrInvalidInput)
	}
	maxValue := m.DType.Max()
	if maxValue == 0 {
		return nil, fmt.Errorf("%w: unknown %s", models.ErrDtypeMismatch, m.DType)
	}

	rows, cols := m.Data.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, _ int, v float64) float64 { return v / maxValue }, m.Data)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := out.At(r, c)
			if math.IsNaN(v) || v < 0 || v > 1 {
				return nil, fmt.Errorf("%w: value %v at (%d,%d) exceeds the %s range", models.ErrDtypeMismatch, m.Data.At(r, c), r, c, m.DType)
			}
		}
	}

	return out, nil
}

// Binarize marks a pixel as foreground when its normalized value is strictly
// greater than threshold. threshold must lie in the open interval (0,1).
func Binarize(norm mat.Matrix, threshold float64) (*models.Mask, error) {
	if norm == nil {
		return nil, fmt.Errorf("%w: nil matrix", models.ErrInvalidInput)
	}
	if math.IsNaN(threshold) || threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("%w: %v is outside (0,1)", models.ErrInvalidThreshold, threshold)
	}

	rows, cols := norm.Dims()
	mask := models.NewMask(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if norm.At(r, c) > threshold {
				mask.Pix[r*cols+c] = 1
			}
		}
	}

	return mask, nil
}
