//go:build opencv

package morphology

import (
	"fmt"

	"gocv.io/x/gocv"

	"nucleitracker/internal/cvmat"
	"nucleitracker/internal/models"
)

// OpenCV runs the same cleanup through gocv.MorphologyEx. The kernels come
// from Rect and Ellipse, not gocv.GetStructuringElement: OpenCV's
// MORPH_ELLIPSE is a cross at size 3 and a narrower disc at size 5, so
// the two backends would otherwise disagree.
type OpenCV struct{}

// Name identifies the backend in logs.
func (OpenCV) Name() string {
	return "opencv"
}

// Clean closes with a closeSize square and opens with an openSize ellipse.
func (OpenCV) Clean(mask *models.Mask, closeSize, openSize int) (*models.Mask, error) {
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

	src, err := cvmat.FromMask(mask)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	closeMat, err := cvmat.FromMask(kernelMask(closeKernel))
	if err != nil {
		return nil, err
	}
	defer closeMat.Close()

	openMat, err := cvmat.FromMask(kernelMask(openKernel))
	if err != nil {
		return nil, err
	}
	defer openMat.Close()

	closed := gocv.NewMat()
	defer closed.Close()
	if err := gocv.MorphologyEx(src, &closed, gocv.MorphClose, closeMat); err != nil {
		return nil, fmt.Errorf("closing: %w", err)
	}

	opened := gocv.NewMat()
	defer opened.Close()
	if err := gocv.MorphologyEx(closed, &opened, gocv.MorphOpen, openMat); err != nil {
		return nil, fmt.Errorf("opening: %w", err)
	}

	return cvmat.ToMask(opened)
}

func kernelMask(k Kernel) *models.Mask {
	m := models.NewMask(k.Size, k.Size)
	for i, on := range k.Cells {
		if on {
			m.Pix[i] = 1
		}
	}
	return m
}
