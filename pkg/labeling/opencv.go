//go:build opencv

package labeling

import (
	"fmt"

	"gocv.io/x/gocv"

	"nucleitracker/internal/cvmat"
	"nucleitracker/internal/models"
)

// OpenCV labels through gocv.ConnectedComponentsWithParams with
// 8-connectivity. Ids are renumbered into raster order of first pixel so
// results line up with Native.
type OpenCV struct{}

// Name identifies the backend in logs.
func (OpenCV) Name() string {
	return "opencv"
}

// Label implements Labeler.
func (OpenCV) Label(mask *models.Mask) (int, *models.LabelMap, error) {
	if err := mask.Validate(); err != nil {
		return 0, nil, err
	}
	src, err := cvmat.FromMask(mask)
	if err != nil {
		return 0, nil, err
	}
	defer src.Close()

	cvLabels := gocv.NewMat()
	defer cvLabels.Close()
	n := gocv.ConnectedComponentsWithParams(src, &cvLabels, 8, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)
	if n < 1 {
		return 0, nil, fmt.Errorf("connected components returned %d labels", n)
	}

	labels := models.NewLabelMap(mask.Rows, mask.Cols)
	compact := make(map[int32]int, n)
	count := 0
	for r := 0; r < mask.Rows; r++ {
		for c := 0; c < mask.Cols; c++ {
			v := cvLabels.GetIntAt(r, c)
			if v == 0 {
				continue
			}
			id, ok := compact[v]
			if !ok {
				count++
				id = count
				compact[v] = id
			}
			labels.Set(r, c, id)
		}
	}

	return count, labels, nil
}
