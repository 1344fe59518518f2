// Package bioimage exposes a raw microscopy array through the views the
// detection pipeline asks for: dimensions, a single intensity plane, its
// normalized form and its binary mask.
package bioimage

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"nucleitracker/internal/models"
	"nucleitracker/pkg/channel"
	"nucleitracker/pkg/intensity"
	"nucleitracker/pkg/shape"
)

// Selection picks one 2D plane out of a multi-dimensional image.
type Selection struct {
	Channel int `yaml:"channel" json:"channel"`
	ZSlice  int `yaml:"z_slice" json:"z_slice"`
	Frame   int `yaml:"frame" json:"frame"`
}

func (s Selection) String() string {
	return fmt.Sprintf("c=%d z=%d t=%d", s.Channel, s.ZSlice, s.Frame)
}

// Handler wraps one RawImage. It never modifies the raw data and keeps no
// derived state, so it is safe to share between goroutines.
type Handler struct {
	raw *models.RawImage
}

// NewHandler validates raw and wraps it.
func NewHandler(raw *models.RawImage) (*Handler, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil raw image", models.ErrInvalidInput)
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return &Handler{raw: raw}, nil
}

// Raw returns the wrapped array.
func (h *Handler) Raw() *models.RawImage {
	return h.raw
}

// Dimensions interprets the raw shape.
func (h *Handler) Dimensions() (models.Dimensions, error) {
	return shape.Resolve(h.raw.Shape)
}

// Channel returns every plane of one channel.
func (h *Handler) Channel(index int) (*channel.Array, error) {
	dims, err := h.Dimensions()
	if err != nil {
		return nil, err
	}
	return channel.Extract(h.raw, dims, index)
}

// Intensity returns the plane chosen by sel in the source dtype's range.
func (h *Handler) Intensity(sel Selection) (*models.IntensityMatrix, error) {
	arr, err := h.Channel(sel.Channel)
	if err != nil {
		return nil, err
	}
	return arr.Plane(sel.ZSlice, sel.Frame)
}

// Normalized divides m by the maximum of its dtype.
func (h *Handler) Normalized(m *models.IntensityMatrix) (*mat.Dense, error) {
	return intensity.Normalize(m)
}

// Binary thresholds a normalized matrix.
func (h *Handler) Binary(norm mat.Matrix, threshold float64) (*models.Mask, error) {
	return intensity.Binarize(norm, threshold)
}
