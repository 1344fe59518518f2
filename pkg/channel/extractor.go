// Package channel pulls per-channel sub-arrays out of raw microscopy arrays.
package channel

import (
	"fmt"

	"nucleitracker/internal/models"
	"nucleitracker/pkg/shape"
)

// Array holds one channel of a raw image: a stack of planes indexed by
// z-slice and frame. Data is laid out [z][t][y][x], x fastest.
type Array struct {
	// Index is the channel index in the source array
	Index int

	ZSlices int
	Frames  int
	Height  int
	Width   int

	// DType is carried over from the source so normalization can use the
	// original range
	DType models.DType

	Data []float64
}

// Squeeze drops every axis of size 1. A shape made only of singleton axes
// squeezes to [1].
func Squeeze(dims []int) []int {
	out := make([]int, 0, len(dims))
	for _, d := range dims {
		if d != 1 {
			out = append(out, d)
		}
	}
	if len(out) == 0 && len(dims) > 0 {
		out = append(out, 1)
	}
	return out
}

// Shape returns the squeezed (z, t, y, x) shape of the channel.
func (a *Array) Shape() []int {
	return Squeeze([]int{a.ZSlices, a.Frames, a.Height, a.Width})
}

// Plane copies one z-slice/frame out as a 2D intensity matrix.
func (a *Array) Plane(z, t int) (*models.IntensityMatrix, error) {
	if z < 0 || z >= a.ZSlices {
		return nil, fmt.Errorf("%w: z-slice %d out of range [0,%d)", models.ErrInvalidChannelIndex, z, a.ZSlices)
	}
	if t < 0 || t >= a.Frames {
		return nil, fmt.Errorf("%w: frame %d out of range [0,%d)", models.ErrInvalidChannelIndex, t, a.Frames)
	}

	planeSize := a.Height * a.Width
	start := (z*a.Frames + t) * planeSize
	values := make([]float64, planeSize)
	copy(values, a.Data[start:start+planeSize])

	return models.NewIntensityMatrix(a.Height, a.Width, a.DType, values)
}

// Extract copies channel index out of raw. The axis roles come from
// shape.Layout, so the channel axis is found even when z or t are larger
// than one.
func Extract(raw *models.RawImage, dims models.Dimensions, index int) (*Array, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	if index < 0 || index >= dims.Channels {
		return nil, fmt.Errorf("%w: %d out of range [0,%d)", models.ErrInvalidChannelIndex, index, dims.Channels)
	}
	if dims.Elements() != raw.Size() {
		return nil, fmt.Errorf("%w: dimensions %s do not describe shape %v", models.ErrInvalidInput, dims, raw.Shape)
	}

	layout, err := shape.Layout(raw.NDim())
	if err != nil {
		return nil, err
	}

	// Row-major strides of the raw array, then the stride of each role.
	strides := make([]int, raw.NDim())
	step := 1
	for i := raw.NDim() - 1; i >= 0; i-- {
		strides[i] = step
		step *= raw.Shape[i]
	}
	var roleStride [5]int
	for i, axis := range layout {
		roleStride[axis] = strides[i]
	}

	out := &Array{
		Index:   index,
		ZSlices: dims.ZSlices,
		Frames:  dims.Frames,
		Height:  dims.Height,
		Width:   dims.Width,
		DType:   raw.DType,
		Data:    make([]float64, dims.ZSlices*dims.Frames*dims.Height*dims.Width),
	}

	base := index * roleStride[shape.AxisC]
	i := 0
	for z := 0; z < dims.ZSlices; z++ {
		for t := 0; t < dims.Frames; t++ {
			for y := 0; y < dims.Height; y++ {
				row := base + z*roleStride[shape.AxisZ] + t*roleStride[shape.AxisT] + y*roleStride[shape.AxisY]
				for x := 0; x < dims.Width; x++ {
					out.Data[i] = raw.Data[row+x*roleStride[shape.AxisX]]
					i++
				}
			}
		}
	}

	return out, nil
}

// Split returns every channel of raw, indexable by channel number.
func Split(raw *models.RawImage, dims models.Dimensions) ([]*Array, error) {
	channels := make([]*Array, dims.Channels)
	for c := 0; c < dims.Channels; c++ {
		a, err := Extract(raw, dims, c)
		if err != nil {
			return nil, err
		}
		channels[c] = a
	}
	return channels, nil
}
