package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DType identifies the native element type of a raw microscopy array as
// reported by the format decoder.
type DType int

const (
	Uint8 DType = iota
	Uint16
	Float64
)

// Max returns the largest value representable by the dtype. Float data is
// expected to be pre-scaled to [0,1] by the decoder.
func (d DType) Max() float64 {
	switch d {
	case Uint8:
		return 255
	case Uint16:
		return 65535
	case Float64:
		return 1
	default:
		return 0
	}
}

func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// RawImage is the N-dimensional array handed back by an image source.
// Data is stored row-major with the last axis varying fastest. Pipeline
// stages never write to it.
type RawImage struct {
	// Shape holds the size of every axis in decoder order
	Shape []int

	// DType is the element type the values were decoded from
	DType DType

	// Data holds prod(Shape) values in the dtype's native range
	Data []float64
}

// NewRawImage builds a RawImage and checks that the data length matches the
// shape. The shape is copied; the data slice is taken over by the image.
func NewRawImage(shape []int, dtype DType, data []float64) (*RawImage, error) {
	r := &RawImage{
		Shape: append([]int(nil), shape...),
		DType: dtype,
		Data:  data,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// NDim returns the number of axes.
func (r *RawImage) NDim() int {
	return len(r.Shape)
}

// Size returns the number of elements implied by the shape.
func (r *RawImage) Size() int {
	if len(r.Shape) == 0 {
		return 0
	}
	n := 1
	for _, s := range r.Shape {
		n *= s
	}
	return n
}

// Validate reports whether the shape, dtype and data agree.
func (r *RawImage) Validate() error {
	if r.DType.Max() == 0 {
		return fmt.Errorf("%w: unknown %s", ErrInvalidInput, r.DType)
	}
	for i, s := range r.Shape {
		if s < 1 {
			return fmt.Errorf("%w: axis %d has size %d", ErrInvalidInput, i, s)
		}
	}
	if len(r.Data) != r.Size() {
		return fmt.Errorf("%w: shape %v needs %d values, got %d", ErrInvalidInput, r.Shape, r.Size(), len(r.Data))
	}
	return nil
}

// Dimensions is the semantic reading of a RawImage shape.
type Dimensions struct {
	Height   int `yaml:"height" json:"height"`
	Width    int `yaml:"width" json:"width"`
	Channels int `yaml:"channels" json:"channels"`
	ZSlices  int `yaml:"z_slices" json:"z_slices"`
	Frames   int `yaml:"frames" json:"frames"`
}

// Elements returns channels*z*frames*height*width.
func (d Dimensions) Elements() int {
	return d.Channels * d.ZSlices * d.Frames * d.Height * d.Width
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d c=%d z=%d t=%d", d.Height, d.Width, d.Channels, d.ZSlices, d.Frames)
}

// IntensityMatrix is a single 2D plane in the source dtype's native range.
type IntensityMatrix struct {
	Data  *mat.Dense
	DType DType
}

// NewIntensityMatrix wraps row-major values as a rows x cols matrix.
func NewIntensityMatrix(rows, cols int, dtype DType, values []float64) (*IntensityMatrix, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: matrix must be at least 1x1, got %dx%d", ErrInvalidInput, rows, cols)
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("%w: %dx%d matrix needs %d values, got %d", ErrInvalidInput, rows, cols, rows*cols, len(values))
	}
	return &IntensityMatrix{
		Data:  mat.NewDense(rows, cols, values),
		DType: dtype,
	}, nil
}
