// Package shape interprets the axis layout of microscopy arrays.
//
// Decoders hand back arrays of 2 to 5 axes. The meaning of each axis depends
// only on the arity, with one exception: a 3D array whose trailing axis is 1
// is a grayscale plane carrying a singleton axis, not a one-channel stack.
//
//	2D: (height, width)
//	3D: (height, width, channels)
//	4D: (z, channels, height, width)
//	5D: (z, channels, frames, height, width)
package shape

import (
	"fmt"

	"nucleitracker/internal/models"
)

// Axis names the role an array axis plays.
type Axis int

const (
	AxisZ Axis = iota
	AxisC
	AxisT
	AxisY
	AxisX
)

func (a Axis) String() string {
	switch a {
	case AxisZ:
		return "z"
	case AxisC:
		return "c"
	case AxisT:
		return "t"
	case AxisY:
		return "y"
	case AxisX:
		return "x"
	default:
		return "?"
	}
}

// Layout returns the role of each axis for an array of the given arity.
func Layout(arity int) ([]Axis, error) {
	switch arity {
	case 2:
		return []Axis{AxisY, AxisX}, nil
	case 3:
		return []Axis{AxisY, AxisX, AxisC}, nil
	case 4:
		return []Axis{AxisZ, AxisC, AxisY, AxisX}, nil
	case 5:
		return []Axis{AxisZ, AxisC, AxisT, AxisY, AxisX}, nil
	default:
		return nil, fmt.Errorf("%w: %d axes (supported: 2 to 5)", models.ErrUnsupportedDimensionality, arity)
	}
}

// Resolve reads a shape tuple into Dimensions.
func Resolve(shape []int) (models.Dimensions, error) {
	for i, s := range shape {
		if s < 1 {
			return models.Dimensions{}, fmt.Errorf("%w: axis %d has size %d", models.ErrUnsupportedDimensionality, i, s)
		}
	}

	switch len(shape) {
	case 2:
		return models.Dimensions{Height: shape[0], Width: shape[1], Channels: 1, ZSlices: 1, Frames: 1}, nil
	case 3:
		if shape[2] == 1 {
			// Grayscale plane with a trailing singleton axis
			return models.Dimensions{Height: shape[0], Width: shape[1], Channels: 1, ZSlices: 1, Frames: 1}, nil
		}
		return models.Dimensions{Height: shape[0], Width: shape[1], Channels: shape[2], ZSlices: 1, Frames: 1}, nil
	case 4:
		return models.Dimensions{ZSlices: shape[0], Channels: shape[1], Height: shape[2], Width: shape[3], Frames: 1}, nil
	case 5:
		return models.Dimensions{ZSlices: shape[0], Channels: shape[1], Frames: shape[2], Height: shape[3], Width: shape[4]}, nil
	default:
		return models.Dimensions{}, fmt.Errorf("%w: %d axes (supported: 2 to 5)", models.ErrUnsupportedDimensionality, len(shape))
	}
}
