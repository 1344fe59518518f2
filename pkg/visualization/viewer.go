// Package visualization renders detection results and raw channel stacks
// as images.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"nucleitracker/pkg/channel"
)

// StackViewer cuts orthogonal planes out of one frame of a channel stack.
// Detection itself stays per plane; the viewer is for inspecting z-stacks.
type StackViewer struct {
	stack *channel.Array
	frame int
}

// NewStackViewer views frame of stack.
func NewStackViewer(stack *channel.Array, frame int) (*StackViewer, error) {
	if stack == nil {
		return nil, fmt.Errorf("nil channel stack")
	}
	if frame < 0 || frame >= stack.Frames {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", frame, stack.Frames)
	}
	return &StackViewer{stack: stack, frame: frame}, nil
}

// value returns the voxel at (x, y, z) scaled to [0,1] by the dtype range.
func (v *StackViewer) value(x, y, z int) float64 {
	s := v.stack
	idx := ((z*s.Frames+v.frame)*s.Height+y)*s.Width + x
	return s.Data[idx] / s.DType.Max()
}

// ExtractSlice extracts a plane perpendicular to axis at position. "z"
// gives the XY plane of one z-slice; "x" and "y" give side views with z
// along the horizontal axis.
func (v *StackViewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	s := v.stack

	var img *image.Gray16
	switch axis {
	case "x", "X":
		if position >= s.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, s.Width)
		}
		img = image.NewGray16(image.Rect(0, 0, s.ZSlices, s.Height))
		for y := 0; y < s.Height; y++ {
			for z := 0; z < s.ZSlices; z++ {
				img.SetGray16(z, y, toGray16(v.value(position, y, z)))
			}
		}

	case "y", "Y":
		if position >= s.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, s.Height)
		}
		img = image.NewGray16(image.Rect(0, 0, s.Width, s.ZSlices))
		for z := 0; z < s.ZSlices; z++ {
			for x := 0; x < s.Width; x++ {
				img.SetGray16(x, z, toGray16(v.value(x, position, z)))
			}
		}

	case "z", "Z":
		if position >= s.ZSlices {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, s.ZSlices)
		}
		img = image.NewGray16(image.Rect(0, 0, s.Width, s.Height))
		for y := 0; y < s.Height; y++ {
			for x := 0; x < s.Width; x++ {
				img.SetGray16(x, y, toGray16(v.value(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSliceSequence writes every plane along axis to outputDir as PNG.
func (v *StackViewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.stack.Width
	case "y", "Y":
		maxPos = v.stack.Height
	case "z", "Z":
		maxPos = v.stack.ZSlices
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("channel_%d_%s_%03d.png", v.stack.Index, axis, pos))
		if err := SavePNG(filename, img); err != nil {
			return err
		}
	}

	return nil
}

func toGray16(v float64) color.Gray16 {
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, v*65535)))}
}
