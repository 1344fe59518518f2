package models

import (
	"fmt"
	"image"
)

// Coordinate is a pixel position in (row, col) order.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Centroid is the mean of a nucleus' pixel coordinates.
type Centroid struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// Nucleus is one connected foreground region of a label map.
type Nucleus struct {
	// ID is the label value in the LabelMap the nucleus came from
	ID int `json:"id"`

	// Coordinates lists the member pixels in raster order
	Coordinates []Coordinate `json:"coordinates"`

	// Centroid is the arithmetic mean of Coordinates
	Centroid Centroid `json:"centroid"`

	// Bounds encloses the nucleus in image convention: Min is the top-left
	// pixel (inclusive), Max is exclusive; X is the column, Y the row
	Bounds image.Rectangle `json:"bounds"`

	// Area is the pixel count
	Area int `json:"area"`
}

// Name returns the display name used in tables and overlays.
func (n Nucleus) Name() string {
	return fmt.Sprintf("nucleo_%d", n.ID)
}
