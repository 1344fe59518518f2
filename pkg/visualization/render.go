package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/mat"

	"nucleitracker/internal/models"
	"nucleitracker/pkg/nuclei"
)

// Options controls which overlays are drawn on the right panel.
type Options struct {
	ShowCentroids bool
	ShowBoxes     bool
	ShowLabels    bool

	// LabelColor is a colour name (see namedColors) or a hex string such as
	// "#3366ff"
	LabelColor string
}

// DefaultOptions draws every overlay with blue labels.
func DefaultOptions() Options {
	return Options{
		ShowCentroids: true,
		ShowBoxes:     true,
		ShowLabels:    true,
		LabelColor:    "blue",
	}
}

var namedColors = map[string]string{
	"blue":    "#0000ff",
	"red":     "#ff0000",
	"green":   "#00ff00",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"white":   "#ffffff",
	"black":   "#000000",
	"orange":  "#ffa500",
}

var (
	boxColor      = color.RGBA{R: 255, A: 255}
	centroidColor = color.RGBA{G: 255, A: 255}
)

const (
	// Label text sits right of the centroid by this many pixels
	labelOffsetCol = 20
	labelOffsetRow = 1

	markerRadius = 2
)

// ParseColor resolves a colour name or hex string.
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown colour %q", models.ErrInvalidInput, s)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// Renderer draws the detection overlay next to the original plane.
type Renderer struct{}

// Render returns an image twice the width of original: the plane on the
// left and the same plane with the nucleus overlays on the right. The plane
// is stretched to its own maximum.
func (Renderer) Render(original *mat.Dense, set *nuclei.Set, opts Options) (*image.RGBA, error) {
	if original == nil {
		return nil, fmt.Errorf("%w: nil image", models.ErrInvalidInput)
	}
	rows, cols := original.Dims()
	if set != nil && set.Rows != 0 && (set.Rows != rows || set.Cols != cols) {
		return nil, fmt.Errorf("%w: nuclei computed on %dx%d, image is %dx%d", models.ErrInvalidInput, set.Rows, set.Cols, rows, cols)
	}

	labelColor := color.Color(color.RGBA{B: 255, A: 255})
	if opts.ShowLabels && opts.LabelColor != "" {
		c, err := ParseColor(opts.LabelColor)
		if err != nil {
			return nil, err
		}
		labelColor = c
	}

	plane := GrayImage(original)
	canvas := imaging.New(2*cols, rows, color.Black)
	canvas = imaging.Paste(canvas, plane, image.Pt(0, 0))
	canvas = imaging.Paste(canvas, plane, image.Pt(cols, 0))

	out := image.NewRGBA(canvas.Bounds())
	draw.Draw(out, out.Bounds(), canvas, image.Point{}, draw.Src)

	if set == nil {
		return out, nil
	}

	right := image.Pt(cols, 0)
	panel := out.SubImage(image.Rect(cols, 0, 2*cols, rows)).(*image.RGBA)
	for _, n := range set.Sorted() {
		if opts.ShowBoxes {
			// one pixel outside the nucleus on every side
			drawRect(panel, n.Bounds.Inset(-1).Add(right), boxColor)
		}
		cr := int(math.Round(n.Centroid.Row))
		cc := int(math.Round(n.Centroid.Col))
		if opts.ShowCentroids {
			drawCross(panel, image.Pt(cols+cc, cr), markerRadius, centroidColor)
		}
		if opts.ShowLabels {
			drawText(panel, cols+cc+labelOffsetCol, cr+labelOffsetRow, n.Name(), labelColor)
		}
	}

	return out, nil
}

// GrayImage stretches a matrix to 16-bit grayscale by its maximum value.
func GrayImage(m *mat.Dense) *image.Gray16 {
	rows, cols := m.Dims()
	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	maxValue := mat.Max(m)
	if maxValue <= 0 {
		return img
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := m.At(y, x) / maxValue
			value := uint16(math.Max(0, math.Min(65535, v*65535)))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img
}

// MaskImage renders a binary mask as black and white.
func MaskImage(m *models.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Cols, m.Rows))
	for i, v := range m.Pix {
		if v != 0 {
			img.Pix[i] = 255
		}
	}
	return img
}

// LabelImage gives every label its own hue. Background stays black.
func LabelImage(l *models.LabelMap) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, l.Cols, l.Rows))
	palette := make(map[int]color.RGBA)
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			id := l.Labels[r*l.Cols+c]
			if id == 0 {
				img.SetRGBA(c, r, color.RGBA{A: 255})
				continue
			}
			col, ok := palette[id]
			if !ok {
				col = paletteColor(id)
				palette[id] = col
			}
			img.SetRGBA(c, r, col)
		}
	}
	return img
}

// paletteColor spaces hues by the golden angle so neighbouring ids differ.
func paletteColor(id int) color.RGBA {
	hue := math.Mod(float64(id)*137.508, 360)
	r, g, b := colorful.Hsv(hue, 0.75, 0.95).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// SavePNG writes img to path, creating parent directories.
func SavePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %v", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		setClipped(img, x, r.Min.Y, c)
		setClipped(img, x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		setClipped(img, r.Min.X, y, c)
		setClipped(img, r.Max.X-1, y, c)
	}
}

func drawCross(img *image.RGBA, p image.Point, radius int, c color.Color) {
	for d := -radius; d <= radius; d++ {
		setClipped(img, p.X+d, p.Y+d, c)
		setClipped(img, p.X+d, p.Y-d, c)
	}
}

// drawText draws text with its baseline at (x, y) using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	point := fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(text)
}

func setClipped(img *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}
