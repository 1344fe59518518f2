// Package source reads raster files into raw microscopy arrays.
package source

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"

	"nucleitracker/internal/models"
)

// ErrNotFound is returned when the input path does not exist.
var ErrNotFound = errors.New("image source not found")

// Loader produces a RawImage from a path. Decoders for proprietary
// microscopy formats plug in here.
type Loader interface {
	Load(path string) (*models.RawImage, error)
}

// FileLoader decodes PNG, JPEG, GIF and TIFF files.
type FileLoader struct{}

// Load decodes a single 2D image. 16-bit grayscale keeps its range as
// Uint16; everything else is reduced to 8-bit luminance.
func (FileLoader) Load(path string) (*models.RawImage, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img)
}

// imageExtensions lists the file types LoadStack picks up.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
}

// LoadStack reads every image in dir as one z-slice of a single-channel
// stack, ordered by the number in each filename. The result has shape
// (z, 1, h, w). All slices must share size and dtype.
func (l FileLoader) LoadStack(dir string) (*models.RawImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images found in %s", ErrNotFound, dir)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return extractNumber(files[i]) < extractNumber(files[j])
	})

	var (
		height, width int
		dtype         models.DType
		data          []float64
	)
	for i, name := range files {
		slice, err := l.Load(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load slice %s: %w", name, err)
		}
		h, w := slice.Shape[0], slice.Shape[1]
		if i == 0 {
			height, width, dtype = h, w, slice.DType
			data = make([]float64, 0, len(files)*h*w)
		} else if h != height || w != width || slice.DType != dtype {
			return nil, fmt.Errorf("%w: slice %s is %dx%d %s, expected %dx%d %s",
				models.ErrInvalidInput, name, h, w, slice.DType, height, width, dtype)
		}
		data = append(data, slice.Data...)
	}

	return models.NewRawImage([]int{len(files), 1, height, width}, dtype, data)
}

// FromImage converts a decoded image into a (height, width) RawImage.
func FromImage(img image.Image) (*models.RawImage, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: empty image", models.ErrSourceDecode)
	}
	data := make([]float64, w*h)

	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = float64(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return models.NewRawImage([]int{h, w}, models.Uint16, data)

	case *image.Gray:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return models.NewRawImage([]int{h, w}, models.Uint8, data)

	default:
		// imaging.Grayscale returns an NRGBA anchored at the origin with
		// R == G == B
		gray := imaging.Grayscale(img)
		for y := 0; y < h; y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
			for x := 0; x < w; x++ {
				data[y*w+x] = float64(row[x*4])
			}
		}
		return models.NewRawImage([]int{h, w}, models.Uint8, data)
	}
}

func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrSourceDecode, path, err)
	}
	return img, nil
}

// extractNumber returns the digits of the base name as an int, or 0 when
// there are none.
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}

	if digits.Len() > 0 {
		num, err := strconv.Atoi(digits.String())
		if err == nil {
			return num
		}
	}
	return 0
}
