package source

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"nucleitracker/internal/models"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func TestLoadGray16(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	img.SetGray16(2, 1, color.Gray16{Y: 65535})
	img.SetGray16(0, 0, color.Gray16{Y: 1000})
	path := filepath.Join(dir, "plane.png")
	writePNG(t, path, img)

	raw, err := FileLoader{}.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if raw.DType != models.Uint16 {
		t.Errorf("Expected uint16, got %s", raw.DType)
	}
	if len(raw.Shape) != 2 || raw.Shape[0] != 2 || raw.Shape[1] != 3 {
		t.Fatalf("Expected shape [2 3], got %v", raw.Shape)
	}
	if raw.Data[0] != 1000 || raw.Data[5] != 65535 {
		t.Errorf("Expected 1000 and 65535, got %v and %v", raw.Data[0], raw.Data[5])
	}
}

func TestLoadGray8(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 0, color.Gray{Y: 200})
	path := filepath.Join(dir, "plane.png")
	writePNG(t, path, img)

	raw, err := FileLoader{}.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if raw.DType != models.Uint8 || raw.Data[1] != 200 {
		t.Errorf("Expected uint8 with 200 at (0,1), got %s %v", raw.DType, raw.Data)
	}
}

func TestFromImageColorFallsBackToLuminance(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.RGBA{A: 255})

	raw, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if raw.DType != models.Uint8 {
		t.Errorf("Expected uint8, got %s", raw.DType)
	}
	if raw.Data[0] != 255 || raw.Data[1] != 0 {
		t.Errorf("Expected white 255 and black 0, got %v", raw.Data)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := FileLoader{}.Load(filepath.Join(dir, "missing.png"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	_, err = FileLoader{}.Load(garbage)
	if !errors.Is(err, models.ErrSourceDecode) {
		t.Errorf("Expected ErrSourceDecode, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("Decode failure must not be reported as not found")
	}
}

func TestLoadStackOrdersByNumber(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"slice_10.png", "slice_2.png", "slice_1.png"} {
		img := image.NewGray(image.Rect(0, 0, 2, 2))
		// pixel value identifies the file
		img.SetGray(0, 0, color.Gray{Y: uint8(10 * (i + 1))})
		writePNG(t, filepath.Join(dir, name), img)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	raw, err := FileLoader{}.LoadStack(dir)
	if err != nil {
		t.Fatalf("LoadStack failed: %v", err)
	}
	want := []int{3, 1, 2, 2}
	for i := range want {
		if raw.Shape[i] != want[i] {
			t.Fatalf("Expected shape %v, got %v", want, raw.Shape)
		}
	}
	// slice_1 (30), slice_2 (20), slice_10 (10)
	for z, v := range []float64{30, 20, 10} {
		if raw.Data[z*4] != v {
			t.Errorf("Slice %d: expected first pixel %v, got %v", z, v, raw.Data[z*4])
		}
	}
}

func TestLoadStackRejectsMismatchedSlices(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "1.png"), image.NewGray(image.Rect(0, 0, 2, 2)))
	writePNG(t, filepath.Join(dir, "2.png"), image.NewGray(image.Rect(0, 0, 3, 2)))

	if _, err := (FileLoader{}).LoadStack(dir); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if _, err := (FileLoader{}).LoadStack(t.TempDir()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty directory, got %v", err)
	}
}

func TestExtractNumber(t *testing.T) {
	cases := map[string]int{
		"slice_001.png":    1,
		"/tmp/z12.tif":     12,
		"no-digits.png":    0,
		"plane_3_of_5.png": 35,
	}
	for in, want := range cases {
		if got := extractNumber(in); got != want {
			t.Errorf("extractNumber(%q): expected %d, got %d", in, want, got)
		}
	}
}
