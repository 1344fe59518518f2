package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Mask is a binary foreground mask stored row-major. Every value is 0 or 1.
type Mask struct {
	Rows int
	Cols int
	Pix  []uint8
}

// NewMask returns an all-background rows x cols mask.
func NewMask(rows, cols int) *Mask {
	return &Mask{
		Rows: rows,
		Cols: cols,
		Pix:  make([]uint8, rows*cols),
	}
}

// MaskFromRows builds a mask from nested rows, treating any non-zero value as
// foreground. Rows must all have the same length.
func MaskFromRows(rows [][]uint8) (*Mask, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: mask needs at least one row", ErrInvalidInput)
	}
	m := NewMask(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != m.Cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidInput, r, len(row), m.Cols)
		}
		for c, v := range row {
			if v != 0 {
				m.Pix[r*m.Cols+c] = 1
			}
		}
	}
	return m, nil
}

// Validate checks that Pix holds exactly Rows*Cols values.
func (m *Mask) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mask", ErrInvalidInput)
	}
	if m.Rows < 0 || m.Cols < 0 || len(m.Pix) != m.Rows*m.Cols {
		return fmt.Errorf("%w: mask is %dx%d with %d pixels", ErrInvalidInput, m.Rows, m.Cols, len(m.Pix))
	}
	return nil
}

// At returns the value at (row, col).
func (m *Mask) At(row, col int) uint8 {
	return m.Pix[row*m.Cols+col]
}

// Set writes the value at (row, col), storing 1 for any non-zero v.
func (m *Mask) Set(row, col int, v uint8) {
	if v != 0 {
		v = 1
	}
	m.Pix[row*m.Cols+col] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		n += int(v)
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := &Mask{Rows: m.Rows, Cols: m.Cols, Pix: make([]uint8, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// Equal reports whether both masks have the same shape and pixels.
func (m *Mask) Equal(other *Mask) bool {
	if other == nil || m.Rows != other.Rows || m.Cols != other.Cols {
		return false
	}
	for i, v := range m.Pix {
		if other.Pix[i] != v {
			return false
		}
	}
	return true
}

// ToDense converts the mask to a float matrix of 0.0 and 1.0.
func (m *Mask) ToDense() *mat.Dense {
	data := make([]float64, len(m.Pix))
	for i, v := range m.Pix {
		data[i] = float64(v)
	}
	return mat.NewDense(m.Rows, m.Cols, data)
}

// LabelMap assigns every pixel a component id. 0 is background.
type LabelMap struct {
	Rows   int
	Cols   int
	Labels []int
}

// NewLabelMap returns an all-background label map.
func NewLabelMap(rows, cols int) *LabelMap {
	return &LabelMap{
		Rows:   rows,
		Cols:   cols,
		Labels: make([]int, rows*cols),
	}
}

// Validate checks that Labels holds exactly Rows*Cols values.
func (l *LabelMap) Validate() error {
	if l == nil {
		return fmt.Errorf("%w: nil label map", ErrInvalidInput)
	}
	if l.Rows < 0 || l.Cols < 0 || len(l.Labels) != l.Rows*l.Cols {
		return fmt.Errorf("%w: label map is %dx%d with %d labels", ErrInvalidInput, l.Rows, l.Cols, len(l.Labels))
	}
	return nil
}

// At returns the label at (row, col).
func (l *LabelMap) At(row, col int) int {
	return l.Labels[row*l.Cols+col]
}

// Set writes the label at (row, col).
func (l *LabelMap) Set(row, col, label int) {
	l.Labels[row*l.Cols+col] = label
}

// Foreground returns the mask of all non-zero labels.
func (l *LabelMap) Foreground() *Mask {
	m := NewMask(l.Rows, l.Cols)
	for i, v := range l.Labels {
		if v != 0 {
			m.Pix[i] = 1
		}
	}
	return m
}
