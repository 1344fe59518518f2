// Package detection runs the nucleus detection pipeline over one image
// plane: shape, channel, normalization, thresholding, morphological
// cleanup, labeling and aggregation, in that order.
package detection

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"nucleitracker/internal/logger"
	"nucleitracker/internal/models"
	"nucleitracker/pkg/bioimage"
	"nucleitracker/pkg/intensity"
	"nucleitracker/pkg/labeling"
	"nucleitracker/pkg/morphology"
	"nucleitracker/pkg/nuclei"
	"nucleitracker/pkg/visualization"
)

const component = "detection"

// ImageHandler produces the intermediate views of a raw image on demand.
// *bioimage.Handler implements it.
type ImageHandler interface {
	Raw() *models.RawImage
	Dimensions() (models.Dimensions, error)
	Intensity(sel bioimage.Selection) (*models.IntensityMatrix, error)
	Normalized(m *models.IntensityMatrix) (*mat.Dense, error)
	Binary(norm mat.Matrix, threshold float64) (*models.Mask, error)
}

// Params holds the detection parameters. Every stage input is explicit;
// nothing is read from a previous run.
type Params struct {
	// Selection picks the channel, z-slice and frame to analyse
	Selection bioimage.Selection

	// Threshold is the strict binarization cut, in the open interval (0,1)
	Threshold float64

	// CloseSize is the side of the square closing kernel
	CloseSize int

	// OpenSize is the diameter of the elliptical opening kernel
	OpenSize int

	// MinArea and MaxArea bound the pixel count of reported nuclei.
	// MaxArea 0 means unbounded; both 0 disables filtering
	MinArea int
	MaxArea int

	// SaveIntermediaryResults writes the binary, cleaned and label images
	// under IntermediaryDir
	SaveIntermediaryResults bool
	IntermediaryDir         string
}

// DefaultParams returns threshold 0.5 with 5x5 closing and opening.
func DefaultParams() Params {
	return Params{
		Threshold:       intensity.DefaultThreshold,
		CloseSize:       5,
		OpenSize:        5,
		IntermediaryDir: "intermediary_results",
	}
}

// Result is the output of one detection run. Every field up to Stage is
// populated.
type Result struct {
	Selection  bioimage.Selection
	Stage      models.Stage
	Dimensions models.Dimensions

	Intensity  *models.IntensityMatrix
	Normalized *mat.Dense
	Binary     *models.Mask
	Cleaned    *models.Mask
	Labels     *models.LabelMap

	// Count is the number of components found by the labeler, before area
	// filtering
	Count int

	Nuclei *nuclei.Set

	Duration time.Duration
}

// Centroids returns the centroid of every reported nucleus keyed by id.
func (r *Result) Centroids() map[int]models.Centroid {
	return r.Nuclei.Centroids()
}

// Coordinates returns the pixel coordinates of every reported nucleus keyed
// by id.
func (r *Result) Coordinates() map[int][]models.Coordinate {
	out := make(map[int][]models.Coordinate, r.Nuclei.Len())
	for id, n := range r.Nuclei.Nuclei {
		out[id] = n.Coordinates
	}
	return out
}

// Detector runs the pipeline with injected cleanup and labeling backends.
type Detector struct {
	cleaner morphology.Cleaner
	labeler labeling.Labeler
	log     logger.Logger
}

// NewDetector creates a detector. Nil arguments fall back to the native
// backends and a no-op logger.
func NewDetector(cleaner morphology.Cleaner, labeler labeling.Labeler, log logger.Logger) *Detector {
	if cleaner == nil {
		cleaner = morphology.Native{}
	}
	if labeler == nil {
		labeler = labeling.Native{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Detector{
		cleaner: cleaner,
		labeler: labeler,
		log:     log,
	}
}

// Detect walks Idle to Aggregated. A failure stops the run and is returned
// as a *models.StageError naming the stage that could not be reached; no
// partial result is returned with it.
func (d *Detector) Detect(h ImageHandler, p Params) (*Result, error) {
	if h == nil {
		return nil, models.NewStageError(models.StageShapeResolved, fmt.Errorf("%w: nil image handler", models.ErrInvalidInput))
	}

	start := time.Now()
	res := &Result{Selection: p.Selection, Stage: models.StageIdle}
	fail := func(err error) (*Result, error) {
		se := models.NewStageError(res.Stage.Next(), err)
		d.log.Error(component, se, map[string]interface{}{
			"stage":     se.Stage.String(),
			"kind":      se.Kind.String(),
			"selection": p.Selection.String(),
		})
		return nil, se
	}

	dims, err := h.Dimensions()
	if err != nil {
		return fail(err)
	}
	res.Dimensions = dims
	res.Stage = res.Stage.Next()
	d.log.Debug(component, "shape resolved", map[string]interface{}{"dimensions": dims.String()})

	plane, err := h.Intensity(p.Selection)
	if err != nil {
		return fail(err)
	}
	res.Intensity = plane
	res.Stage = res.Stage.Next()
	d.log.Debug(component, "channel selected", map[string]interface{}{"selection": p.Selection.String(), "dtype": plane.DType.String()})

	norm, err := h.Normalized(plane)
	if err != nil {
		return fail(err)
	}
	res.Normalized = norm
	res.Stage = res.Stage.Next()

	binary, err := h.Binary(norm, p.Threshold)
	if err != nil {
		return fail(err)
	}
	res.Binary = binary
	res.Stage = res.Stage.Next()
	d.log.Debug(component, "binarized", map[string]interface{}{"threshold": p.Threshold, "foreground": binary.Count()})

	cleaned, err := d.cleaner.Clean(binary, p.CloseSize, p.OpenSize)
	if err != nil {
		return fail(err)
	}
	res.Cleaned = cleaned
	res.Stage = res.Stage.Next()
	d.log.Debug(component, "cleaned", map[string]interface{}{"backend": d.cleaner.Name(), "foreground": cleaned.Count()})

	count, labels, err := d.labeler.Label(cleaned)
	if err != nil {
		return fail(err)
	}
	res.Count = count
	res.Labels = labels
	res.Stage = res.Stage.Next()
	d.log.Debug(component, "labeled", map[string]interface{}{"backend": d.labeler.Name(), "components": count})

	set, err := nuclei.Aggregate(count, labels)
	if err != nil {
		return fail(err)
	}
	if len(set.Degenerate) > 0 {
		d.log.Warning(component, "skipped labels without pixels", map[string]interface{}{"labels": set.Degenerate})
	}
	if p.MinArea > 0 || p.MaxArea > 0 {
		set, err = nuclei.FilterByArea(set, p.MinArea, p.MaxArea)
		if err != nil {
			return fail(err)
		}
	}
	res.Nuclei = set
	res.Stage = res.Stage.Next()
	res.Duration = time.Since(start)

	if p.SaveIntermediaryResults {
		d.saveIntermediaryResults(res, p.IntermediaryDir)
	}

	d.log.Info(component, "detection complete", map[string]interface{}{
		"selection":   p.Selection.String(),
		"nuclei":      set.Len(),
		"components":  count,
		"duration_ms": res.Duration.Milliseconds(),
	})
	return res, nil
}

// saveIntermediaryResults writes the binary, cleaned and label images of a
// run. Failures are logged and do not fail the run.
func (d *Detector) saveIntermediaryResults(res *Result, dir string) {
	stages := []struct {
		name string
		save func(path string) error
	}{
		{"01_binarized", func(path string) error { return visualization.SavePNG(path, visualization.MaskImage(res.Binary)) }},
		{"02_cleaned", func(path string) error { return visualization.SavePNG(path, visualization.MaskImage(res.Cleaned)) }},
		{"03_labels", func(path string) error { return visualization.SavePNG(path, visualization.LabelImage(res.Labels)) }},
	}

	sel := res.Selection
	filename := fmt.Sprintf("channel_%d_z%d_t%d.png", sel.Channel, sel.ZSlice, sel.Frame)
	for _, s := range stages {
		stageDir := filepath.Join(dir, s.name)
		if err := os.MkdirAll(stageDir, 0755); err != nil {
			d.log.Warning(component, "failed to create intermediary directory", map[string]interface{}{"dir": stageDir, "error": err.Error()})
			continue
		}
		path := filepath.Join(stageDir, filename)
		if err := s.save(path); err != nil {
			d.log.Warning(component, "failed to save intermediary result", map[string]interface{}{"path": path, "error": err.Error()})
		}
	}
}
