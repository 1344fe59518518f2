package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"nucleitracker/internal/logger"
	"nucleitracker/internal/models"
	"nucleitracker/pkg/bioimage"
	"nucleitracker/pkg/config"
	"nucleitracker/pkg/detection"
	"nucleitracker/pkg/nuclei"
	"nucleitracker/pkg/source"
	"nucleitracker/pkg/visualization"
)

func main() {
	// Parse command line arguments
	inputFile := flag.String("input", "", "Image file to analyse (PNG, JPEG, GIF or TIFF)")
	inputDir := flag.String("input-dir", "", "Directory of z-slice images loaded as one stack")
	configPath := flag.String("config", "nucleitracker.yaml", "YAML configuration file")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	channelIdx := flag.Int("channel", 0, "Channel index")
	allChannels := flag.Bool("all-channels", false, "Detect on every channel in parallel")
	zSlice := flag.Int("z", 0, "Z-slice index")
	frame := flag.Int("frame", 0, "Frame index")
	threshold := flag.Float64("threshold", 0.5, "Binarization threshold on normalized intensity, in (0,1)")
	closeSize := flag.Int("close", 5, "Closing kernel size")
	openSize := flag.Int("open", 5, "Opening kernel size")
	minArea := flag.Int("min-area", 0, "Minimum nucleus area in pixels")
	maxArea := flag.Int("max-area", 0, "Maximum nucleus area in pixels (0: unbounded)")
	numCores := flag.Int("cores", 0, "Number of channels processed in parallel (default: from config)")
	backend := flag.String("backend", "native", "Morphology and labeling backend: native or opencv")
	outputPath := flag.String("output", "", "Write the side-by-side overlay PNG here")
	extractSlices := flag.Bool("extract-slices", false, "Save the selected channel's planes along all axes")
	slicesDir := flag.String("slices-dir", "channel_slices", "Directory to save extracted planes")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save binary, cleaned and label images")
	intermediaryDir := flag.String("intermediary-dir", "intermediary_results", "Directory to save intermediary results")
	verbose := flag.Bool("verbose", false, "Log every stage")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if (*inputFile == "") == (*inputDir == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -input or -input-dir is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given on the command line override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "channel":
			cfg.Detection.Channel = *channelIdx
		case "z":
			cfg.Detection.ZSlice = *zSlice
		case "frame":
			cfg.Detection.Frame = *frame
		case "threshold":
			cfg.Detection.Threshold = *threshold
		case "close":
			cfg.Detection.CloseSize = *closeSize
		case "open":
			cfg.Detection.OpenSize = *openSize
		case "min-area":
			cfg.Detection.MinArea = *minArea
		case "max-area":
			cfg.Detection.MaxArea = *maxArea
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "backend":
			cfg.Processing.Backend = *backend
		case "save-intermediary":
			cfg.Output.SaveIntermediaryResults = *saveIntermediary
		case "intermediary-dir":
			cfg.Output.IntermediaryDir = *intermediaryDir
		case "verbose":
			cfg.Output.Verbose = *verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid parameters: %v", err)
	}

	level := logger.ParseLevel(cfg.Output.LogLevel)
	if cfg.Output.Verbose {
		level = zerolog.DebugLevel
	}
	appLog := logger.NewConsoleLogger(level)

	cleaner, labeler, err := newBackends(cfg.Processing.Backend)
	if err != nil {
		log.Fatalf("Failed to select backend: %v", err)
	}

	// Load the image
	loader := source.FileLoader{}
	var raw *models.RawImage
	if *inputFile != "" {
		raw, err = loader.Load(*inputFile)
	} else {
		raw, err = loader.LoadStack(*inputDir)
	}
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}

	handler, err := bioimage.NewHandler(raw)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}
	dims, err := handler.Dimensions()
	if err != nil {
		log.Fatalf("Unsupported image: %v", err)
	}
	fmt.Printf("Loaded %v image (%s)\n", raw.Shape, raw.DType)
	fmt.Printf("Dimensions: %s\n", dims)

	detector := detection.NewDetector(cleaner, labeler, appLog)
	params := cfg.DetectionParams()

	startTime := time.Now()
	var results []*detection.Result
	if *allChannels {
		channels := make([]int, dims.Channels)
		for i := range channels {
			channels[i] = i
		}
		results, err = detector.DetectChannels(handler, params, channels, cfg.Processing.NumCores)
	} else {
		var res *detection.Result
		res, err = detector.Detect(handler, params)
		results = []*detection.Result{res}
	}
	if err != nil {
		fatalDetection(err)
	}
	processingTime := time.Since(startTime)

	for _, res := range results {
		printResult(os.Stdout, res)
	}
	fmt.Printf("\nDetection completed in %.3f seconds using the %s backend\n", processingTime.Seconds(), cleaner.Name())

	if *outputPath != "" {
		renderer := visualization.Renderer{}
		for _, res := range results {
			img, err := renderer.Render(res.Intensity.Data, res.Nuclei, cfg.RenderOptions())
			if err != nil {
				log.Fatalf("Failed to render overlay: %v", err)
			}
			path := overlayPath(*outputPath, res.Selection.Channel, len(results) > 1)
			if err := visualization.SavePNG(path, img); err != nil {
				log.Fatalf("Failed to save overlay: %v", err)
			}
			fmt.Printf("Overlay saved to: %s\n", path)
		}
	}

	// Extract and save planes of the analysed channel if requested
	if *extractSlices {
		stack, err := handler.Channel(params.Selection.Channel)
		if err != nil {
			log.Fatalf("Failed to extract channel: %v", err)
		}
		viewer, err := visualization.NewStackViewer(stack, params.Selection.Frame)
		if err != nil {
			log.Fatalf("Failed to create viewer: %v", err)
		}
		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(*slicesDir, axis)
			fmt.Printf("Saving %s-axis planes to: %s\n", axis, axisDir)
			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				log.Printf("Warning: Failed to save %s-axis planes: %v", axis, err)
			}
		}
	}

	if cfg.Output.SaveIntermediaryResults {
		fmt.Println("\nIntermediary results saved to:")
		fmt.Printf("%s\n", cfg.Output.IntermediaryDir)
		fmt.Println("- 01_binarized: Thresholded masks")
		fmt.Println("- 02_cleaned: Masks after closing and opening")
		fmt.Println("- 03_labels: Connected components, one colour per nucleus")
	}
}

// fatalDetection reports the failing stage and kind, then exits.
func fatalDetection(err error) {
	var se *models.StageError
	if errors.As(err, &se) {
		log.Fatalf("Detection failed at stage %s (%s): %v", se.Stage, se.Kind, se.Err)
	}
	log.Fatalf("Detection failed: %v", err)
}

// printResult writes one table row per nucleus, with its closest neighbor,
// followed by a size summary.
func printResult(w io.Writer, res *detection.Result) {
	fmt.Fprintf(w, "\nChannel %d, z-slice %d, frame %d: %d nuclei\n",
		res.Selection.Channel, res.Selection.ZSlice, res.Selection.Frame, res.Nuclei.Len())

	index := nuclei.NewIndex(res.Nuclei)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCENTROID_ROW\tCENTROID_COL\tAREA\tBOUNDS\tNEIGHBOR\tNEIGHBOR_DIST")
	for _, n := range res.Nuclei.Sorted() {
		neighbor, dist := "-", "-"
		if id, d, ok := index.Neighbor(n.ID); ok {
			neighbor, dist = models.Nucleus{ID: id}.Name(), fmt.Sprintf("%.2f", d)
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%d\t%v\t%s\t%s\n", n.Name(), n.Centroid.Row, n.Centroid.Col, n.Area, n.Bounds, neighbor, dist)
	}
	tw.Flush()

	s := nuclei.Summarize(res.Nuclei)
	if s.Count > 0 {
		fmt.Fprintf(w, "Area: mean %.1f, stddev %.1f, min %d, max %d (%d foreground pixels)\n",
			s.MeanArea, s.StdDevArea, s.MinArea, s.MaxArea, s.ForegroundPixels)
	}
}

// overlayPath adds a channel suffix when several overlays are written.
func overlayPath(path string, channel int, multi bool) string {
	if !multi {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_channel_%d%s", path[:len(path)-len(ext)], channel, ext)
}
