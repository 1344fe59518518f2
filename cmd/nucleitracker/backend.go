//go:build !opencv

package main

import (
	"fmt"

	"nucleitracker/pkg/labeling"
	"nucleitracker/pkg/morphology"
)

func newBackends(name string) (morphology.Cleaner, labeling.Labeler, error) {
	switch name {
	case "", "native":
		return morphology.Native{}, labeling.Native{}, nil
	case "opencv":
		return nil, nil, fmt.Errorf("backend %q requires building with -tags opencv", name)
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
}
