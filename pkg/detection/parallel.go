package detection

import (
	"fmt"
	"runtime"
)

// DetectChannels runs Detect once per channel, with the z-slice and frame of
// p.Selection, on at most workers goroutines. Results are returned in the
// order of channels. workers < 1 uses runtime.NumCPU().
func (d *Detector) DetectChannels(h ImageHandler, p Params, channels []int, workers int) ([]*Result, error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	type channelResult struct {
		idx    int
		result *Result
		err    error
	}
	resultChan := make(chan channelResult, len(channels))
	sem := make(chan struct{}, workers)

	for i, ch := range channels {
		params := p
		params.Selection.Channel = ch

		go func(idx int, params Params) {
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := d.Detect(h, params)
			resultChan <- channelResult{idx: idx, result: res, err: err}
		}(i, params)
	}

	results := make([]*Result, len(channels))
	// The earliest failing channel is reported
	var firstErr error
	errIdx := len(channels)
	for completed := 0; completed < len(channels); completed++ {
		res := <-resultChan
		if res.err != nil {
			if res.idx < errIdx {
				errIdx = res.idx
				firstErr = fmt.Errorf("channel %d: %w", channels[res.idx], res.err)
			}
			continue
		}
		results[res.idx] = res.result
	}
	if firstErr != nil {
		return nil, firstErr
	}

	d.log.Info(component, "multi-channel detection complete", map[string]interface{}{
		"channels": len(channels),
		"workers":  workers,
	})
	return results, nil
}
