package models

// Stage is a position in the detection state machine. Stages only move
// forward.
type Stage int

const (
	StageIdle Stage = iota
	StageShapeResolved
	StageChannelSelected
	StageNormalized
	StageBinarized
	StageCleaned
	StageLabeled
	StageAggregated
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StageShapeResolved:
		return "ShapeResolved"
	case StageChannelSelected:
		return "ChannelSelected"
	case StageNormalized:
		return "Normalized"
	case StageBinarized:
		return "Binarized"
	case StageCleaned:
		return "Cleaned"
	case StageLabeled:
		return "Labeled"
	case StageAggregated:
		return "Aggregated"
	default:
		return "Unknown"
	}
}

// Next returns the stage that follows s. Aggregated is terminal.
func (s Stage) Next() Stage {
	if s >= StageAggregated {
		return StageAggregated
	}
	return s + 1
}
