package difficulty

import "github.com/abhisek/mockview/internal/domain"

// Mix says which part of a question bank to draw the next question from.
type Mix string

const (
	MixEasier  Mix = "easier"
	MixCurrent Mix = "current"
	MixHarder  Mix = "harder"
	MixMixed   Mix = "mixed"
)

// Strategy is the question-selection plan for the current difficulty.
type Strategy struct {
	TargetLevel domain.Level `json:"targetLevel"`
	Mix         Mix          `json:"mixStrategy"`
}

type thresholds struct {
	easy, hard float64
}

var selection = map[domain.Level]thresholds{
	domain.LevelJunior: {easy: 4, hard: 6},
	domain.LevelMid:    {easy: 5, hard: 7},
	domain.LevelSenior: {easy: 7, hard: 9},
}

// SelectStrategy maps a difficulty to a selection plan. More than one point
// outside the level's comfortable range moves to the neighbouring level.
func SelectStrategy(d float64, level domain.Level) Strategy {
	th, ok := selection[level]
	if !ok {
		level = domain.LevelMid
		th = selection[level]
	}

	switch {
	case d < th.easy-1:
		return Strategy{TargetLevel: easier(level), Mix: MixEasier}
	case d < th.easy:
		return Strategy{TargetLevel: level, Mix: MixEasier}
	case d > th.hard+1:
		return Strategy{TargetLevel: harder(level), Mix: MixHarder}
	case d > th.hard:
		return Strategy{TargetLevel: level, Mix: MixHarder}
	default:
		return Strategy{TargetLevel: level, Mix: MixMixed}
	}
}

func easier(l domain.Level) domain.Level {
	if l == domain.LevelSenior {
		return domain.LevelMid
	}
	return domain.LevelJunior
}

func harder(l domain.Level) domain.Level {
	if l == domain.LevelJunior {
		return domain.LevelMid
	}
	return domain.LevelSenior
}
