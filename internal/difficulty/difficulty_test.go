package difficulty

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/mockview/internal/domain"
)

func metric(mean float64) domain.PerformanceMetric {
	return domain.PerformanceMetric{TechnicalDepth: mean, Clarity: mean, Confidence: mean}
}

func TestPerformanceScore(t *testing.T) {
	tests := []struct {
		name    string
		history []domain.PerformanceMetric
		window  int
		want    float64
	}{
		{"empty is neutral", nil, 3, 5},
		{"single", []domain.PerformanceMetric{metric(8)}, 3, 8},
		{"weights newest heaviest", []domain.PerformanceMetric{metric(3), metric(6), metric(9)}, 3, (3*1 + 6*2 + 9*3) / 6.0},
		{"window drops oldest", []domain.PerformanceMetric{metric(0), metric(0), metric(4), metric(8)}, 2, (4*1 + 8*2) / 3.0},
		{"zero window uses default", []domain.PerformanceMetric{metric(10), metric(2), metric(2), metric(2)}, 0, 2},
		{"mixed sub-scores", []domain.PerformanceMetric{{TechnicalDepth: 9, Clarity: 6, Confidence: 3}}, 3, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PerformanceScore(tt.history, tt.window), 1e-9)
		})
	}
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		score   float64
		level   domain.Level
		want    float64
	}{
		{"strong mid capped at band max", 5, 8.0, domain.LevelMid, 6.5},
		{"strong senior capped", 9.5, 9, domain.LevelSenior, 10},
		{"good small step", 5, 7, domain.LevelMid, 5.5},
		{"6.5 is a small step up", 5, 6.5, domain.LevelMid, 5.5},
		{"poor junior floored at band min", 8, 2.0, domain.LevelJunior, 6.5},
		{"poor hits band min", 4, 1, domain.LevelJunior, 3},
		{"4.5 is a small step down", 6, 4.5, domain.LevelMid, 5.5},
		{"3.5 is a big step down", 6, 3.5, domain.LevelMid, 4.5},
		{"moderate nudges up toward target", 5, 5.5, domain.LevelMid, 5.3},
		{"moderate nudges down toward target", 7, 5.5, domain.LevelMid, 6.7},
		{"moderate never overshoots target", 5.9, 6, domain.LevelMid, 6},
		{"moderate at target stays", 6, 5, domain.LevelMid, 6},
		{"unknown level uses mid band", 5, 8.0, domain.Level("staff"), 6.5},
		{"above band still clamped globally", 14, 5, domain.LevelSenior, 10},
		{"below band still clamped globally", -3, 2, domain.LevelJunior, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Adjust(tt.current, tt.score, tt.level), 1e-9)
		})
	}
}

func TestAdjust_IdempotentAtTarget(t *testing.T) {
	for _, level := range domain.Levels {
		target := BandFor(level).Target
		for _, score := range []float64{4.51, 5, 5.5, 6, 6.49} {
			assert.Equal(t, target, Adjust(target, score, level), "level=%s score=%v", level, score)
		}
	}
}

func TestAdjust_ModerateBoundariesStillMove(t *testing.T) {
	// 4.5 and 6.5 belong to the step rules, so only the open interval
	// between them leaves a difficulty at target untouched.
	for _, level := range domain.Levels {
		b := BandFor(level)
		assert.Equal(t, math.Max(b.Min, b.Target-smallStep), Adjust(b.Target, 4.5, level), "level=%s score=4.5", level)
		assert.Equal(t, math.Min(b.Max, b.Target+smallStep), Adjust(b.Target, 6.5, level), "level=%s score=6.5", level)
	}
}

func TestAdjust_AlwaysInGlobalRange(t *testing.T) {
	levels := append([]domain.Level{"unknown"}, domain.Levels...)
	for _, level := range levels {
		for current := -5.0; current <= 15; current += 0.7 {
			for score := -2.0; score <= 12; score += 0.25 {
				got := Adjust(current, score, level)
				if got < Min || got > Max || math.IsNaN(got) {
					t.Fatalf("Adjust(%v, %v, %s) = %v out of range", current, score, level, got)
				}
			}
		}
	}
}

func TestNext(t *testing.T) {
	history := []domain.PerformanceMetric{metric(9), metric(9), metric(9)}
	assert.Equal(t, 6.5, Next(5, history, 3, domain.LevelMid))
	assert.InDelta(t, 5.3, Next(5, nil, 3, domain.LevelMid), 1e-9)
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, Band{Min: 3, Max: 6, Target: 4.5}, BandFor(domain.LevelJunior))
	assert.Equal(t, Band{Min: 4, Max: 8, Target: 6}, BandFor(domain.LevelMid))
	assert.Equal(t, Band{Min: 6, Max: 10, Target: 8}, BandFor(domain.LevelSenior))
	assert.Equal(t, BandFor(domain.LevelMid), BandFor(""))
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		d     float64
		level domain.Level
		want  Strategy
	}{
		{2.9, domain.LevelJunior, Strategy{domain.LevelJunior, MixEasier}},
		{3.5, domain.LevelJunior, Strategy{domain.LevelJunior, MixEasier}},
		{5, domain.LevelJunior, Strategy{domain.LevelJunior, MixMixed}},
		{6.5, domain.LevelJunior, Strategy{domain.LevelJunior, MixHarder}},
		{7.5, domain.LevelJunior, Strategy{domain.LevelMid, MixHarder}},
		{3, domain.LevelMid, Strategy{domain.LevelJunior, MixEasier}},
		{4, domain.LevelMid, Strategy{domain.LevelMid, MixEasier}},
		{6, domain.LevelMid, Strategy{domain.LevelMid, MixMixed}},
		{7, domain.LevelMid, Strategy{domain.LevelMid, MixMixed}},
		{8.5, domain.LevelMid, Strategy{domain.LevelSenior, MixHarder}},
		{5, domain.LevelSenior, Strategy{domain.LevelMid, MixEasier}},
		{6.5, domain.LevelSenior, Strategy{domain.LevelSenior, MixEasier}},
		{9.5, domain.LevelSenior, Strategy{domain.LevelSenior, MixHarder}},
		{10, domain.LevelSenior, Strategy{domain.LevelSenior, MixHarder}},
		{6, domain.Level("x"), Strategy{domain.LevelMid, MixMixed}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectStrategy(tt.d, tt.level), "d=%v level=%s", tt.d, tt.level)
	}
}
