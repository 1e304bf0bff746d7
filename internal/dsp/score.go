package dsp

import "math"

// ScoringConfig 清晰度评分常数。
// 这两个常数定义了评分的含义，修改会让历史分数不可比。
type ScoringConfig struct {
	// JitterWeight k1: jitterScore = max(0, 100 - jitter*k1)
	JitterWeight float64 `mapstructure:"jitter_weight" yaml:"jitter_weight"`
	// ShimmerWeight k2: shimmerScore = max(0, 100 - shimmer*k2)
	ShimmerWeight float64 `mapstructure:"shimmer_weight" yaml:"shimmer_weight"`
}

// DefaultScoring k1=55, k2=22。启发式取值，非临床标定
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		JitterWeight:  55,
		ShimmerWeight: 22,
	}
}

// ClarityScore 由 jitter 和 shimmer 两个子分数平均取整得到 0-100 的清晰度
func ClarityScore(jitterPercent, shimmerPercent float64, cfg ScoringConfig) int {
	jitterScore := math.Max(0, 100-sanitize(jitterPercent)*cfg.JitterWeight)
	shimmerScore := math.Max(0, 100-sanitize(shimmerPercent)*cfg.ShimmerWeight)
	score := math.Round((jitterScore + shimmerScore) / 2)
	return int(clamp(score, 0, 100))
}

// sanitize 将 NaN 和负值视为 0，+Inf 保留使子分数归零
func sanitize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
