package dsp

// MaxRecommendations 最多返回的建议条数
const MaxRecommendations = 4

// Category 建议类别
type Category string

const (
	CategoryPitchUnvoiced   Category = "pitch-unvoiced"
	CategoryPitchLow        Category = "pitch-low"
	CategoryPitchHigh       Category = "pitch-high"
	CategoryPitchInRange    Category = "pitch-in-range"
	CategoryStabilityLow    Category = "stability-unstable"
	CategoryStabilityHigh   Category = "stability-excellent"
	CategoryVolumeUneven    Category = "volume-uneven"
	CategoryVolumeSteady    Category = "volume-steady"
	CategoryClarityLow      Category = "clarity-low"
	CategoryClarityHigh     Category = "clarity-high"
	CategoryClarityModerate Category = "clarity-moderate"
	CategoryDailyPractice   Category = "daily-practice"
)

var templates = map[Category]string{
	CategoryPitchUnvoiced:   "We could not detect enough voiced speech. Record in a quiet room and speak continuously for at least a few seconds so your voice can be analyzed.",
	CategoryPitchLow:        "Your voice has a deep, authoritative quality. Practice pitch variation to add more expressiveness and prevent monotony.",
	CategoryPitchHigh:       "Your higher pitch conveys energy and approachability. Work on grounding your voice occasionally for more gravitas in serious moments.",
	CategoryPitchInRange:    "Your pitch range is well-suited for professional communication. Focus on using strategic pitch changes to emphasize key points.",
	CategoryStabilityLow:    "Your pitch shows some instability. Practice sustained vowel sounds (ah, eh, oh) for 30 seconds each to improve vocal cord coordination.",
	CategoryStabilityHigh:   "Excellent pitch stability! Your voice shows professional-level control. Continue this consistency while adding more dynamic expression.",
	CategoryVolumeUneven:    "Work on volume consistency through diaphragmatic breathing. Place one hand on your chest, one on your stomach - only the lower hand should move when breathing.",
	CategoryVolumeSteady:    "Great volume control! Your voice maintains steady amplitude. This consistency creates a trustworthy, professional impression.",
	CategoryClarityLow:      "Focus on articulation clarity. Practice reading aloud with exaggerated consonants for 10 minutes daily, then gradually return to natural speech.",
	CategoryClarityHigh:     "Outstanding clarity! Your articulation is crisp and professional. Now focus on adding emotional color while maintaining this precision.",
	CategoryClarityModerate: "Good overall clarity with room for improvement. Practice tongue twisters and focus on crisp consonant endings.",
	CategoryDailyPractice:   "Record yourself daily reading different types of content (news, stories, technical material) to build versatility and track improvement.",
}

// Thresholds 建议规则的分桶阈值，均为启发式取值
type Thresholds struct {
	PitchLowHz  float64 `mapstructure:"pitch_low_hz" yaml:"pitch_low_hz"`
	PitchHighHz float64 `mapstructure:"pitch_high_hz" yaml:"pitch_high_hz"`
	JitterHigh  float64 `mapstructure:"jitter_high" yaml:"jitter_high"`
	JitterLow   float64 `mapstructure:"jitter_low" yaml:"jitter_low"`
	ShimmerHigh float64 `mapstructure:"shimmer_high" yaml:"shimmer_high"`
	ShimmerLow  float64 `mapstructure:"shimmer_low" yaml:"shimmer_low"`
	ClarityLow  int     `mapstructure:"clarity_low" yaml:"clarity_low"`
	ClarityHigh int     `mapstructure:"clarity_high" yaml:"clarity_high"`
}

// DefaultThresholds 返回默认分桶阈值
func DefaultThresholds() Thresholds {
	return Thresholds{
		PitchLowHz:  130,
		PitchHighHz: 200,
		JitterHigh:  1.2,
		JitterLow:   0.5,
		ShimmerHigh: 3.0,
		ShimmerLow:  1.5,
		ClarityLow:  65,
		ClarityHigh: 85,
	}
}

// Recommendation 一条建议
type Recommendation struct {
	Category Category `json:"category" yaml:"category"`
	Message  string   `json:"message" yaml:"message"`
}

// Recommend 按 音高 → 稳定性 → 音量一致性 → 清晰度 → 兜底 的固定顺序
// 为每个维度最多选一条模板。相同输入总是得到相同输出。
func Recommend(pitchHz, jitterPercent, shimmerPercent float64, clarity int, t Thresholds) []Recommendation {
	var selected []Category

	switch {
	case pitchHz <= 0:
		selected = append(selected, CategoryPitchUnvoiced)
	case pitchHz < t.PitchLowHz:
		selected = append(selected, CategoryPitchLow)
	case pitchHz > t.PitchHighHz:
		selected = append(selected, CategoryPitchHigh)
	default:
		selected = append(selected, CategoryPitchInRange)
	}

	switch {
	case jitterPercent > t.JitterHigh:
		selected = append(selected, CategoryStabilityLow)
	case jitterPercent < t.JitterLow:
		selected = append(selected, CategoryStabilityHigh)
	}

	switch {
	case shimmerPercent > t.ShimmerHigh:
		selected = append(selected, CategoryVolumeUneven)
	case shimmerPercent < t.ShimmerLow:
		selected = append(selected, CategoryVolumeSteady)
	}

	switch {
	case clarity < t.ClarityLow:
		selected = append(selected, CategoryClarityLow)
	case clarity > t.ClarityHigh:
		selected = append(selected, CategoryClarityHigh)
	default:
		selected = append(selected, CategoryClarityModerate)
	}

	if len(selected) < MaxRecommendations {
		selected = append(selected, CategoryDailyPractice)
	}
	if len(selected) > MaxRecommendations {
		selected = selected[:MaxRecommendations]
	}

	recs := make([]Recommendation, len(selected))
	for i, c := range selected {
		recs[i] = Recommendation{Category: c, Message: templates[c]}
	}
	return recs
}

// Messages 提取建议文本
func Messages(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Message
	}
	return out
}
