package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"voice-coach/internal/types"
)

// FormantBand 共振峰搜索频带
type FormantBand struct {
	MinHz float64
	MaxHz float64
}

// FormantBands F1, F2, F3 的搜索频带
var FormantBands = []FormantBand{
	{MinHz: 200, MaxHz: 1200},
	{MinHz: 900, MaxHz: 3000},
	{MinHz: 1800, MaxHz: 4000},
}

// FormantSet 按频率严格递增的共振峰列表，可能少于3个
type FormantSet []types.Formant

// DetectFormants 在平滑后的幅度谱上逐频带挑选最强局部极大值。
// 每个频带只在上一个共振峰之后搜索，频带内没有高于噪声门限的峰时跳过。
func DetectFormants(s SpectralFrame, smoothingHz, noiseFloor float64) FormantSet {
	formants := FormantSet{}
	if s.NumBins() < 3 || s.Resolution() <= 0 {
		return formants
	}

	rawPeak := floats.Max(s.Magnitudes)
	if rawPeak <= 0 {
		return formants
	}

	width := int(math.Round(smoothingHz / s.Resolution()))
	smoothed := Smooth(s.Magnitudes, width)
	floor := noiseFloor * floats.Max(smoothed)

	lastBin := 0
	for _, band := range FormantBands {
		lo := max(int(math.Ceil(band.MinHz/s.Resolution())), lastBin+1, 1)
		hi := min(int(math.Floor(band.MaxHz/s.Resolution())), s.NumBins()-2)

		bestBin := -1
		for k := lo; k <= hi; k++ {
			if smoothed[k] <= floor || smoothed[k] <= smoothed[k-1] || smoothed[k] < smoothed[k+1] {
				continue
			}
			if bestBin < 0 || smoothed[k] > smoothed[bestBin] {
				bestBin = k
			}
		}
		if bestBin < 0 {
			continue
		}

		formants = append(formants, types.Formant{
			FrequencyHz: s.BinFrequency(bestBin),
			Amplitude:   clamp(smoothed[bestBin]/rawPeak, 0, 1),
		})
		lastBin = bestBin
	}
	return formants
}

// Smooth 居中滑动平均，宽度小于等于1时返回副本
func Smooth(x []float64, width int) []float64 {
	out := make([]float64, len(x))
	if width <= 1 {
		copy(out, x)
		return out
	}

	prefix := make([]float64, len(x)+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v
	}

	half := width / 2
	for i := range x {
		lo := max(0, i-half)
		hi := min(len(x), i+half+1)
		out[i] = (prefix[hi] - prefix[lo]) / float64(hi-lo)
	}
	return out
}
