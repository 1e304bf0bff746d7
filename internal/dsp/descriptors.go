package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SpectralCentroid 幅度加权平均频率，总幅度为零时返回 0
func SpectralCentroid(s SpectralFrame) float64 {
	var weighted, total float64
	for i, m := range s.Magnitudes {
		weighted += s.BinFrequency(i) * m
		total += m
	}
	if total <= 0 {
		return 0
	}
	return weighted / total
}

// SpectralRolloff 返回累计能量首次达到 fraction 的频率。
// 零能量频谱返回 0；fraction >= 1 返回奈奎斯特频率。
func SpectralRolloff(s SpectralFrame, fraction float64) float64 {
	total := floats.Dot(s.Magnitudes, s.Magnitudes)
	if total <= 0 {
		return 0
	}
	if fraction >= 1 {
		return s.Nyquist()
	}

	threshold := total * fraction
	var cumulative float64
	for i, m := range s.Magnitudes {
		cumulative += m * m
		if cumulative >= threshold {
			return s.BinFrequency(i)
		}
	}
	return s.Nyquist()
}

// ZeroCrossingRate 相邻样本符号变化的比例，样本为零按非负处理
func ZeroCrossingRate(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}

	crossings := 0
	for i := 1; i < len(x); i++ {
		if (x[i] >= 0) != (x[i-1] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(x)-1)
}

// RMS 均方根幅度
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

// PeakAmplitude 最大绝对幅度
func PeakAmplitude(x []float64) float64 {
	var peak float64
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}
	return peak
}
