package dsp

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Perturbation 周期与振幅扰动 (jitter / shimmer)
type Perturbation struct {
	JitterPercent  float64
	ShimmerPercent float64
	// Insufficient 有声帧少于2个，无法计算扰动
	Insufficient bool
}

// MeasurePerturbation 根据有声帧的周期序列和峰值振幅序列计算 jitter 与 shimmer。
// 调用方只应传入有声帧，无声帧不计为零长度周期。
func MeasurePerturbation(periods, amplitudes []float64) Perturbation {
	if len(periods) < 2 {
		return Perturbation{Insufficient: true}
	}
	return Perturbation{
		JitterPercent:  relativeAverageDifference(periods),
		ShimmerPercent: relativeAverageDifference(amplitudes),
	}
}

// relativeAverageDifference mean|x[i]-x[i-1]| / mean(x) * 100
func relativeAverageDifference(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}

	mean := stat.Mean(x, nil)
	if mean == 0 || math.IsNaN(mean) {
		return 0
	}

	var sum float64
	for i := 1; i < len(x); i++ {
		sum += math.Abs(x[i] - x[i-1])
	}
	return sum / float64(len(x)-1) / mean * 100
}
